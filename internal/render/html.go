package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/docforgehq/docforge/internal/model"
)

var htmlTmpl = template.Must(template.New("documentation").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Project {{.ProjectID}} - Documentation</title>
    <style>
      body{font-family:Arial,Helvetica,sans-serif; margin:24px;}
      h1{margin-top:0}
      .meta{color:#666; font-size:12px}
      .item{border:1px solid #e5e7eb; border-radius:8px; padding:12px; margin:12px 0; background:#fafafa}
      .code{background:#f3f4f6; padding:8px; overflow:auto}
      pre{white-space:pre-wrap}
    </style>
  </head>
  <body>
    <h1>Project {{.ProjectID}} - Generated Documentation</h1>
    <div class="meta">Generated at: {{.GeneratedAt}}</div>
{{- range .Sections}}
    <section class="item">
      <h2>{{.Header}}</h2>
{{- if .Code}}
      <pre class="code">{{.Code}}</pre>
{{- end}}
{{- if .Docstring}}
      <div class="docstring"><strong>Docstring:</strong><pre>{{.Docstring}}</pre></div>
{{- end}}
    </section>
{{- end}}
  </body>
</html>
`))

type htmlSection struct {
	Header    string
	Code      string
	Docstring string
}

// HTML renders revision results as a standalone HTML page. Code and
// docstring text are escaped by the template engine.
func HTML(projectID string, results []model.DocstringResult, generatedAt time.Time) (string, error) {
	sections := make([]htmlSection, 0, len(results))
	for _, r := range results {
		sections = append(sections, htmlSection{
			Header:    itemHeader(r),
			Code:      strings.TrimSpace(r.OriginalCode),
			Docstring: strings.TrimSpace(r.GeneratedDocstring),
		})
	}

	var b strings.Builder
	err := htmlTmpl.Execute(&b, struct {
		ProjectID   string
		GeneratedAt string
		Sections    []htmlSection
	}{
		ProjectID:   projectID,
		GeneratedAt: formatTimestamp(generatedAt),
		Sections:    sections,
	})
	if err != nil {
		return "", fmt.Errorf("execute documentation template: %w", err)
	}
	return b.String(), nil
}
