package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/docforgehq/docforge/internal/model"
)

const (
	pdfMargin      = 50.0
	pdfLineLimit   = 120
	pdfBodySize    = 10.0
	pdfHeadingSize = 12.0
	pdfTitleSize   = 16.0
)

// PDF renders revision results as a letter-sized PDF. Long lines are
// truncated rather than wrapped so code keeps its shape.
func PDF(projectID string, results []model.DocstringResult, generatedAt time.Time) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", pdfTitleSize)
	doc.CellFormat(0, 24, fmt.Sprintf("Project %s - Documentation", projectID), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 12, "Generated at: "+formatTimestamp(generatedAt), "", 1, "L", false, 0, "")
	doc.Ln(8)

	writeBlock := func(text string, leading float64, bold bool) {
		style := ""
		size := pdfBodySize
		if bold {
			style = "B"
			size = pdfHeadingSize
		}
		doc.SetFont("Helvetica", style, size)
		lines := strings.Split(text, "\n")
		if len(lines) == 0 {
			lines = []string{""}
		}
		for _, line := range lines {
			if len(line) > pdfLineLimit {
				line = line[:pdfLineLimit]
			}
			doc.CellFormat(0, leading, line, "", 1, "L", false, 0, "")
		}
	}

	for _, r := range results {
		writeBlock(itemHeader(r), 14, true)
		if docstring := strings.TrimSpace(r.GeneratedDocstring); docstring != "" {
			writeBlock("Docstring:", 12, false)
			writeBlock(docstring, 12, false)
		}
		if code := strings.TrimSpace(r.OriginalCode); code != "" {
			writeBlock("Code:", 12, false)
			writeBlock(code, 12, false)
		}
		doc.Ln(6)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
