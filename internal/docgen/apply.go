package docgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docforgehq/docforge/internal/model"
)

// FileWriter writes the processed symbol inventories back to a file record.
type FileWriter interface {
	SetProcessed(ctx context.Context, fileID string, fns []model.Symbol, classes []model.ClassSymbol) error
}

// Applier materializes the current preferences into each file's processed
// inventories. Directory-excluded files get empty processed lists; the rest
// keep their raw symbols minus the per-file exclusions.
type Applier struct {
	projects ProjectStore
	files    FileStore
	writer   FileWriter
	prefs    PreferenceStore
	logger   *slog.Logger
}

// NewApplier creates an Applier over the given stores.
func NewApplier(projects ProjectStore, files FileStore, writer FileWriter, prefs PreferenceStore, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{projects: projects, files: files, writer: writer, prefs: prefs, logger: logger}
}

// Apply recomputes the processed inventories of every file in the project
// and refreshes the derived project status. The status refresh is
// best-effort; the processed writes are authoritative.
func (a *Applier) Apply(ctx context.Context, projectID string) error {
	if _, err := a.projects.GetProject(ctx, projectID); err != nil {
		return err
	}
	prefs, err := a.prefs.GetOrCreatePreferences(ctx, projectID)
	if err != nil {
		return fmt.Errorf("resolve preferences: %w", err)
	}
	files, err := a.files.ListFiles(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	if len(files) == 0 {
		return notFoundf("no files found for project %s", projectID)
	}

	perFile := buildPerFileMap(prefs.PerFileExclusion)
	for i := range files {
		f := &files[i]
		name := NormalizePath(f.Filename)

		if IsFileExcluded(name, prefs.DirectoryExclusion.ExcludeFiles, prefs.DirectoryExclusion.ExcludeDirs) {
			if err := a.writer.SetProcessed(ctx, f.ID, []model.Symbol{}, []model.ClassSymbol{}); err != nil {
				return fmt.Errorf("clear processed symbols for %s: %w", f.Filename, err)
			}
			f.ProcessedFunctions = nil
			f.ProcessedClasses = nil
			continue
		}

		ex, hasEx := perFile[name]
		fns := f.Functions
		classes := f.Classes
		if hasEx {
			fns = filterSymbols(fns, ex.functions)
			classes = filterClasses(classes, ex.classes, ex.methods)
		}
		if err := a.writer.SetProcessed(ctx, f.ID, fns, classes); err != nil {
			return fmt.Errorf("set processed symbols for %s: %w", f.Filename, err)
		}
		f.ProcessedFunctions = fns
		f.ProcessedClasses = classes
	}

	a.bestEffortStatus(ctx, projectID, files)
	return nil
}

func filterSymbols(in []model.Symbol, drop map[string]struct{}) []model.Symbol {
	out := make([]model.Symbol, 0, len(in))
	for _, s := range in {
		if _, skip := drop[s.Name]; skip {
			continue
		}
		out = append(out, s)
	}
	return out
}

func filterClasses(in []model.ClassSymbol, dropClasses, dropMethods map[string]struct{}) []model.ClassSymbol {
	out := make([]model.ClassSymbol, 0, len(in))
	for _, c := range in {
		if _, skip := dropClasses[c.Name]; skip {
			continue
		}
		kept := c
		kept.Methods = filterSymbols(c.Methods, dropMethods)
		out = append(out, kept)
	}
	return out
}

func (a *Applier) bestEffortStatus(ctx context.Context, projectID string, files []model.SourceFile) {
	status := model.DeriveProjectStatus(files)
	if err := a.projects.SetProjectStatus(ctx, projectID, status); err != nil {
		a.logger.Warn("non-critical side effect failed", "op", "refresh project status", "error", err)
	}
}
