package docgen

import "github.com/docforgehq/docforge/internal/model"

// BuildItems flattens per-file parse results into a single documentable item
// list: every top-level function, then every class followed by its methods,
// in file order and stored symbol order. No preference filtering happens
// here; filenames are normalized so downstream comparisons line up.
func BuildItems(files []model.SourceFile) []model.Item {
	var items []model.Item
	for i := range files {
		f := &files[i]
		file := NormalizePath(f.Filename)
		for _, fn := range f.Functions {
			items = append(items, model.Item{
				Name: fn.Name,
				Type: model.ItemFunction,
				File: file,
				Code: fn.Code,
			})
		}
		for _, cls := range f.Classes {
			items = append(items, model.Item{
				Name: cls.Name,
				Type: model.ItemClass,
				File: file,
				Code: cls.Code,
			})
			for _, m := range cls.Methods {
				items = append(items, model.Item{
					Name:        m.Name,
					Type:        model.ItemMethod,
					File:        file,
					Code:        m.Code,
					ParentClass: cls.Name,
				})
			}
		}
	}
	return items
}
