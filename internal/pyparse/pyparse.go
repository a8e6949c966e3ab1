// Package pyparse provides tree-sitter-based Python source parsing. It
// extracts top-level function definitions (including async), classes, and
// their methods, each with the exact source snippet needed for docstring
// generation.
package pyparse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/docforgehq/docforge/internal/model"
)

// Parser wraps a tree-sitter parser configured for Python.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{inner: p}
}

// ParseSource extracts top-level functions and classes (with their methods)
// from Python source. Nested functions are not reported; a function defined
// inside another function belongs to its enclosing symbol's code snippet.
func (p *Parser) ParseSource(source []byte) ([]model.Symbol, []model.ClassSymbol, error) {
	tree, err := p.inner.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, nil, fmt.Errorf("parse python source: %w", err)
	}
	defer tree.Close()

	var functions []model.Symbol
	var classes []model.ClassSymbol

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		node := unwrapDecorated(root.Child(i))
		if node == nil {
			continue
		}
		switch node.Type() {
		case "function_definition":
			if name := nodeName(node, source); name != "" {
				functions = append(functions, model.Symbol{
					Name: name,
					Code: node.Content(source),
				})
			}
		case "class_definition":
			if cls := extractClass(node, source); cls.Name != "" {
				classes = append(classes, cls)
			}
		}
	}
	return functions, classes, nil
}

// extractClass builds a ClassSymbol from a class_definition node, collecting
// the methods defined directly in the class body.
func extractClass(node *sitter.Node, source []byte) model.ClassSymbol {
	cls := model.ClassSymbol{
		Name: nodeName(node, source),
		Code: node.Content(source),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := unwrapDecorated(body.Child(i))
		if child == nil || child.Type() != "function_definition" {
			continue
		}
		name := nodeName(child, source)
		if name == "" {
			continue
		}
		cls.Methods = append(cls.Methods, model.Symbol{
			Name: name,
			Code: child.Content(source),
		})
	}
	return cls
}

// unwrapDecorated steps into decorated_definition nodes so decorated
// functions and classes are handled like their undecorated forms. The
// returned snippet starts at the def/class keyword, not the decorators.
func unwrapDecorated(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "decorated_definition" {
		if def := node.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return node
}

func nodeName(node *sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Content(source)
}
