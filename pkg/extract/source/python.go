package source

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

// collectPython walks a Python syntax tree. The module docstring carries
// the annotation block; class and function docstrings become symbol
// documentation.
func collectPython(root *sitter.Node, content []byte, rec *extract.FileExtraction) {
	if doc := pyDocstring(root, content); doc != "" {
		extract.ParseAnnotations(doc, rec)
	}

	var walk func(n *sitter.Node, class string, decorators []string)
	walk = func(n *sitter.Node, class string, decorators []string) {
		switch n.Kind() {
		case "decorated_definition":
			var decs []string
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Kind() == "decorator" {
					decs = append(decs, strings.TrimPrefix(text(child, content), "@"))
				}
			}
			if def := n.ChildByFieldName("definition"); def != nil {
				walk(def, class, decs)
			}
			return

		case "class_definition":
			name := text(n.ChildByFieldName("name"), content)
			if name == "" {
				return
			}
			rec.Symbols = append(rec.Symbols, extract.Symbol{
				Name:          name,
				Kind:          ir.KindClass,
				Visibility:    pyVisibility(name),
				Line:          lineFromOffset(content, n.StartByte()),
				Signature:     signatureOf(n, content),
				Documentation: pyDocstring(n.ChildByFieldName("body"), content),
			})
			if body := n.ChildByFieldName("body"); body != nil {
				for i := uint(0); i < uint(body.ChildCount()); i++ {
					walk(body.Child(i), name, nil)
				}
			}
			return

		case "function_definition":
			name := text(n.ChildByFieldName("name"), content)
			if name == "" {
				return
			}
			kind := ir.KindFunction
			if class != "" {
				kind = ir.KindMethod
			}
			for _, d := range decorators {
				if d == "property" || strings.HasSuffix(d, ".setter") {
					kind = ir.KindProperty
				}
			}
			rec.Symbols = append(rec.Symbols, extract.Symbol{
				Name:          name,
				Kind:          kind,
				Visibility:    pyVisibility(name),
				Parent:        class,
				Line:          lineFromOffset(content, n.StartByte()),
				Signature:     signatureOf(n, content),
				Documentation: pyDocstring(n.ChildByFieldName("body"), content),
			})
			return

		case "import_statement", "import_from_statement":
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Kind() == "dotted_name" || child.Kind() == "aliased_import" {
					rec.Imports = append(rec.Imports, text(child, content))
					break
				}
			}
		}

		for i := uint(0); i < uint(n.ChildCount()); i++ {
			walk(n.Child(i), class, nil)
		}
	}

	for i := uint(0); i < uint(root.ChildCount()); i++ {
		walk(root.Child(i), "", nil)
	}
}

// pyDocstring returns the leading string literal of a module or block,
// with quotes stripped.
func pyDocstring(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Kind() == "comment" {
			continue
		}
		if child.Kind() != "expression_statement" {
			return ""
		}
		for j := uint(0); j < uint(child.ChildCount()); j++ {
			if s := child.Child(j); s.Kind() == "string" {
				return stripPyQuotes(s.Utf8Text(content))
			}
		}
		return ""
	}
	return ""
}

func stripPyQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return s
}

func pyVisibility(name string) string {
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__init__") {
		return "private"
	}
	return "public"
}
