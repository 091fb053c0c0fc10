package source

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

// collectECMA walks a TypeScript or JavaScript syntax tree. Both grammars
// share the node kinds this collector cares about; TypeScript adds
// interfaces and type aliases on top.
func collectECMA(root *sitter.Node, content []byte, rec *extract.FileExtraction) {
	// Annotations live in the file-leading comment block.
	var leading []string
	for i := uint(0); i < uint(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Kind() != "comment" {
			break
		}
		leading = append(leading, stripComment(child.Utf8Text(content)))
	}
	if len(leading) > 0 {
		extract.ParseAnnotations(strings.Join(leading, "\n"), rec)
	}

	var walk func(n *sitter.Node, class string)
	walk = func(n *sitter.Node, class string) {
		switch n.Kind() {
		case "export_statement":
			if decl := n.ChildByFieldName("declaration"); decl != nil {
				walk(decl, class)
			}
			return

		case "class_declaration":
			name := text(n.ChildByFieldName("name"), content)
			if name == "" {
				return
			}
			rec.Symbols = append(rec.Symbols, extract.Symbol{
				Name:          name,
				Kind:          ir.KindClass,
				Visibility:    "public",
				Line:          lineFromOffset(content, n.StartByte()),
				Signature:     signatureOf(n, content),
				Documentation: docComment(n, content),
			})
			if body := n.ChildByFieldName("body"); body != nil {
				for i := uint(0); i < uint(body.ChildCount()); i++ {
					walk(body.Child(i), name)
				}
			}
			return

		case "method_definition":
			name := text(n.ChildByFieldName("name"), content)
			if name == "" || name == "constructor" {
				return
			}
			kind := ir.KindMethod
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				k := n.Child(i).Kind()
				if k == "get" || k == "set" {
					kind = ir.KindProperty
				}
			}
			rec.Symbols = append(rec.Symbols, extract.Symbol{
				Name:          name,
				Kind:          kind,
				Visibility:    ecmaVisibility(n, name, content),
				Parent:        class,
				Line:          lineFromOffset(content, n.StartByte()),
				Signature:     signatureOf(n, content),
				Documentation: docComment(n, content),
			})
			return

		case "function_declaration":
			name := text(n.ChildByFieldName("name"), content)
			if name == "" {
				return
			}
			rec.Symbols = append(rec.Symbols, extract.Symbol{
				Name:          name,
				Kind:          ir.KindFunction,
				Visibility:    "public",
				Line:          lineFromOffset(content, n.StartByte()),
				Signature:     signatureOf(n, content),
				Documentation: docComment(n, content),
			})
			return

		case "interface_declaration":
			name := text(n.ChildByFieldName("name"), content)
			if name != "" {
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          ir.KindInterface,
					Visibility:    "public",
					Line:          lineFromOffset(content, n.StartByte()),
					Signature:     "interface " + name,
					Documentation: docComment(n, content),
				})
			}
			return

		case "type_alias_declaration":
			name := text(n.ChildByFieldName("name"), content)
			if name != "" {
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          ir.KindType,
					Visibility:    "public",
					Line:          lineFromOffset(content, n.StartByte()),
					Signature:     "type " + name,
					Documentation: docComment(n, content),
				})
			}
			return

		case "lexical_declaration":
			// const f = () => {} and friends count as functions.
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				d := n.Child(i)
				if d.Kind() != "variable_declarator" {
					continue
				}
				value := d.ChildByFieldName("value")
				if value == nil {
					continue
				}
				if k := value.Kind(); k != "arrow_function" && k != "function_expression" && k != "function" {
					continue
				}
				name := text(d.ChildByFieldName("name"), content)
				if name == "" {
					continue
				}
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          ir.KindFunction,
					Visibility:    "public",
					Line:          lineFromOffset(content, d.StartByte()),
					Signature:     signatureOf(value, content),
					Documentation: docComment(n, content),
				})
			}
			return

		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				rec.Imports = append(rec.Imports, strings.Trim(text(src, content), `"'`))
			}
			return
		}

		for i := uint(0); i < uint(n.ChildCount()); i++ {
			walk(n.Child(i), class)
		}
	}

	for i := uint(0); i < uint(root.ChildCount()); i++ {
		walk(root.Child(i), "")
	}
}

// ecmaVisibility checks for an accessibility modifier on a class member;
// an underscore prefix is treated as private by convention.
func ecmaVisibility(n *sitter.Node, name string, content []byte) string {
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		if n.Child(i).Kind() == "accessibility_modifier" {
			return text(n.Child(i), content)
		}
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		return "private"
	}
	return "public"
}
