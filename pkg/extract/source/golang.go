package source

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

// collectGo walks a Go syntax tree and records declarations, imports and
// the file-leading annotation block.
func collectGo(root *sitter.Node, content []byte, rec *extract.FileExtraction) {
	// Architecture tags live in the comment block above the package
	// clause.
	var leading []string
	for i := uint(0); i < uint(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Kind() == "comment" {
			leading = append(leading, stripComment(child.Utf8Text(content)))
			continue
		}
		if child.Kind() == "package_clause" {
			break
		}
	}
	if len(leading) > 0 {
		extract.ParseAnnotations(strings.Join(leading, "\n"), rec)
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "function_declaration":
			name := text(n.ChildByFieldName("name"), content)
			if name != "" {
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          ir.KindFunction,
					Visibility:    goVisibility(name),
					Line:          lineFromOffset(content, n.StartByte()),
					Signature:     signatureOf(n, content),
					Documentation: docComment(n, content),
				})
			}

		case "method_declaration":
			name := text(n.ChildByFieldName("name"), content)
			receiver := goReceiverType(n.ChildByFieldName("receiver"), content)
			if name != "" {
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          ir.KindMethod,
					Visibility:    goVisibility(name),
					Parent:        receiver,
					Line:          lineFromOffset(content, n.StartByte()),
					Signature:     signatureOf(n, content),
					Documentation: docComment(n, content),
				})
			}

		case "type_declaration":
			// A declaration can group several specs: type ( A ...; B ... ).
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				spec := n.Child(i)
				if spec.Kind() != "type_spec" {
					continue
				}
				name := text(spec.ChildByFieldName("name"), content)
				if name == "" {
					continue
				}
				kind := ir.KindType
				if t := spec.ChildByFieldName("type"); t != nil {
					switch t.Kind() {
					case "struct_type":
						kind = ir.KindClass
					case "interface_type":
						kind = ir.KindInterface
					}
				}
				rec.Symbols = append(rec.Symbols, extract.Symbol{
					Name:          name,
					Kind:          kind,
					Visibility:    goVisibility(name),
					Line:          lineFromOffset(content, spec.StartByte()),
					Signature:     "type " + name,
					Documentation: docComment(n, content),
				})
			}

		case "import_declaration":
			collectGoImports(n, content, rec)
		}

		for i := uint(0); i < uint(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func collectGoImports(n *sitter.Node, content []byte, rec *extract.FileExtraction) {
	var add func(spec *sitter.Node)
	add = func(spec *sitter.Node) {
		if spec.Kind() == "import_spec" {
			if p := spec.ChildByFieldName("path"); p != nil {
				rec.Imports = append(rec.Imports, strings.Trim(text(p, content), `"`))
			}
			return
		}
		for i := uint(0); i < uint(spec.ChildCount()); i++ {
			add(spec.Child(i))
		}
	}
	add(n)
}

func goReceiverType(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Kind() != "parameter_declaration" {
			continue
		}
		if t := child.ChildByFieldName("type"); t != nil {
			return strings.TrimPrefix(text(t, content), "*")
		}
		for j := uint(0); j < uint(child.ChildCount()); j++ {
			gc := child.Child(j)
			if gc.Kind() == "type_identifier" || gc.Kind() == "pointer_type" {
				return strings.TrimPrefix(text(gc, content), "*")
			}
		}
	}
	return ""
}

func goVisibility(name string) string {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return "public"
		}
		return "private"
	}
	return "private"
}
