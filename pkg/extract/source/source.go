// Package source extracts architecture facts from general-purpose language
// source files using tree-sitter grammars. One Extractor instance handles
// one language; all of them share the phase-2 mapper in pkg/extract.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

// collector walks a parsed tree and fills the raw fact record.
type collector func(root *sitter.Node, content []byte, rec *extract.FileExtraction)

type grammar struct {
	name    string
	exts    []string
	lang    *sitter.Language
	collect collector
}

// Extractor is a tree-sitter based extractor for one language.
type Extractor struct {
	g grammar
}

// Go returns an extractor for Go source files.
func Go() *Extractor {
	return &Extractor{grammar{
		name:    "go",
		exts:    []string{".go"},
		lang:    sitter.NewLanguage(golang.Language()),
		collect: collectGo,
	}}
}

// Python returns an extractor for Python source files.
func Python() *Extractor {
	return &Extractor{grammar{
		name:    "python",
		exts:    []string{".py"},
		lang:    sitter.NewLanguage(python.Language()),
		collect: collectPython,
	}}
}

// TypeScript returns an extractor for TypeScript source files.
func TypeScript() *Extractor {
	return &Extractor{grammar{
		name:    "typescript",
		exts:    []string{".ts", ".tsx"},
		lang:    sitter.NewLanguage(typescript.LanguageTypescript()),
		collect: collectECMA,
	}}
}

// JavaScript returns an extractor for JavaScript source files.
func JavaScript() *Extractor {
	return &Extractor{grammar{
		name:    "javascript",
		exts:    []string{".js", ".jsx", ".mjs"},
		lang:    sitter.NewLanguage(javascript.Language()),
		collect: collectECMA,
	}}
}

func (e *Extractor) Name() string {
	return "source/" + e.g.name
}

// Extract discovers matching files, parses each one, and maps the raw
// records into a partial IR. A file that fails to read or parse
// contributes an empty record; it never aborts the rest of the tree.
func (e *Extractor) Extract(ctx context.Context, job extract.Job) (*ir.IR, error) {
	include := job.Include
	if len(include) == 0 {
		for _, ext := range e.g.exts {
			include = append(include, "**/*"+ext)
		}
	}

	files, err := extract.FindFiles(job.BaseDir, include, job.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering files for %s: %w", e.Name(), err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(e.g.lang); err != nil {
		return nil, fmt.Errorf("grammar for %s: %w", e.Name(), err)
	}

	recs := make([]extract.FileExtraction, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.handles(rel) {
			continue
		}

		rec := extract.FileExtraction{RelPath: rel}
		content, err := os.ReadFile(filepath.Join(job.BaseDir, filepath.FromSlash(rel)))
		if err != nil {
			logWarn(job, e.Name(), rel, err)
			recs = append(recs, rec)
			continue
		}

		if err := e.parseFile(parser, content, &rec); err != nil {
			logWarn(job, e.Name(), rel, err)
			rec = extract.FileExtraction{RelPath: rel}
		}
		recs = append(recs, rec)
	}

	return extract.NewMapper(job).MapFiles(recs), nil
}

// handles guards against include globs pulling in files of another
// language when the configuration is broader than the extractor.
func (e *Extractor) handles(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, want := range e.g.exts {
		if ext == want {
			return true
		}
	}
	return false
}

func (e *Extractor) parseFile(parser *sitter.Parser, content []byte, rec *extract.FileExtraction) error {
	tree := parser.Parse(content, nil)
	if tree == nil {
		return fmt.Errorf("failed to parse tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("empty root node")
	}

	e.g.collect(root, content, rec)
	return nil
}

func logWarn(job extract.Job, extractor, rel string, err error) {
	if job.Logger == nil {
		return
	}
	job.Logger.Warn().
		Str("extractor", extractor).
		Str("file", rel).
		Err(err).
		Msg("skipping file")
}

// lineFromOffset calculates line number from byte offset.
func lineFromOffset(content []byte, offset uint) int {
	if int(offset) >= len(content) {
		return 0
	}
	return strings.Count(string(content[:offset]), "\n") + 1
}

func text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Utf8Text(content))
}

// docComment joins the comment siblings immediately preceding a node.
func docComment(n *sitter.Node, content []byte) string {
	var comments []string
	prev := n.PrevSibling()
	for prev != nil && prev.Kind() == "comment" {
		comments = append([]string{stripComment(prev.Utf8Text(content))}, comments...)
		prev = prev.PrevSibling()
	}
	return strings.Join(comments, "\n")
}

// stripComment removes comment markers while keeping the text layout.
func stripComment(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/*") {
		s = strings.TrimPrefix(s, "/**")
		s = strings.TrimPrefix(s, "/*")
		s = strings.TrimSuffix(s, "*/")
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "*")
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// signatureOf returns the declaration text up to the body block.
func signatureOf(n *sitter.Node, content []byte) string {
	body := n.ChildByFieldName("body")
	full := n.Utf8Text(content)
	if body != nil {
		bodyText := body.Utf8Text(content)
		if idx := strings.Index(full, bodyText); idx != -1 {
			return strings.TrimSpace(full[:idx])
		}
	}
	if idx := strings.Index(full, "\n"); idx != -1 {
		return strings.TrimSpace(full[:idx])
	}
	return strings.TrimSpace(full)
}
