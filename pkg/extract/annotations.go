package extract

import (
	"regexp"
	"strings"
)

// Annotation grammar understood in leading comments and docstrings:
//
//	@module Name
//	@description free text
//	@tags a, b, c
//	@actor Name {Person|System} {in|out|both} description
//	@uses Target description
var (
	actorRe = regexp.MustCompile(`^@actor\s+(\S+)(?:\s+\{(\w+)\})?(?:\s+\{(\w+)\})?\s*(.*)$`)
	usesRe  = regexp.MustCompile(`^@uses\s+(\S+)\s*(.*)$`)
)

// ParseAnnotations scans a documentation block for architecture tags and
// fills the annotation fields of the record. Lines before the first tag
// are left alone; a @module tag without a name is ignored.
func ParseAnnotations(doc string, rec *FileExtraction) {
	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "@module"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "@module"))
			if name != "" {
				if rec.Module == nil {
					rec.Module = &ModuleDecl{}
				}
				rec.Module.Name = name
			}

		case strings.HasPrefix(line, "@description"):
			desc := strings.TrimSpace(strings.TrimPrefix(line, "@description"))
			if rec.Module == nil {
				rec.Module = &ModuleDecl{}
			}
			if rec.Module.Description == "" {
				rec.Module.Description = desc
			}

		case strings.HasPrefix(line, "@tags"):
			if rec.Module == nil {
				rec.Module = &ModuleDecl{}
			}
			for _, tag := range strings.Split(strings.TrimPrefix(line, "@tags"), ",") {
				if t := strings.TrimSpace(tag); t != "" {
					rec.Module.Tags = append(rec.Module.Tags, t)
				}
			}

		case strings.HasPrefix(line, "@actor"):
			if m := actorRe.FindStringSubmatch(line); m != nil {
				rec.Actors = append(rec.Actors, ActorDecl{
					Name:        m[1],
					Kind:        m[2],
					Direction:   strings.ToLower(m[3]),
					Description: strings.TrimSpace(m[4]),
				})
			}

		case strings.HasPrefix(line, "@uses"):
			if m := usesRe.FindStringSubmatch(line); m != nil {
				rec.Uses = append(rec.Uses, UsesDecl{
					Target:      m[1],
					Description: strings.TrimSpace(m[2]),
				})
			}
		}
	}
}
