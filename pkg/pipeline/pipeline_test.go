package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// fakeExtractor returns a canned partial IR, or an error.
type fakeExtractor struct {
	name string
	out  *ir.IR
	err  error
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(ctx context.Context, job extract.Job) (*ir.IR, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func testConfig(names ...string) Config {
	cfg := Config{System: SystemConfig{Name: "Shop"}}
	for _, n := range names {
		cfg.Extractors = append(cfg.Extractors, ExtractorConfig{Name: n})
	}
	return cfg
}

func TestRunMergesInConfigOrder(t *testing.T) {
	first := &fakeExtractor{name: "fake/a", out: &ir.IR{
		System:     ir.System{ID: "shop", Name: "Shop"},
		Components: []ir.Component{{ID: "api", Name: "API"}},
	}}
	second := &fakeExtractor{name: "fake/b", out: &ir.IR{
		System:     ir.System{ID: "shop", Name: "Shop"},
		Components: []ir.Component{{ID: "api", Name: "API Gateway", Description: "fronts the api"}},
	}}

	p := New(testConfig("fake/a", "fake/b"), nil)
	p.Register(first)
	p.Register(second)

	out, err := p.Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Components) != 1 {
		t.Fatalf("Expected 1 component, got %+v", out.Components)
	}
	if out.Components[0].Name != "API" {
		t.Errorf("Configuration order decides the winner, got %q", out.Components[0].Name)
	}
	if out.Components[0].Description != "fronts the api" {
		t.Errorf("Later description should widen, got %q", out.Components[0].Description)
	}
}

func TestRunToleratesExtractorFailure(t *testing.T) {
	ok := &fakeExtractor{name: "fake/ok", out: &ir.IR{
		System: ir.System{ID: "shop", Name: "Shop"},
		Actors: []ir.Actor{{ID: "user", Name: "User", Kind: ir.ActorPerson}},
	}}
	bad := &fakeExtractor{name: "fake/bad", err: fmt.Errorf("boom")}

	p := New(testConfig("fake/bad", "fake/ok"), nil)
	p.Register(ok)
	p.Register(bad)

	out, err := p.Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("A failing extractor must not fail the run: %v", err)
	}
	if len(out.Actors) != 1 {
		t.Errorf("Surviving extractor output missing: %+v", out.Actors)
	}
}

func TestRunUnknownExtractorSkipped(t *testing.T) {
	p := New(testConfig("no/such"), nil)
	out, err := p.Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if out.System.ID != "shop" {
		t.Errorf("Minimal IR expected, got %+v", out.System)
	}
}

func TestRunDeterministic(t *testing.T) {
	mk := func() *Pipeline {
		p := New(testConfig("fake/a", "fake/b"), nil)
		p.Register(&fakeExtractor{name: "fake/a", out: &ir.IR{
			System:     ir.System{ID: "shop", Name: "Shop"},
			Components: []ir.Component{{ID: "cart", Name: "Cart"}, {ID: "api", Name: "API"}},
			Relationships: []ir.Relationship{
				{SourceID: "cart", DestinationID: "api", Stereotype: "calls"},
			},
		}})
		p.Register(&fakeExtractor{name: "fake/b", out: &ir.IR{
			System: ir.System{ID: "shop", Name: "Shop"},
			Actors: []ir.Actor{{ID: "shopper", Name: "Shopper", Kind: ir.ActorPerson}},
		}})
		return p
	}

	a, err := mk().Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b, err := mk().Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Errorf("Pipeline output not deterministic:\n%s\n%s", ja, jb)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig("descriptor"), nil)
	if _, err := p.Run(ctx, t.TempDir()); err == nil {
		t.Error("Cancelled context should abort the run")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/archipel.config.yaml"
	cfg := `
system:
  name: Shop
  description: storefront
extractors:
  - name: source/go
    include: ["backend/**/*.go"]
    container: Backend
    technology: Go
  - name: compose
`
	if err := writeFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.System.Name != "Shop" || len(loaded.Extractors) != 2 {
		t.Fatalf("Unexpected config %+v", loaded)
	}
	if loaded.Extractors[0].Container != "Backend" {
		t.Errorf("Extractor fields not parsed: %+v", loaded.Extractors[0])
	}
}

func TestLoadConfigRequiresSystemName(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.yaml"
	if err := writeFile(path, "extractors: []"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Config without system.name should fail")
	}
}
