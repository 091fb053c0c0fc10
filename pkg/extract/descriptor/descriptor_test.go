package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

const fixture = `
system:
  name: Shop
  description: Online storefront

containers:
  - name: Backend
    technology: Go
    description: API and workers

components:
  - name: Payment Service
    container: Backend
    description: Charges cards
    tags: [core]

actors:
  - name: Customer
    kind: Person
    description: Buys things
  - name: Stripe
    kind: System

relationships:
  - source: Customer
    destination: Payment Service
    description: Pays via checkout
  - source: Payment Service
    destination: Stripe
    stereotype: calls
    technology: HTTPS
`

func TestDescriptorExtract(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "archipel.yaml"), []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := New().Extract(context.Background(), extract.Job{SystemName: "Shop", BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	if out.System.Description != "Online storefront" {
		t.Errorf("System description not adopted: %+v", out.System)
	}

	if len(out.Containers) != 1 || out.Containers[0].ID != "backend" {
		t.Fatalf("Container missing: %+v", out.Containers)
	}

	if len(out.Components) != 1 {
		t.Fatalf("Component missing: %+v", out.Components)
	}
	c := out.Components[0]
	if c.ID != "payment-service" || c.ContainerID != "backend" || len(c.Tags) != 1 {
		t.Errorf("Unexpected component %+v", c)
	}

	if len(out.Actors) != 2 {
		t.Fatalf("Actors missing: %+v", out.Actors)
	}
	if out.Actors[1].Kind != ir.ActorSystem {
		t.Errorf("Stripe should be a System actor: %+v", out.Actors[1])
	}

	if len(out.Relationships) != 2 {
		t.Fatalf("Relationships missing: %+v", out.Relationships)
	}
	if out.Relationships[0].Stereotype != extract.StereotypeUses {
		t.Errorf("Default stereotype should be uses: %+v", out.Relationships[0])
	}
	if out.Relationships[1].SourceID != "payment-service" || out.Relationships[1].DestinationID != "stripe" {
		t.Errorf("Names should normalize to ids: %+v", out.Relationships[1])
	}

	if err := ir.CheckStructure(out); err != nil {
		t.Errorf("Partial IR fails structural check: %v", err)
	}
}

func TestDescriptorSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "archipel.yaml"), []byte("containers: {not: [list"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := New().Extract(context.Background(), extract.Job{SystemName: "Shop", BaseDir: dir})
	if err != nil {
		t.Fatalf("Malformed descriptor should be skipped: %v", err)
	}
	if len(out.Containers) != 0 {
		t.Errorf("Nothing should be extracted: %+v", out.Containers)
	}
}
