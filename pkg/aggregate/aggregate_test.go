package aggregate

import (
	"bytes"
	"encoding/json"
	"testing"

	"archipel/pkg/ir"
)

func testSystem() ir.System {
	return ir.System{ID: "shop", Name: "Shop"}
}

func TestMergeEmptyInput(t *testing.T) {
	out := Merge(testSystem(), nil)
	if out == nil {
		t.Fatal("Merge returned nil for empty input")
	}
	if out.System.ID != "shop" {
		t.Errorf("Expected fallback system, got %q", out.System.ID)
	}
	if len(out.Containers)+len(out.Components)+len(out.CodeItems)+len(out.Actors)+len(out.Relationships) != 0 {
		t.Errorf("Expected minimal IR, got %+v", out)
	}

	// A list of empty IRs behaves the same.
	out = Merge(testSystem(), []*ir.IR{{}, nil, {}})
	if out.System.ID != "shop" {
		t.Errorf("Expected fallback system for empty parts, got %q", out.System.ID)
	}
}

func TestMergeFallbackSystemDerivesID(t *testing.T) {
	out := Merge(ir.System{Name: "Online Shop"}, nil)
	if out.System.ID != "online-shop" {
		t.Errorf("Expected derived id online-shop, got %q", out.System.ID)
	}
}

// First occurrence wins for populated fields; absent fields are backfilled
// from later duplicates.
func TestMergeFieldWidening(t *testing.T) {
	ir1 := &ir.IR{
		System:     testSystem(),
		Components: []ir.Component{{ID: "api", Name: "API", ContainerID: "backend"}},
	}
	ir2 := &ir.IR{
		System: testSystem(),
		Components: []ir.Component{
			{ID: "api", Name: "API Gateway", Description: "Routes requests", Technology: "Go", ContainerID: "backend"},
		},
		Containers: []ir.Container{{ID: "backend", Name: "Backend"}},
	}

	out := Merge(testSystem(), []*ir.IR{ir1, ir2})

	if len(out.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(out.Components))
	}
	c := out.Components[0]
	if c.Name != "API" {
		t.Errorf("First name should win, got %q", c.Name)
	}
	if c.Description != "Routes requests" {
		t.Errorf("Missing description should be widened, got %q", c.Description)
	}
	if c.Technology != "Go" {
		t.Errorf("Missing technology should be widened, got %q", c.Technology)
	}
}

// Duplicate component id plus a duplicate and a distinct
// relationship stereotype between the same endpoints.
func TestMergeScenarioDuplicateTriples(t *testing.T) {
	ir1 := &ir.IR{
		System:     testSystem(),
		Components: []ir.Component{{ID: "api", Name: "API"}, {ID: "db", Name: "DB"}},
		Relationships: []ir.Relationship{
			{SourceID: "api", DestinationID: "db", Stereotype: "uses"},
		},
	}
	ir2 := &ir.IR{
		System:     testSystem(),
		Components: []ir.Component{{ID: "api", Name: "API Gateway"}},
		Relationships: []ir.Relationship{
			{SourceID: "api", DestinationID: "db", Stereotype: "uses"},
			{SourceID: "api", DestinationID: "db", Stereotype: "deploys-to"},
		},
	}

	out := Merge(testSystem(), []*ir.IR{ir1, ir2})

	if len(out.Components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(out.Components))
	}
	if out.Components[0].Name != "API" {
		t.Errorf("First-occurrence name should win, got %q", out.Components[0].Name)
	}
	if len(out.Relationships) != 2 {
		t.Fatalf("Expected 2 relationships (uses + deploys-to), got %d", len(out.Relationships))
	}
	stereotypes := map[string]bool{}
	for _, r := range out.Relationships {
		stereotypes[r.Stereotype] = true
	}
	if !stereotypes["uses"] || !stereotypes["deploys-to"] {
		t.Errorf("Expected both stereotypes, got %v", stereotypes)
	}
}

// An edge whose destination no extractor produced is
// silently dropped.
func TestMergeDanglingRelationshipDropped(t *testing.T) {
	part := &ir.IR{
		System:     testSystem(),
		Components: []ir.Component{{ID: "web", Name: "Web"}},
		Relationships: []ir.Relationship{
			{SourceID: "web", DestinationID: "cache", Stereotype: "calls"},
		},
	}

	out := Merge(testSystem(), []*ir.IR{part})
	if len(out.Relationships) != 0 {
		t.Errorf("Dangling relationship should be dropped, got %v", out.Relationships)
	}
}

// Independent extractors inferring the same logical component from two
// different files collide on name, not id.
func TestMergeComponentNameCollision(t *testing.T) {
	ir1 := &ir.IR{
		System: testSystem(),
		Components: []ir.Component{
			{ID: "payment-service", Name: "Payment Service", ContainerID: "backend"},
		},
	}
	ir2 := &ir.IR{
		System: testSystem(),
		Components: []ir.Component{
			{ID: "paymentservice", Name: "payment service", ContainerID: "backend", Description: "Handles payments"},
		},
		CodeItems: []ir.CodeItem{
			{ID: "src_pay_py:refund", Name: "refund", Kind: ir.KindFunction, ComponentID: "paymentservice"},
		},
		Relationships: []ir.Relationship{
			{SourceID: "paymentservice", DestinationID: "payment-service", Stereotype: "calls"},
		},
	}

	out := Merge(testSystem(), []*ir.IR{ir1, ir2})

	if len(out.Components) != 1 {
		t.Fatalf("Expected name-collided components to merge, got %d", len(out.Components))
	}
	c := out.Components[0]
	if c.ID != "payment-service" {
		t.Errorf("First id should be kept, got %q", c.ID)
	}
	if c.Description != "Handles payments" {
		t.Errorf("Description should be widened from the duplicate, got %q", c.Description)
	}

	// Code items referencing the discarded id are rewired.
	if len(out.CodeItems) != 1 || out.CodeItems[0].ComponentID != "payment-service" {
		t.Errorf("Code item componentId should be rewritten, got %+v", out.CodeItems)
	}

	// A self-edge created by the alias collapse still dedups by triple.
	for _, r := range out.Relationships {
		if r.SourceID != "payment-service" || r.DestinationID != "payment-service" {
			t.Errorf("Relationship endpoints should be rewritten, got %+v", r)
		}
	}
}

func TestMergeNoDuplicateIDs(t *testing.T) {
	parts := []*ir.IR{
		{
			System:     testSystem(),
			Containers: []ir.Container{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
			Actors:     []ir.Actor{{ID: "user", Name: "User", Kind: ir.ActorPerson}},
		},
		{
			System:     testSystem(),
			Containers: []ir.Container{{ID: "a", Name: "A2"}, {ID: "c", Name: "C"}},
			Actors:     []ir.Actor{{ID: "user", Name: "User", Kind: ir.ActorPerson}},
		},
	}

	out := Merge(testSystem(), parts)

	seen := map[string]bool{}
	for _, c := range out.Containers {
		if seen[c.ID] {
			t.Errorf("Duplicate container id %q", c.ID)
		}
		seen[c.ID] = true
	}
	if len(out.Containers) != 3 {
		t.Errorf("Expected 3 containers, got %d", len(out.Containers))
	}
	if len(out.Actors) != 1 {
		t.Errorf("Expected 1 actor, got %d", len(out.Actors))
	}
}

func TestMergeDeploymentsAndInstances(t *testing.T) {
	parts := []*ir.IR{
		{
			System:     testSystem(),
			Containers: []ir.Container{{ID: "api", Name: "API"}},
			Deployments: []ir.Deployment{
				{ID: "deploy-prod", Name: "prod", Environment: "prod",
					Nodes: []ir.DeploymentNode{{ID: "node-1", Name: "node-1"}}},
			},
			ContainerInstances: []ir.ContainerInstance{
				{ContainerID: "api", Environment: "prod", Replicas: 2},
				{ContainerID: "ghost", Environment: "prod"},
			},
		},
		{
			System: testSystem(),
			Deployments: []ir.Deployment{
				{ID: "deploy-prod", Name: "prod", Environment: "prod",
					Nodes: []ir.DeploymentNode{{ID: "node-1", Name: "node-1"}, {ID: "node-2", Name: "node-2"}}},
			},
			ContainerInstances: []ir.ContainerInstance{
				{ContainerID: "api", Environment: "prod", Replicas: 4},
			},
		},
	}

	out := Merge(testSystem(), parts)

	if len(out.Deployments) != 1 {
		t.Fatalf("Expected 1 deployment, got %d", len(out.Deployments))
	}
	if len(out.Deployments[0].Nodes) != 2 {
		t.Errorf("Expected node union of 2, got %d", len(out.Deployments[0].Nodes))
	}
	if len(out.ContainerInstances) != 1 {
		t.Fatalf("Expected 1 instance (ghost dropped, dup collapsed), got %d", len(out.ContainerInstances))
	}
	if out.ContainerInstances[0].Replicas != 2 {
		t.Errorf("First replicas value should win, got %d", out.ContainerInstances[0].Replicas)
	}
}

// Aggregating the same ordered input twice must be byte-for-byte identical.
func TestMergeDeterminism(t *testing.T) {
	parts := []*ir.IR{
		{
			System:     ir.System{ID: "shop", Name: "Shop", Description: "storefront"},
			Containers: []ir.Container{{ID: "web", Name: "Web"}, {ID: "api", Name: "API"}},
			Components: []ir.Component{
				{ID: "checkout", Name: "Checkout", ContainerID: "web"},
				{ID: "cart", Name: "Cart", ContainerID: "web"},
			},
			Relationships: []ir.Relationship{
				{SourceID: "checkout", DestinationID: "cart", Stereotype: "uses"},
				{SourceID: "cart", DestinationID: "api", Stereotype: "calls"},
			},
		},
		{
			System:     ir.System{ID: "shop", Name: "Shop"},
			Components: []ir.Component{{ID: "cart", Name: "Cart v2", Description: "basket"}},
			Actors:     []ir.Actor{{ID: "shopper", Name: "Shopper", Kind: ir.ActorPerson}},
			Relationships: []ir.Relationship{
				{SourceID: "shopper", DestinationID: "checkout", Stereotype: "uses"},
			},
		},
	}

	first, err := json.Marshal(Merge(testSystem(), parts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Merge(testSystem(), parts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Merge is not deterministic:\n%s\n%s", first, second)
	}
}

// The output must not retain references into the inputs.
func TestMergeCopiesInputs(t *testing.T) {
	part := &ir.IR{
		System:     testSystem(),
		Containers: []ir.Container{{ID: "api", Name: "API", Tags: []string{"go"}}},
	}

	out := Merge(testSystem(), []*ir.IR{part})
	part.Containers[0].Name = "mutated"
	part.Containers[0].Tags[0] = "mutated"

	if out.Containers[0].Name != "API" {
		t.Errorf("Output shares container struct with input")
	}
	if out.Containers[0].Tags[0] != "go" {
		t.Errorf("Output shares tag slice with input")
	}
}

func TestMergeOutputIsWellFormed(t *testing.T) {
	parts := []*ir.IR{
		{
			System:     testSystem(),
			Components: []ir.Component{{ID: "api", Name: "API"}},
			Relationships: []ir.Relationship{
				{SourceID: "api", DestinationID: "shop", Stereotype: "part-of"},
			},
		},
	}

	out := Merge(testSystem(), parts)
	if err := ir.CheckStructure(out); err != nil {
		t.Errorf("Aggregated IR fails structural check: %v", err)
	}
	// Relationship to the system id resolves: the system is addressable.
	if len(out.Relationships) != 1 {
		t.Errorf("Relationship to system should be kept, got %d", len(out.Relationships))
	}
}
