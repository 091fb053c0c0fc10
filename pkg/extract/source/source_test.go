package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archipel/pkg/extract"
	"archipel/pkg/ir"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func findItem(items []ir.CodeItem, name string) *ir.CodeItem {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}

const goFixture = `// @module Gateway
// @description Fronts the public API
// @actor Client {System} {in} Calls the API

package gw

// Router dispatches requests.
type Router struct{}

// Handle routes one request.
func (r *Router) Handle() error { return nil }

func newRouter() *Router { return &Router{} }
`

func TestGoExtractor(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gw/router.go", goFixture)

	out, err := Go().Extract(context.Background(), extract.Job{
		SystemName:    "Shop",
		BaseDir:       dir,
		ContainerName: "Backend",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Components) != 1 || out.Components[0].ID != "gateway" {
		t.Fatalf("Expected gateway component, got %+v", out.Components)
	}
	if out.Components[0].Description != "Fronts the public API" {
		t.Errorf("Description not mapped: %+v", out.Components[0])
	}

	router := findItem(out.CodeItems, "Router")
	if router == nil || router.Kind != ir.KindClass || router.Visibility != "public" {
		t.Fatalf("Router not extracted: %+v", out.CodeItems)
	}
	if router.Documentation == "" {
		t.Errorf("Router doc comment missing")
	}

	handle := findItem(out.CodeItems, "Handle")
	if handle == nil || handle.Kind != ir.KindMethod {
		t.Fatalf("Handle not extracted: %+v", out.CodeItems)
	}
	if handle.ParentID != router.ID {
		t.Errorf("Handle should nest under Router: %q vs %q", handle.ParentID, router.ID)
	}

	if nr := findItem(out.CodeItems, "newRouter"); nr == nil || nr.Visibility != "private" {
		t.Errorf("newRouter should be private, got %+v", nr)
	}

	if len(out.Actors) != 1 || out.Actors[0].ID != "client" || out.Actors[0].Kind != ir.ActorSystem {
		t.Fatalf("Client actor missing: %+v", out.Actors)
	}
	foundIn := false
	for _, r := range out.Relationships {
		if r.SourceID == "client" && r.DestinationID == "gateway" {
			foundIn = true
		}
		if r.SourceID == "gateway" && r.DestinationID == "client" {
			t.Error("Direction 'in' must not produce component -> actor")
		}
	}
	if !foundIn {
		t.Errorf("client -> gateway edge missing: %+v", out.Relationships)
	}
}

const pyFixture = `"""
Payment processing.

@module PaymentService
@description Processes payments
@uses Database Stores transaction records
"""


class PaymentProcessor:
    """Process payments and refunds."""

    def process_payment(self, request):
        """Process a payment request."""
        return {}

    @property
    def status(self):
        """Current processor status."""
        return "ok"


def _helper():
    return None
`

func TestPythonExtractor(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "src/payments/service.py", pyFixture)

	out, err := Python().Extract(context.Background(), extract.Job{
		SystemName: "Shop",
		BaseDir:    dir,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Components) != 1 || out.Components[0].ID != "paymentservice" {
		t.Fatalf("Expected paymentservice component, got %+v", out.Components)
	}

	cls := findItem(out.CodeItems, "PaymentProcessor")
	if cls == nil || cls.Kind != ir.KindClass {
		t.Fatalf("PaymentProcessor not extracted: %+v", out.CodeItems)
	}
	if cls.Documentation != "Process payments and refunds." {
		t.Errorf("Class docstring not captured: %q", cls.Documentation)
	}

	m := findItem(out.CodeItems, "process_payment")
	if m == nil || m.Kind != ir.KindMethod || m.ParentID != cls.ID {
		t.Fatalf("process_payment not nested: %+v", m)
	}

	if p := findItem(out.CodeItems, "status"); p == nil || p.Kind != ir.KindProperty {
		t.Errorf("@property should map to a property, got %+v", p)
	}

	if h := findItem(out.CodeItems, "_helper"); h == nil || h.Visibility != "private" {
		t.Errorf("_helper should be private, got %+v", h)
	}

	// The @uses edge dangles here; the mapper still emits it.
	foundUses := false
	for _, r := range out.Relationships {
		if r.SourceID == "paymentservice" && r.DestinationID == "database" && r.Stereotype == extract.StereotypeUses {
			foundUses = true
		}
	}
	if !foundUses {
		t.Errorf("uses edge missing: %+v", out.Relationships)
	}
}

const tsFixture = `/**
 * Cart UI.
 *
 * @module CartView
 * @description Renders the cart
 */

export interface CartItem {
  id: string;
}

export class CartController {
  private refresh(): void {}

  render(): void {}
}

export function formatPrice(cents: number): string {
  return "" + cents;
}

const sum = (a: number, b: number) => a + b;
`

func TestTypeScriptExtractor(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "web/cart.ts", tsFixture)

	out, err := TypeScript().Extract(context.Background(), extract.Job{
		SystemName: "Shop",
		BaseDir:    dir,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Components) != 1 || out.Components[0].ID != "cartview" {
		t.Fatalf("Expected cartview component, got %+v", out.Components)
	}

	if i := findItem(out.CodeItems, "CartItem"); i == nil || i.Kind != ir.KindInterface {
		t.Errorf("CartItem interface missing, got %+v", i)
	}
	cls := findItem(out.CodeItems, "CartController")
	if cls == nil || cls.Kind != ir.KindClass {
		t.Fatalf("CartController missing: %+v", out.CodeItems)
	}
	if m := findItem(out.CodeItems, "refresh"); m == nil || m.Visibility != "private" || m.ParentID != cls.ID {
		t.Errorf("refresh should be a private member, got %+v", m)
	}
	if f := findItem(out.CodeItems, "formatPrice"); f == nil || f.Kind != ir.KindFunction {
		t.Errorf("formatPrice missing, got %+v", f)
	}
	if f := findItem(out.CodeItems, "sum"); f == nil || f.Kind != ir.KindFunction {
		t.Errorf("arrow function sum missing, got %+v", f)
	}
}

// A file the grammar cannot read must not abort the rest of the tree.
func TestExtractToleratesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "src/ok.py", `"""@module Good"""`)
	writeFixture(t, dir, "src/broken.py", string([]byte{0xff, 0xfe, 0x00}))

	out, err := Python().Extract(context.Background(), extract.Job{
		SystemName: "Shop",
		BaseDir:    dir,
	})
	if err != nil {
		t.Fatalf("Broken file should not fail the extractor: %v", err)
	}
	for _, c := range out.Components {
		if c.ID == "good" {
			return
		}
	}
	t.Errorf("Good component missing despite broken sibling: %+v", out.Components)
}
