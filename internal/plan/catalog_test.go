package plan

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGet(t *testing.T) {
	p, ok := Get("bronze")
	if !ok {
		t.Fatal("bronze plan missing from catalog")
	}
	if !p.Rate.Equal(decimal.RequireFromString("0.00000300")) {
		t.Fatalf("bronze rate = %s; want 0.00000300", p.Rate)
	}

	if _, ok := Get("titanium"); ok {
		t.Fatal("unknown plan id should not resolve")
	}
}

func TestDefaultPlanExists(t *testing.T) {
	p, ok := Get(DefaultPlanID)
	if !ok {
		t.Fatal("default plan missing")
	}
	if !p.Price.IsZero() {
		t.Fatalf("default plan price = %s; want 0", p.Price)
	}
}

func TestListIsACopy(t *testing.T) {
	l := List()
	if len(l) != 6 {
		t.Fatalf("catalog size = %d; want 6", len(l))
	}
	l[0].ID = "mutated"
	if p, _ := Get(DefaultPlanID); p.ID != DefaultPlanID {
		t.Fatal("List must not expose the backing catalog")
	}
}
