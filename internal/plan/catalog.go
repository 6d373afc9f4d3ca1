package plan

import (
	"cloudmine_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultPlanID is the plan every user mines on until they purchase a tier.
const DefaultPlanID = "free"

var catalog = []domain.Plan{
	{
		ID:          "free",
		Name:        "Free Plan",
		Rate:        decimal.RequireFromString("0.00000100"),
		Price:       decimal.Zero,
		Description: "Start mining with basic rate",
	},
	{
		ID:          "bronze",
		Name:        "Bronze Plan",
		Rate:        decimal.RequireFromString("0.00000300"),
		Price:       decimal.NewFromInt(10),
		Description: "3x faster mining rate",
	},
	{
		ID:          "gold",
		Name:        "Gold Plan",
		Rate:        decimal.RequireFromString("0.00000400"),
		Price:       decimal.NewFromInt(20),
		Description: "4x faster mining rate",
	},
	{
		ID:          "platinum",
		Name:        "Platinum Plan",
		Rate:        decimal.RequireFromString("0.00000600"),
		Price:       decimal.NewFromInt(30),
		Description: "6x faster mining rate",
	},
	{
		ID:          "diamond",
		Name:        "Diamond Plan",
		Rate:        decimal.RequireFromString("0.00000800"),
		Price:       decimal.NewFromInt(40),
		Description: "8x faster mining rate",
	},
	{
		ID:          "elite",
		Name:        "Elite Plan",
		Rate:        decimal.RequireFromString("0.00001000"),
		Price:       decimal.NewFromInt(50),
		Description: "10x faster mining rate",
	},
}

// Get looks up a plan by id.
func Get(id string) (domain.Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Plan{}, false
}

// List returns the full catalog in display order.
func List() []domain.Plan {
	out := make([]domain.Plan, len(catalog))
	copy(out, catalog)
	return out
}
