package plans

import (
	"strings"

	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/enums"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// UnlimitedQuota marks a plan dimension with no cap.
const UnlimitedQuota = -1

// Plan describes a subscription tier and its quota dimensions.
type Plan struct {
	ID          enums.SubscriptionPlan
	Name        string
	Description string
	// Price is the monthly price in rupees; AmountPaise is what the gateway charges.
	Price       decimal.Decimal
	AmountPaise int64
	Currency    string
	// DailyLimit / MonthlyLimit are UnlimitedQuota when the dimension has no cap.
	DailyLimit   int
	MonthlyLimit int
	Features     pq.StringArray
	// RazorpayPlanID is empty for tiers that are not purchasable.
	RazorpayPlanID string
}

// IsPaid reports whether the plan requires a gateway subscription.
func (p Plan) IsPaid() bool {
	return p.AmountPaise > 0
}

// IsUnlimited reports whether the plan has no usage cap at all.
func (p Plan) IsUnlimited() bool {
	return p.DailyLimit == UnlimitedQuota && p.MonthlyLimit == UnlimitedQuota
}

// Catalog is the static plan directory. Gateway plan IDs come from config
// so each environment can point at its own Razorpay plans.
type Catalog struct {
	plans map[enums.SubscriptionPlan]Plan
	order []enums.SubscriptionPlan
}

// NewCatalog builds the catalog with the three supported tiers.
func NewCatalog(cfg config.RazorpayConfig) *Catalog {
	free := Plan{
		ID:           enums.SubscriptionPlanFree,
		Name:         "Free Plan",
		Description:  "Up to 5 debugs per day",
		Price:        decimal.Zero,
		AmountPaise:  0,
		Currency:     "INR",
		DailyLimit:   5,
		MonthlyLimit: UnlimitedQuota,
		Features:     pq.StringArray{"5 debugs per day", "Debug history"},
	}
	pro := Plan{
		ID:             enums.SubscriptionPlanPro,
		Name:           "Pro Plan",
		Description:    "Up to 200 debugs per month",
		Price:          decimal.NewFromInt(99),
		AmountPaise:    9900,
		Currency:       "INR",
		DailyLimit:     UnlimitedQuota,
		MonthlyLimit:   200,
		Features:       pq.StringArray{"200 debugs per month", "Debug history", "Priority support"},
		RazorpayPlanID: strings.TrimSpace(cfg.ProPlanID),
	}
	proPlus := Plan{
		ID:             enums.SubscriptionPlanProPlus,
		Name:           "Pro Plus Plan",
		Description:    "Unlimited debugs",
		Price:          decimal.NewFromInt(149),
		AmountPaise:    14900,
		Currency:       "INR",
		DailyLimit:     UnlimitedQuota,
		MonthlyLimit:   UnlimitedQuota,
		Features:       pq.StringArray{"Unlimited debugs", "Debug history", "Priority support"},
		RazorpayPlanID: strings.TrimSpace(cfg.ProPlusPlanID),
	}

	return &Catalog{
		plans: map[enums.SubscriptionPlan]Plan{
			free.ID:    free,
			pro.ID:     pro,
			proPlus.ID: proPlus,
		},
		order: []enums.SubscriptionPlan{free.ID, pro.ID, proPlus.ID},
	}
}

// Get returns the plan for the given tier.
func (c *Catalog) Get(id enums.SubscriptionPlan) (Plan, bool) {
	plan, ok := c.plans[id]
	return plan, ok
}

// Purchasable lists the paid tiers in display order.
func (c *Catalog) Purchasable() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		if plan := c.plans[id]; plan.IsPaid() {
			out = append(out, plan)
		}
	}
	return out
}

// All lists every tier in display order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// FindByRazorpayPlanID maps a gateway plan back to a tier. Free is never
// purchasable, so an empty gateway plan ID never matches.
func (c *Catalog) FindByRazorpayPlanID(razorpayPlanID string) (Plan, bool) {
	trimmed := strings.TrimSpace(razorpayPlanID)
	if trimmed == "" {
		return Plan{}, false
	}
	for _, id := range c.order {
		plan := c.plans[id]
		if plan.RazorpayPlanID != "" && plan.RazorpayPlanID == trimmed {
			return plan, true
		}
	}
	return Plan{}, false
}
