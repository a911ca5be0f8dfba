package plans

import (
	"testing"

	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/enums"
)

func testCatalog() *Catalog {
	return NewCatalog(config.RazorpayConfig{
		ProPlanID:     "plan_pro_123",
		ProPlusPlanID: "plan_pro_plus_456",
	})
}

func TestCatalogTiers(t *testing.T) {
	catalog := testCatalog()

	free, ok := catalog.Get(enums.SubscriptionPlanFree)
	if !ok {
		t.Fatal("free plan missing")
	}
	if free.DailyLimit != 5 || free.MonthlyLimit != UnlimitedQuota {
		t.Fatalf("unexpected free limits %+v", free)
	}
	if free.IsPaid() {
		t.Fatal("free plan must not be paid")
	}

	pro, ok := catalog.Get(enums.SubscriptionPlanPro)
	if !ok {
		t.Fatal("pro plan missing")
	}
	if pro.AmountPaise != 9900 || pro.MonthlyLimit != 200 || pro.DailyLimit != UnlimitedQuota {
		t.Fatalf("unexpected pro plan %+v", pro)
	}

	proPlus, ok := catalog.Get(enums.SubscriptionPlanProPlus)
	if !ok {
		t.Fatal("pro_plus plan missing")
	}
	if proPlus.AmountPaise != 14900 || !proPlus.IsUnlimited() {
		t.Fatalf("unexpected pro_plus plan %+v", proPlus)
	}
}

func TestCatalogPurchasableExcludesFree(t *testing.T) {
	purchasable := testCatalog().Purchasable()
	if len(purchasable) != 2 {
		t.Fatalf("expected 2 purchasable plans, got %d", len(purchasable))
	}
	for _, plan := range purchasable {
		if plan.ID == enums.SubscriptionPlanFree {
			t.Fatal("free plan must not be purchasable")
		}
	}
}

func TestCatalogFindByRazorpayPlanID(t *testing.T) {
	catalog := testCatalog()

	plan, ok := catalog.FindByRazorpayPlanID("plan_pro_123")
	if !ok || plan.ID != enums.SubscriptionPlanPro {
		t.Fatalf("expected pro plan, got %+v ok=%v", plan, ok)
	}

	if _, ok := catalog.FindByRazorpayPlanID("plan_unknown"); ok {
		t.Fatal("unknown gateway plan must not match")
	}

	// Free has no gateway plan, so an empty ID must never resolve to it.
	if _, ok := catalog.FindByRazorpayPlanID(""); ok {
		t.Fatal("empty gateway plan must not match")
	}
}
