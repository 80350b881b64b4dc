package summary

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeys(t *testing.T) {
	if got := Key("A01", "2330"); got != "summary:A01:2330" {
		t.Errorf("Key = %q", got)
	}
	if got := AllKey("2330"); got != "summary:ALL:2330" {
		t.Errorf("AllKey = %q", got)
	}
}

// The S2 seed scenario: a full H01 snapshot with zero short fields.
func s2Summary() *Summary {
	return &Summary{
		StockID:                       "2330",
		AreaCenter:                    "A01",
		MarginAmount:                  1000000,
		MarginBuyOrderAmount:          200000,
		MarginSellMatchAmount:         50000,
		MarginQty:                     100,
		MarginBuyOrderQty:             20,
		MarginSellMatchQty:            5,
		MarginBuyMatchAmount:          150000,
		MarginBuyMatchQty:             15,
		MarginAfterHourBuyOrderAmount: 30000,
		MarginAfterHourBuyOrderQty:    3,
	}
}

func TestRecomputeS2(t *testing.T) {
	s := s2Summary()
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if s.MarginAvailableAmount != 850000 {
		t.Errorf("MarginAvailableAmount = %d, want 850000", s.MarginAvailableAmount)
	}
	if s.MarginAvailableQty != 85 {
		t.Errorf("MarginAvailableQty = %d, want 85", s.MarginAvailableQty)
	}
	if s.AfterMarginAvailableAmount != 870000 {
		t.Errorf("AfterMarginAvailableAmount = %d, want 870000", s.AfterMarginAvailableAmount)
	}
	if s.AfterMarginAvailableQty != 87 {
		t.Errorf("AfterMarginAvailableQty = %d, want 87", s.AfterMarginAvailableQty)
	}
}

// S3: applying H05P offsets on top of S2 shifts only the qty outputs.
func TestRecomputeS3Offsets(t *testing.T) {
	s := s2Summary()
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	s.MarginBuyOffsetQty = 10
	s.ShortSellOffsetQty = 0
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if s.MarginAvailableQty != 95 {
		t.Errorf("MarginAvailableQty = %d, want 95", s.MarginAvailableQty)
	}
	if s.AfterMarginAvailableQty != 97 {
		t.Errorf("AfterMarginAvailableQty = %d, want 97", s.AfterMarginAvailableQty)
	}
	if s.MarginAvailableAmount != 850000 {
		t.Errorf("MarginAvailableAmount = %d, want unchanged 850000", s.MarginAvailableAmount)
	}
}

// Derived outputs must not depend on their own prior values.
func TestRecomputePurity(t *testing.T) {
	s := s2Summary()
	s.MarginAvailableAmount = -12345
	s.AfterShortAvailableQty = math.MaxInt64
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	first := s.Clone()
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, s); diff != "" {
		t.Errorf("second Recompute changed state (-first +second):\n%s", diff)
	}
}

func TestRecomputeShortFormulae(t *testing.T) {
	s := &Summary{
		ShortAmount:                   500,
		ShortSellOrderAmount:          120,
		ShortQty:                      50,
		ShortSellOrderQty:             7,
		ShortSellMatchAmount:          30,
		ShortSellMatchQty:             2,
		ShortAfterHourSellOrderAmount: 40,
		ShortAfterHourSellOrderQty:    4,
		ShortSellOffsetQty:            3,
	}
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if s.ShortAvailableAmount != 380 {
		t.Errorf("ShortAvailableAmount = %d, want 380", s.ShortAvailableAmount)
	}
	if s.ShortAvailableQty != 46 {
		t.Errorf("ShortAvailableQty = %d, want 46", s.ShortAvailableQty)
	}
	if s.AfterShortAvailableAmount != 430 {
		t.Errorf("AfterShortAvailableAmount = %d, want 430", s.AfterShortAvailableAmount)
	}
	// short_qty - short_sell_order_qty - short_after_hour_sell_order_qty + offset
	if s.AfterShortAvailableQty != 42 {
		t.Errorf("AfterShortAvailableQty = %d, want 42", s.AfterShortAvailableQty)
	}
}

func TestRecomputeOverflowLeavesOutputs(t *testing.T) {
	s := &Summary{
		MarginAmount:          math.MaxInt64,
		MarginSellMatchAmount: 1,
	}
	if err := s.Recompute(); err == nil {
		t.Fatal("Recompute with overflowing inputs succeeded")
	}
	if s.MarginAvailableAmount != 0 || s.ShortAvailableQty != 0 {
		t.Error("derived outputs mutated despite overflow")
	}
}

func TestAddDerived(t *testing.T) {
	a := &Summary{MarginAvailableQty: 95, ShortAvailableAmount: 10}
	b := &Summary{MarginAvailableQty: 40, ShortAvailableAmount: -4}
	if err := a.AddDerived(b); err != nil {
		t.Fatal(err)
	}
	if a.MarginAvailableQty != 135 {
		t.Errorf("MarginAvailableQty = %d, want 135", a.MarginAvailableQty)
	}
	if a.ShortAvailableAmount != 6 {
		t.Errorf("ShortAvailableAmount = %d, want 6", a.ShortAvailableAmount)
	}
}

func TestAddDerivedOverflow(t *testing.T) {
	a := &Summary{MarginAvailableAmount: math.MaxInt64}
	b := &Summary{MarginAvailableAmount: 1}
	if err := a.AddDerived(b); err == nil {
		t.Fatal("AddDerived overflow succeeded")
	}
	if a.MarginAvailableAmount != math.MaxInt64 {
		t.Error("accumulator mutated despite overflow")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := &Summary{StockID: "2330", BelongBranches: []string{"B1", "B2"}}
	dup := s.Clone()
	dup.BelongBranches[0] = "XX"
	if s.BelongBranches[0] != "B1" {
		t.Error("Clone shares the branch slice")
	}
}
