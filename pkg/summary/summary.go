// Package summary holds the central aggregate: per-(area, stock) margin and
// short-selling quota state with derived availability figures.
package summary

import (
	"fmt"
	"math"

	"github.com/finquota/finquota/pkg/finerr"
)

// KeyPrefix tags every summary document in the external store.
const KeyPrefix = "summary:"

// AllAreas is the distinguished area center of the company rollup.
const AllAreas = "ALL"

// Key builds the store key for an (area, stock) summary.
func Key(areaCenter, stockID string) string {
	return KeyPrefix + areaCenter + ":" + stockID
}

// AllKey builds the store key for a stock's company rollup.
func AllKey(stockID string) string {
	return Key(AllAreas, stockID)
}

// Summary is the aggregate for one (area_center, stock_id) pair, or for the
// company rollup when AreaCenter is "ALL".
//
// The H01 raw inputs and the two H05P offsets are retained between updates
// so either record variant can recompute the derived outputs from scratch.
// Only identity, derived outputs, and branches are serialized to the store.
type Summary struct {
	StockID        string
	AreaCenter     string
	BelongBranches []string

	// Raw inputs from the last H01.
	MarginAmount                  int64
	MarginBuyOrderAmount          int64
	MarginSellMatchAmount         int64
	MarginQty                     int64
	MarginBuyOrderQty             int64
	MarginSellMatchQty            int64
	ShortAmount                   int64
	ShortSellOrderAmount          int64
	ShortQty                      int64
	ShortSellOrderQty             int64
	MarginBuyMatchAmount          int64
	MarginBuyMatchQty             int64
	MarginAfterHourBuyOrderAmount int64
	MarginAfterHourBuyOrderQty    int64
	ShortSellMatchAmount          int64
	ShortSellMatchQty             int64
	ShortAfterHourSellOrderAmount int64
	ShortAfterHourSellOrderQty    int64

	// Offsets from the last H05P, preserved across H01 updates.
	MarginBuyOffsetQty int64
	ShortSellOffsetQty int64

	// Derived outputs, recomputed on every mutation.
	MarginAvailableAmount      int64
	MarginAvailableQty         int64
	ShortAvailableAmount       int64
	ShortAvailableQty          int64
	AfterMarginAvailableAmount int64
	AfterMarginAvailableQty    int64
	AfterShortAvailableAmount  int64
	AfterShortAvailableQty     int64
}

// calc chains checked signed-64 additions, remembering the first overflow.
type calc struct {
	err error
}

func (c *calc) add(a, b int64) int64 {
	if c.err != nil {
		return 0
	}
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		c.err = fmt.Errorf("%w: int64 overflow in derived output", finerr.ErrBackOfficeIntParse)
		return 0
	}
	return a + b
}

func (c *calc) sub(a, b int64) int64 {
	if c.err != nil {
		return 0
	}
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		c.err = fmt.Errorf("%w: int64 overflow in derived output", finerr.ErrBackOfficeIntParse)
		return 0
	}
	return a - b
}

// Recompute derives the eight availability outputs from the raw inputs and
// offsets. It is a pure function of the stored inputs; prior derived values
// never feed back in. Overflow aborts without touching the outputs.
func (s *Summary) Recompute() error {
	var c calc

	marginAvailableAmount := c.add(c.sub(s.MarginAmount, s.MarginBuyOrderAmount), s.MarginSellMatchAmount)
	marginAvailableQty := c.add(c.add(c.sub(s.MarginQty, s.MarginBuyOrderQty), s.MarginSellMatchQty), s.MarginBuyOffsetQty)
	shortAvailableAmount := c.sub(s.ShortAmount, s.ShortSellOrderAmount)
	shortAvailableQty := c.add(c.sub(s.ShortQty, s.ShortSellOrderQty), s.ShortSellOffsetQty)

	afterMarginAvailableAmount := c.sub(c.add(c.sub(s.MarginAmount, s.MarginBuyMatchAmount), s.MarginSellMatchAmount), s.MarginAfterHourBuyOrderAmount)
	afterMarginAvailableQty := c.add(c.sub(c.add(c.sub(s.MarginQty, s.MarginBuyMatchQty), s.MarginSellMatchQty), s.MarginAfterHourBuyOrderQty), s.MarginBuyOffsetQty)
	afterShortAvailableAmount := c.sub(c.sub(s.ShortAmount, s.ShortSellMatchAmount), s.ShortAfterHourSellOrderAmount)
	afterShortAvailableQty := c.add(c.sub(c.sub(s.ShortQty, s.ShortSellOrderQty), s.ShortAfterHourSellOrderQty), s.ShortSellOffsetQty)

	if c.err != nil {
		return c.err
	}

	s.MarginAvailableAmount = marginAvailableAmount
	s.MarginAvailableQty = marginAvailableQty
	s.ShortAvailableAmount = shortAvailableAmount
	s.ShortAvailableQty = shortAvailableQty
	s.AfterMarginAvailableAmount = afterMarginAvailableAmount
	s.AfterMarginAvailableQty = afterMarginAvailableQty
	s.AfterShortAvailableAmount = afterShortAvailableAmount
	s.AfterShortAvailableQty = afterShortAvailableQty
	return nil
}

// AddDerived accumulates other's derived outputs into s, used by the
// company rollup. Overflow is an error.
func (s *Summary) AddDerived(other *Summary) error {
	var c calc
	marginAvailableAmount := c.add(s.MarginAvailableAmount, other.MarginAvailableAmount)
	marginAvailableQty := c.add(s.MarginAvailableQty, other.MarginAvailableQty)
	shortAvailableAmount := c.add(s.ShortAvailableAmount, other.ShortAvailableAmount)
	shortAvailableQty := c.add(s.ShortAvailableQty, other.ShortAvailableQty)
	afterMarginAvailableAmount := c.add(s.AfterMarginAvailableAmount, other.AfterMarginAvailableAmount)
	afterMarginAvailableQty := c.add(s.AfterMarginAvailableQty, other.AfterMarginAvailableQty)
	afterShortAvailableAmount := c.add(s.AfterShortAvailableAmount, other.AfterShortAvailableAmount)
	afterShortAvailableQty := c.add(s.AfterShortAvailableQty, other.AfterShortAvailableQty)
	if c.err != nil {
		return c.err
	}
	s.MarginAvailableAmount = marginAvailableAmount
	s.MarginAvailableQty = marginAvailableQty
	s.ShortAvailableAmount = shortAvailableAmount
	s.ShortAvailableQty = shortAvailableQty
	s.AfterMarginAvailableAmount = afterMarginAvailableAmount
	s.AfterMarginAvailableQty = afterMarginAvailableQty
	s.AfterShortAvailableAmount = afterShortAvailableAmount
	s.AfterShortAvailableQty = afterShortAvailableQty
	return nil
}

// Clone returns a deep copy, including the branch list.
func (s *Summary) Clone() *Summary {
	dup := *s
	if s.BelongBranches != nil {
		dup.BelongBranches = append([]string(nil), s.BelongBranches...)
	}
	return &dup
}
