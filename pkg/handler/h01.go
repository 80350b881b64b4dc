package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finquota/finquota/pkg/areas"
	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/overpunch"
	"github.com/finquota/finquota/pkg/store"
	"github.com/finquota/finquota/pkg/summary"
	"github.com/finquota/finquota/pkg/wire"
)

// H01Handler applies ELD001 quota snapshots: the full per-(area, stock)
// raw-input set is replaced, the offsets from the last H05P survive, the
// derived outputs are recomputed, and the result plus the company rollup
// are published.
type H01Handler struct {
	store *store.Store
	areas *areas.Provider
	log   *zap.SugaredLogger
}

func NewH01Handler(s *store.Store, provider *areas.Provider, log *zap.SugaredLogger) *H01Handler {
	return &H01Handler{store: s, areas: provider, log: log}
}

// h01Inputs is the decoded numeric payload, staged before any mutation so
// a codec failure leaves the summary untouched.
type h01Inputs struct {
	marginAmount                  int64
	marginBuyOrderAmount          int64
	marginSellMatchAmount         int64
	marginQty                     int64
	marginBuyOrderQty             int64
	marginSellMatchQty            int64
	shortAmount                   int64
	shortSellOrderAmount          int64
	shortQty                      int64
	shortSellOrderQty             int64
	marginBuyMatchAmount          int64
	marginBuyMatchQty             int64
	marginAfterHourBuyOrderAmount int64
	marginAfterHourBuyOrderQty    int64
	shortSellMatchAmount          int64
	shortSellMatchQty             int64
	shortAfterHourSellOrderAmount int64
	shortAfterHourSellOrderQty    int64
}

func decodeH01(rec *wire.H01Record) (h01Inputs, error) {
	var d numDecoder
	in := h01Inputs{
		marginAmount:                  d.i64(rec.MarginAmount, "margin_amount"),
		marginBuyOrderAmount:          d.i64(rec.MarginBuyOrderAmount, "margin_buy_order_amount"),
		marginSellMatchAmount:         d.i64(rec.MarginSellMatchAmount, "margin_sell_match_amount"),
		marginQty:                     d.i64(rec.MarginQty, "margin_qty"),
		marginBuyOrderQty:             d.i64(rec.MarginBuyOrderQty, "margin_buy_order_qty"),
		marginSellMatchQty:            d.i64(rec.MarginSellMatchQty, "margin_sell_match_qty"),
		shortAmount:                   d.i64(rec.ShortAmount, "short_amount"),
		shortSellOrderAmount:          d.i64(rec.ShortSellOrderAmount, "short_sell_order_amount"),
		shortQty:                      d.i64(rec.ShortQty, "short_qty"),
		shortSellOrderQty:             d.i64(rec.ShortSellOrderQty, "short_sell_order_qty"),
		marginBuyMatchAmount:          d.i64(rec.MarginBuyMatchAmount, "margin_buy_match_amount"),
		marginBuyMatchQty:             d.i64(rec.MarginBuyMatchQty, "margin_buy_match_qty"),
		marginAfterHourBuyOrderAmount: d.i64(rec.MarginAfterHourBuyOrderAmount, "margin_after_hour_buy_order_amount"),
		marginAfterHourBuyOrderQty:    d.i64(rec.MarginAfterHourBuyOrderQty, "margin_after_hour_buy_order_qty"),
		shortSellMatchAmount:          d.i64(rec.ShortSellMatchAmount, "short_sell_match_amount"),
		shortSellMatchQty:             d.i64(rec.ShortSellMatchQty, "short_sell_match_qty"),
		shortAfterHourSellOrderAmount: d.i64(rec.ShortAfterHourSellOrderAmount, "short_after_hour_sell_order_amount"),
		shortAfterHourSellOrderQty:    d.i64(rec.ShortAfterHourSellOrderQty, "short_after_hour_sell_order_qty"),
	}
	return in, d.err
}

func (h *H01Handler) Handle(ctx context.Context, msg *wire.Message) error {
	rec := msg.H01
	if rec == nil {
		return fmt.Errorf("%w: ELD001 message without H01 payload", finerr.ErrUnexpected)
	}

	headerArea, err := overpunch.TrimRight(msg.System)
	if err != nil {
		return err
	}
	dataArea, err := overpunch.TrimRight(rec.AreaCenter)
	if err != nil {
		return err
	}
	if headerArea != dataArea {
		return fmt.Errorf("%w: header area %q does not match data area %q",
			finerr.ErrInvalidPacket, headerArea, dataArea)
	}
	if !h.areas.IsValidArea(dataArea) {
		return fmt.Errorf("%w: area center %q not configured", finerr.ErrInvalidPacket, dataArea)
	}
	stockID, err := overpunch.TrimRight(rec.StockID)
	if err != nil {
		return err
	}

	in, err := decodeH01(rec)
	if err != nil {
		return err
	}

	key := summary.Key(dataArea, stockID)
	err = h.store.Mutate(key, func(s *summary.Summary) error {
		// Stage on a copy so a recompute overflow leaves s untouched.
		next := s.Clone()
		next.StockID = stockID
		next.AreaCenter = dataArea
		next.MarginAmount = in.marginAmount
		next.MarginBuyOrderAmount = in.marginBuyOrderAmount
		next.MarginSellMatchAmount = in.marginSellMatchAmount
		next.MarginQty = in.marginQty
		next.MarginBuyOrderQty = in.marginBuyOrderQty
		next.MarginSellMatchQty = in.marginSellMatchQty
		next.ShortAmount = in.shortAmount
		next.ShortSellOrderAmount = in.shortSellOrderAmount
		next.ShortQty = in.shortQty
		next.ShortSellOrderQty = in.shortSellOrderQty
		next.MarginBuyMatchAmount = in.marginBuyMatchAmount
		next.MarginBuyMatchQty = in.marginBuyMatchQty
		next.MarginAfterHourBuyOrderAmount = in.marginAfterHourBuyOrderAmount
		next.MarginAfterHourBuyOrderQty = in.marginAfterHourBuyOrderQty
		next.ShortSellMatchAmount = in.shortSellMatchAmount
		next.ShortSellMatchQty = in.shortSellMatchQty
		next.ShortAfterHourSellOrderAmount = in.shortAfterHourSellOrderAmount
		next.ShortAfterHourSellOrderQty = in.shortAfterHourSellOrderQty
		// MarginBuyOffsetQty / ShortSellOffsetQty carried over via the clone.
		next.BelongBranches = h.areas.BranchesFor(dataArea)
		if err := next.Recompute(); err != nil {
			return err
		}
		*s = *next
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Debugw("h01_applied", "key", key)
	if err := h.store.Sync(ctx, key); err != nil {
		return err
	}
	return h.store.UpdateCompanyRollup(ctx, stockID)
}

var _ Handler = (*H01Handler)(nil)
