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

// H05PHandler applies ELD002 offset records. The broker field names the
// area center. The two offsets are stored verbatim (an all-zero record
// clears them) and the derived outputs are recomputed from whatever H01
// inputs are already present.
type H05PHandler struct {
	store *store.Store
	areas *areas.Provider
	log   *zap.SugaredLogger
}

func NewH05PHandler(s *store.Store, provider *areas.Provider, log *zap.SugaredLogger) *H05PHandler {
	return &H05PHandler{store: s, areas: provider, log: log}
}

func (h *H05PHandler) Handle(ctx context.Context, msg *wire.Message) error {
	rec := msg.H05P
	if rec == nil {
		return fmt.Errorf("%w: ELD002 message without H05P payload", finerr.ErrUnexpected)
	}

	areaCenter, err := overpunch.TrimRight(rec.BrokerID)
	if err != nil {
		return err
	}
	if !h.areas.IsValidArea(areaCenter) {
		return fmt.Errorf("%w: broker %q is not a configured area center",
			finerr.ErrInvalidPacket, areaCenter)
	}
	stockID, err := overpunch.TrimRight(rec.StockID)
	if err != nil {
		return err
	}

	var d numDecoder
	buyOffset := d.i64(rec.MarginBuyOffsetQty, "margin_buy_offset_qty")
	sellOffset := d.i64(rec.ShortSellOffsetQty, "short_sell_offset_qty")
	if d.err != nil {
		return d.err
	}

	key := summary.Key(areaCenter, stockID)
	err = h.store.Mutate(key, func(s *summary.Summary) error {
		next := s.Clone()
		next.MarginBuyOffsetQty = buyOffset
		next.ShortSellOffsetQty = sellOffset
		if next.StockID == "" {
			next.StockID = stockID
		}
		if next.AreaCenter == "" {
			next.AreaCenter = areaCenter
		}
		if len(next.BelongBranches) == 0 {
			next.BelongBranches = h.areas.BranchesFor(areaCenter)
		}
		if err := next.Recompute(); err != nil {
			return err
		}
		*s = *next
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Debugw("h05p_applied", "key", key,
		"margin_buy_offset_qty", buyOffset, "short_sell_offset_qty", sellOffset)
	if err := h.store.Sync(ctx, key); err != nil {
		return err
	}
	return h.store.UpdateCompanyRollup(ctx, stockID)
}

var _ Handler = (*H05PHandler)(nil)
