package store

import (
	"encoding/json"
	"fmt"

	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/summary"
)

// document is the wire schema of a summary in the external store. Raw H01
// inputs and H05P offsets are deliberately absent: downstream consumers see
// derived availability only, and a load can restore no more than that.
type document struct {
	StockID                    string   `json:"stock_id"`
	AreaCenter                 string   `json:"area_center"`
	MarginAvailableAmount      int64    `json:"margin_available_amount"`
	MarginAvailableQty         int64    `json:"margin_available_qty"`
	ShortAvailableAmount       int64    `json:"short_available_amount"`
	ShortAvailableQty          int64    `json:"short_available_qty"`
	AfterMarginAvailableAmount int64    `json:"after_margin_available_amount"`
	AfterMarginAvailableQty    int64    `json:"after_margin_available_qty"`
	AfterShortAvailableAmount  int64    `json:"after_short_available_amount"`
	AfterShortAvailableQty     int64    `json:"after_short_available_qty"`
	BelongBranches             []string `json:"belong_branches"`
}

func marshalSummary(s *summary.Summary) (string, error) {
	branches := s.BelongBranches
	if branches == nil {
		branches = []string{}
	}
	raw, err := json.Marshal(document{
		StockID:                    s.StockID,
		AreaCenter:                 s.AreaCenter,
		MarginAvailableAmount:      s.MarginAvailableAmount,
		MarginAvailableQty:         s.MarginAvailableQty,
		ShortAvailableAmount:       s.ShortAvailableAmount,
		ShortAvailableQty:          s.ShortAvailableQty,
		AfterMarginAvailableAmount: s.AfterMarginAvailableAmount,
		AfterMarginAvailableQty:    s.AfterMarginAvailableQty,
		AfterShortAvailableAmount:  s.AfterShortAvailableAmount,
		AfterShortAvailableQty:     s.AfterShortAvailableQty,
		BelongBranches:             branches,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", finerr.ErrParseError, err)
	}
	return string(raw), nil
}

// unmarshalSummary accepts either a bare document or the one-element array
// the store returns for a root-path JSON.GET.
func unmarshalSummary(raw string) (*summary.Summary, error) {
	data := []byte(raw)
	if len(data) > 0 && data[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", finerr.ErrParseError, err)
		}
		if len(arr) == 0 {
			return nil, fmt.Errorf("%w: empty json array", finerr.ErrParseError)
		}
		data = arr[0]
	}

	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", finerr.ErrParseError, err)
	}
	if d.StockID == "" {
		return nil, fmt.Errorf("%w: document missing stock_id", finerr.ErrParseError)
	}
	return &summary.Summary{
		StockID:                    d.StockID,
		AreaCenter:                 d.AreaCenter,
		BelongBranches:             d.BelongBranches,
		MarginAvailableAmount:      d.MarginAvailableAmount,
		MarginAvailableQty:         d.MarginAvailableQty,
		ShortAvailableAmount:       d.ShortAvailableAmount,
		ShortAvailableQty:          d.ShortAvailableQty,
		AfterMarginAvailableAmount: d.AfterMarginAvailableAmount,
		AfterMarginAvailableQty:    d.AfterMarginAvailableQty,
		AfterShortAvailableAmount:  d.AfterShortAvailableAmount,
		AfterShortAvailableQty:     d.AfterShortAvailableQty,
	}, nil
}
