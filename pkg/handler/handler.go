// Package handler applies decoded back-office records to the summary
// store. Each transaction code has one handler behind a shared capability;
// new codes are added by registering another implementation.
package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/overpunch"
	"github.com/finquota/finquota/pkg/wire"
)

// Handler applies one decoded record.
type Handler interface {
	Handle(ctx context.Context, msg *wire.Message) error
}

// Registry dispatches messages to handlers by transaction code.
type Registry struct {
	byCode map[string]Handler
	log    *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{byCode: make(map[string]Handler), log: log}
}

func (r *Registry) Register(tCode string, h Handler) {
	r.byCode[tCode] = h
}

// Dispatch routes msg to its handler. Records whose entry type is not an
// insert or update are dropped here, not treated as errors.
func (r *Registry) Dispatch(ctx context.Context, msg *wire.Message) error {
	if !msg.Dispatchable() {
		r.log.Errorw("entry_type_dropped",
			"entry_type", string(msg.EntryType), "t_code", string(msg.TCode))
		return nil
	}
	h, ok := r.byCode[string(msg.TCode)]
	if !ok {
		return fmt.Errorf("%w: %q", finerr.ErrUnknownTransactionCode, msg.TCode)
	}
	return h.Handle(ctx, msg)
}

// numDecoder chains overpunch decodes, keeping the first failure.
type numDecoder struct {
	err error
}

func (d *numDecoder) i64(field []byte, name string) int64 {
	if d.err != nil {
		return 0
	}
	v, err := overpunch.Decode(field)
	if err != nil {
		d.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}
