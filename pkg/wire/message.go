// Package wire decodes the fixed-layout records the back-office front-end
// pushes over TCP. Each frame is an ASCII-padded header followed by a
// payload selected by the transaction code; numeric fields use the signed
// overpunch encoding handled by pkg/overpunch.
package wire

import (
	"fmt"

	"github.com/finquota/finquota/pkg/finerr"
)

// Transaction codes carried in the header.
const (
	TCodeH01  = "ELD001" // per-(area,stock) quota snapshot
	TCodeH05P = "ELD002" // per-(area,stock) offset record
)

// Entry types. Only EntryUpdate and EntryInsert are dispatched.
const (
	EntryUpdate = 'A'
	EntryInsert = 'C'
	EntryDelete = 'D'
	EntryClear  = 'F'
)

// Fixed sizes of the header and the two payload variants.
const (
	HeaderSize      = 169
	H01PayloadSize  = 247
	H05PPayloadSize = 117
)

// Message is a transient decoded view over one framed packet. Its byte
// slices alias the frame buffer and are only valid until the frame is
// dequeued from the ring.
type Message struct {
	PCode     []byte // 0200 input / 0210 output
	TCode     []byte
	SrcID     []byte
	Timestamp []byte
	JrnSeqn   []byte
	System    []byte // expected area center, right-space-padded
	Lib       []byte
	File      []byte
	Member    []byte
	FileRRNC  []byte
	EntryType byte
	RcdLenCnt []byte

	H01  *H01Record
	H05P *H05PRecord
}

// Dispatchable reports whether the entry type is one the service applies.
func (m *Message) Dispatchable() bool {
	return m.EntryType == EntryUpdate || m.EntryType == EntryInsert
}

// H01Record is the ELD001 payload: a full quota snapshot for one
// (area, stock). All fields are raw fixed-width bytes.
type H01Record struct {
	BrokerID         []byte
	AreaCenter       []byte
	StockID          []byte
	FinancingCompany []byte

	MarginAmount          []byte
	MarginBuyOrderAmount  []byte
	MarginSellMatchAmount []byte
	MarginQty             []byte
	MarginBuyOrderQty     []byte
	MarginSellMatchQty    []byte
	ShortAmount           []byte
	ShortSellOrderAmount  []byte
	ShortBuyMatchAmount   []byte
	ShortQty              []byte
	ShortSellOrderQty     []byte
	ShortBuyMatchQty      []byte

	PopularMarginMark []byte
	PopularShortMark  []byte
	Remark            []byte
	EditDate          []byte
	EditTime          []byte
	Editor            []byte

	MarginBuyMatchAmount          []byte
	MarginBuyMatchQty             []byte
	MarginAfterHourBuyOrderAmount []byte
	MarginAfterHourBuyOrderQty    []byte
	ShortSellMatchAmount          []byte
	ShortSellMatchQty             []byte
	ShortAfterHourSellOrderAmount []byte
	ShortAfterHourSellOrderQty    []byte
	DayTradeMarginBuyMatchAmount  []byte
	DayTradeShortSellMatchAmount  []byte
}

// H05PRecord is the ELD002 payload: day-trade offset quantities for one
// (broker/area, stock).
type H05PRecord struct {
	Dummy            []byte
	BrokerID         []byte
	Dummy2           []byte
	StockID          []byte
	FinancingCompany []byte
	Account          []byte

	MarginBuyMatchQty   []byte
	ShortSellMatchQty   []byte
	DayTradeMarginQty   []byte
	DayTradeShortQty    []byte
	MarginBuyOffsetQty  []byte
	ShortSellOffsetQty  []byte
	Comment             []byte
	EditDate            []byte
	EditTime            []byte
	Author              []byte
	ForceMarginBuyQty   []byte
	ForceShortSellQty   []byte
	InQuotaMarginOffset []byte
	InQuotaShortOffset  []byte
}

type cutter struct {
	buf []byte
	off int
}

func (c *cutter) next(n int) []byte {
	f := c.buf[c.off : c.off+n]
	c.off += n
	return f
}

func parseH01(b []byte) *H01Record {
	c := cutter{buf: b}
	return &H01Record{
		BrokerID:         c.next(4),
		AreaCenter:       c.next(3),
		StockID:          c.next(6),
		FinancingCompany: c.next(4),

		MarginAmount:          c.next(11),
		MarginBuyOrderAmount:  c.next(11),
		MarginSellMatchAmount: c.next(11),
		MarginQty:             c.next(6),
		MarginBuyOrderQty:     c.next(6),
		MarginSellMatchQty:    c.next(6),
		ShortAmount:           c.next(11),
		ShortSellOrderAmount:  c.next(11),
		ShortBuyMatchAmount:   c.next(11),
		ShortQty:              c.next(6),
		ShortSellOrderQty:     c.next(6),
		ShortBuyMatchQty:      c.next(6),

		PopularMarginMark: c.next(1),
		PopularShortMark:  c.next(1),
		Remark:            c.next(12),
		EditDate:          c.next(8),
		EditTime:          c.next(6),
		Editor:            c.next(10),

		MarginBuyMatchAmount:          c.next(11),
		MarginBuyMatchQty:             c.next(6),
		MarginAfterHourBuyOrderAmount: c.next(11),
		MarginAfterHourBuyOrderQty:    c.next(6),
		ShortSellMatchAmount:          c.next(11),
		ShortSellMatchQty:             c.next(6),
		ShortAfterHourSellOrderAmount: c.next(11),
		ShortAfterHourSellOrderQty:    c.next(6),
		DayTradeMarginBuyMatchAmount:  c.next(11),
		DayTradeShortSellMatchAmount:  c.next(11),
	}
}

func parseH05P(b []byte) *H05PRecord {
	c := cutter{buf: b}
	return &H05PRecord{
		Dummy:            c.next(1),
		BrokerID:         c.next(2),
		Dummy2:           c.next(1),
		StockID:          c.next(6),
		FinancingCompany: c.next(4),
		Account:          c.next(7),

		MarginBuyMatchQty:   c.next(6),
		ShortSellMatchQty:   c.next(6),
		DayTradeMarginQty:   c.next(6),
		DayTradeShortQty:    c.next(6),
		MarginBuyOffsetQty:  c.next(6),
		ShortSellOffsetQty:  c.next(6),
		Comment:             c.next(12),
		EditDate:            c.next(8),
		EditTime:            c.next(6),
		Author:              c.next(10),
		ForceMarginBuyQty:   c.next(6),
		ForceShortSellQty:   c.next(6),
		InQuotaMarginOffset: c.next(6),
		InQuotaShortOffset:  c.next(6),
	}
}

// Decode parses one frame. The input is the full frame including the
// trailing newline (and an optional carriage return before it). The
// returned Message aliases frame; it must not be retained past the dequeue.
//
// Unknown transaction codes yield ErrUnknownTransactionCode; a frame too
// short for its layout yields ErrInvalidPacket. Entry-type filtering is the
// dispatcher's job; any entry type decodes.
func Decode(frame []byte) (*Message, error) {
	n := len(frame)
	if n > 0 && frame[n-1] == '\n' {
		n--
	}
	if n > 0 && frame[n-1] == '\r' {
		n--
	}
	body := frame[:n]

	if len(body) < HeaderSize {
		return nil, fmt.Errorf("%w: frame body %d bytes, header needs %d",
			finerr.ErrInvalidPacket, len(body), HeaderSize)
	}

	c := cutter{buf: body}
	msg := &Message{
		PCode:     c.next(4),
		TCode:     c.next(6),
		SrcID:     c.next(3),
		Timestamp: c.next(26),
	}
	c.next(61) // filler
	msg.JrnSeqn = c.next(10)
	msg.System = c.next(8)
	msg.Lib = c.next(10)
	msg.File = c.next(10)
	msg.Member = c.next(10)
	msg.FileRRNC = c.next(10)
	msg.EntryType = c.next(1)[0]
	msg.RcdLenCnt = c.next(10)

	payload := body[HeaderSize:]
	switch string(msg.TCode) {
	case TCodeH01:
		if len(payload) < H01PayloadSize {
			return nil, fmt.Errorf("%w: ELD001 payload %d bytes, need %d",
				finerr.ErrInvalidPacket, len(payload), H01PayloadSize)
		}
		msg.H01 = parseH01(payload)
	case TCodeH05P:
		if len(payload) < H05PPayloadSize {
			return nil, fmt.Errorf("%w: ELD002 payload %d bytes, need %d",
				finerr.ErrInvalidPacket, len(payload), H05PPayloadSize)
		}
		msg.H05P = parseH05P(payload)
	default:
		return nil, fmt.Errorf("%w: %q", finerr.ErrUnknownTransactionCode, msg.TCode)
	}
	return msg, nil
}
