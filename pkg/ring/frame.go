package ring

import "bytes"

// KeepAliveMax is the largest total frame length (terminator included)
// treated as a keep-alive rather than a record.
const KeepAliveMax = 3

// Frame is a newline-terminated byte range inside the ring. Because the
// ring may wrap, it is exposed as up to two contiguous segments; Second is
// non-empty only for a wrapped frame. The total length includes the
// terminator.
type Frame struct {
	First  []byte
	Second []byte
}

// Len returns the total frame length including the newline.
func (f Frame) Len() int { return len(f.First) + len(f.Second) }

// KeepAlive reports whether the frame is a liveness probe to discard.
func (f Frame) KeepAlive() bool { return f.Len() <= KeepAliveMax }

// Bytes materializes the frame as one contiguous slice. Unwrapped frames
// are returned without copying; wrapped frames are assembled into scratch,
// which is grown as needed and returned for reuse.
func (f Frame) Bytes(scratch []byte) ([]byte, []byte) {
	if len(f.Second) == 0 {
		return f.First, scratch
	}
	n := f.Len()
	if cap(scratch) < n {
		scratch = make([]byte, 0, n+128)
	}
	scratch = scratch[:0]
	scratch = append(scratch, f.First...)
	scratch = append(scratch, f.Second...)
	return scratch, scratch
}

// NextFrame scans forward from the read cursor for a newline terminator and
// returns the delimited frame, or ok=false when no complete frame is
// buffered yet. The frame's bytes remain owned by the ring until Dequeue.
func (r *Ring) NextFrame() (Frame, bool) {
	first := r.PeekFirst()
	if len(first) == 0 {
		return Frame{}, false
	}
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		return Frame{First: first[:i+1]}, true
	}
	second := r.PeekSecond()
	if len(second) == 0 {
		return Frame{}, false
	}
	if i := bytes.IndexByte(second, '\n'); i >= 0 {
		return Frame{First: first, Second: second[:i+1]}, true
	}
	return Frame{}, false
}
