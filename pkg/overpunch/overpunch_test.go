package overpunch

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/finquota/finquota/pkg/finerr"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "negative with J..R terminator", in: "0000000010J", want: -101},
		{name: "negative zero via brace", in: "000000000}", want: 0},
		{name: "padded positive", in: "    42  ", want: 42},
		{name: "embedded letter", in: "1A2", wantErr: true},
		{name: "plain positive", in: "001234", want: 1234},
		{name: "all zeros", in: "00000000000", want: 0},
		{name: "empty after trim", in: "      ", want: 0},
		{name: "empty input", in: "", want: 0},
		{name: "single overpunch R", in: "R", want: -9},
		{name: "brace negative", in: "12}", want: -120},
		{name: "mid overpunch", in: "1J2", wantErr: true},
		{name: "space between digits", in: "1 2", wantErr: true},
		{name: "trailing newline trim", in: "99\n", want: 99},
		{name: "max int64", in: "9223372036854775807", want: 9223372036854775807},
		{name: "overflow", in: "9223372036854775808", wantErr: true},
		{name: "negative overflow", in: "922337203685477581J", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%q) = %d, want error", tt.in, got)
				}
				if !errors.Is(err, finerr.ErrBackOfficeIntParse) {
					t.Errorf("Decode(%q) error = %v, want ErrBackOfficeIntParse", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// Canonical encoding of s*m at the given width must round-trip.
func TestDecodeRoundTrip(t *testing.T) {
	encode := func(m int64, neg bool, width int) string {
		s := fmt.Sprintf("%0*d", width, m)
		if !neg {
			return s
		}
		last := s[len(s)-1]
		if last == '0' {
			return s[:len(s)-1] + "}"
		}
		return s[:len(s)-1] + string(byte('I')+(last-'0'))
	}

	for _, m := range []int64{0, 1, 9, 10, 101, 850000, 999999, 12345678901} {
		for _, neg := range []bool{false, true} {
			in := encode(m, neg, 12)
			want := m
			if neg {
				want = -m
			}
			got, err := Decode([]byte(in))
			if err != nil {
				t.Fatalf("Decode(%q): %v", in, err)
			}
			if got != want {
				t.Errorf("Decode(%q) = %d, want %d", in, got, want)
			}
		}
	}
}

func TestDecodeRejectsForeignBytes(t *testing.T) {
	for _, c := range "ABCDEFGHISTUVWXYZ!@#-+." {
		in := "12" + string(c)
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
		}
	}
}

func TestTrimRight(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A01     ", "A01"},
		{"2330  ", "2330"},
		{"        ", ""},
		{"ALL", "ALL"},
	}
	for _, tt := range tests {
		got, err := TrimRight([]byte(tt.in))
		if err != nil {
			t.Fatalf("TrimRight(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("TrimRight(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimRightInvalidUTF8(t *testing.T) {
	_, err := TrimRight([]byte{0xff, 0xfe, ' '})
	if err == nil {
		t.Fatal("TrimRight on invalid utf-8 succeeded, want error")
	}
	if !errors.Is(err, finerr.ErrInvalidPacket) {
		t.Errorf("error = %v, want ErrInvalidPacket", err)
	}
}

func BenchmarkDecode(b *testing.B) {
	in := []byte(strings.Repeat("9", 10) + "J")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(in); err != nil {
			b.Fatal(err)
		}
	}
}
