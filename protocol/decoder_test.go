package protocol

import (
	"errors"
	"testing"
)

type axisSet string

func (s axisSet) HasAxis(name byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == name {
			return true
		}
	}
	return false
}

type recorder struct {
	reqs []Request
}

func (r *recorder) Execute(req *Request) {
	r.reqs = append(r.reqs, *req)
}

func newTestDecoder(t *testing.T) (*Decoder, *recorder) {
	t.Helper()
	rec := &recorder{}
	d, err := NewDecoder(axisSet("XYZ"), rec)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	return d, rec
}

func TestDecodeRequests(t *testing.T) {
	tests := []struct {
		input    string
		expected []Request
	}{
		{"SETX:10\n", []Request{{Axis: 'X', Command: CommandSet, Magnitude: 10}}},
		{"getx\n", []Request{{Axis: 'X', Command: CommandGet}}},
		{"GETY.STATUS\n", []Request{{Axis: 'Y', Command: CommandGet, Parameter: ParamStatus}}},
		{"ADDZ.TARGETPOSITION:-400\n", []Request{{Axis: 'Z', Command: CommandAdd, Parameter: ParamTargetPosition, Magnitude: 400, Negative: true}}},
		{"setx.maxsps:+500000 ", []Request{{Axis: 'X', Command: CommandSet, Parameter: ParamMaxSPS, Magnitude: 500000}}},
		{"RESETX\n", []Request{{Axis: 'X', Command: CommandReset}}},
		// Requests chain without separators.
		{"SETX:5GETX\n", []Request{
			{Axis: 'X', Command: CommandSet, Magnitude: 5},
			{Axis: 'X', Command: CommandGet},
		}},
		{"GETX.ALLGETY.MINSPS\n", []Request{
			{Axis: 'X', Command: CommandGet, Parameter: ParamAll},
			{Axis: 'Y', Command: CommandGet, Parameter: ParamMinSPS},
		}},
	}

	for _, tt := range tests {
		d, rec := newTestDecoder(t)
		d.Write([]byte(tt.input))

		if len(rec.reqs) != len(tt.expected) {
			t.Errorf("%q: expected %d requests, got %d: %v", tt.input, len(tt.expected), len(rec.reqs), rec.reqs)
			continue
		}
		for i, req := range rec.reqs {
			if req != tt.expected[i] {
				t.Errorf("%q: request %d expected %+v, got %+v", tt.input, i, tt.expected[i], req)
			}
		}
		if d.Pending() {
			t.Errorf("%q: decoder left pending in field %d", tt.input, d.Field())
		}
	}
}

func TestDecodeResyncAfterGarbage(t *testing.T) {
	d, rec := newTestDecoder(t)
	d.Write([]byte("XYZADDX:5\n"))

	if len(rec.reqs) != 1 {
		t.Fatalf("Expected 1 request, got %v", rec.reqs)
	}
	want := Request{Axis: 'X', Command: CommandAdd, Magnitude: 5}
	if rec.reqs[0] != want {
		t.Errorf("Expected %+v, got %+v", want, rec.reqs[0])
	}
}

func TestDecodeRestartInsideCommand(t *testing.T) {
	d, rec := newTestDecoder(t)
	// "GE" dies on 'S', which then starts SET.
	d.Write([]byte("GESETX:7\n"))

	if len(rec.reqs) != 1 || rec.reqs[0].Command != CommandSet || rec.reqs[0].Magnitude != 7 {
		t.Errorf("Expected SET X 7, got %v", rec.reqs)
	}
}

func TestDecodeUnknownAxis(t *testing.T) {
	d, rec := newTestDecoder(t)
	d.Write([]byte("GETQGETX\n"))

	if len(rec.reqs) != 2 {
		t.Fatalf("Expected 2 requests, got %v", rec.reqs)
	}
	if rec.reqs[0].Axis != 0 || rec.reqs[0].Command != CommandGet {
		t.Errorf("Expected axis-less GET, got %+v", rec.reqs[0])
	}
	if rec.reqs[1].Axis != 'X' {
		t.Errorf("Expected GET X, got %+v", rec.reqs[1])
	}
}

func TestDecodeAxisByteStartsNextCommand(t *testing.T) {
	d, rec := newTestDecoder(t)
	// 'S' is not an axis, so it begins SETY.
	d.Write([]byte("GETSETY:1\n"))

	if len(rec.reqs) != 2 {
		t.Fatalf("Expected 2 requests, got %v", rec.reqs)
	}
	if rec.reqs[0].Axis != 0 {
		t.Errorf("Expected axis-less GET, got %+v", rec.reqs[0])
	}
	if rec.reqs[1] != (Request{Axis: 'Y', Command: CommandSet, Magnitude: 1}) {
		t.Errorf("Expected SET Y 1, got %+v", rec.reqs[1])
	}
}

func TestDecodeUnknownParameter(t *testing.T) {
	d, rec := newTestDecoder(t)
	// ".MINX" dies on the second 'X'.
	d.Write([]byte("GETX.MINX:3\n"))

	if len(rec.reqs) != 1 {
		t.Fatalf("Expected 1 request, got %v", rec.reqs)
	}
	if rec.reqs[0].Parameter != ParamUndefined || rec.reqs[0].Magnitude != 0 {
		t.Errorf("Expected GET X without parameter, got %+v", rec.reqs[0])
	}
}

func TestDecodeValueBudget(t *testing.T) {
	d, rec := newTestDecoder(t)
	d.Write([]byte("SETX:-2147483648\n"))
	d.Write([]byte("SETX:99999999999\n"))
	d.Write([]byte("SETX:1234567890123\n"))

	if len(rec.reqs) != 3 {
		t.Fatalf("Expected 3 requests, got %v", rec.reqs)
	}
	if v := rec.reqs[0].Value(); v != -2147483648 {
		t.Errorf("Expected -2147483648, got %d", v)
	}
	if v := rec.reqs[1].Value(); v != 99999999999 {
		t.Errorf("Expected 99999999999, got %d", v)
	}
	// The twelfth digit no longer fits and ends the request.
	if v := rec.reqs[2].Value(); v != 12345678901 {
		t.Errorf("Expected 12345678901, got %d", v)
	}
}

func TestDecoderFlush(t *testing.T) {
	d, rec := newTestDecoder(t)
	d.Write([]byte("GETX.MAXSPS"))
	if len(rec.reqs) != 0 || !d.Pending() {
		t.Fatalf("Expected request pending, got %v", rec.reqs)
	}

	d.Flush()
	if len(rec.reqs) != 1 || rec.reqs[0].Parameter != ParamMaxSPS {
		t.Errorf("Expected GET X.MAXSPS, got %v", rec.reqs)
	}

	// A half command is dropped.
	d.Write([]byte("SE"))
	d.Flush()
	if len(rec.reqs) != 1 || d.Pending() {
		t.Errorf("Expected partial command discarded, got %v", rec.reqs)
	}
}

func TestCheckPrefixFree(t *testing.T) {
	if err := ValidateGrammar(); err != nil {
		t.Fatalf("Built-in grammar rejected: %v", err)
	}

	err := CheckPrefixFree([]string{"GET", "GETALL", "SET"})
	if !errors.Is(err, ErrTokenPrefix) {
		t.Errorf("Expected ErrTokenPrefix, got %v", err)
	}
	var te *TokenError
	if !errors.As(err, &te) || te.Token != "GET" || te.Other != "GETALL" {
		t.Errorf("Expected GET/GETALL pair, got %v", err)
	}

	if err := CheckPrefixFree([]string{"A", ""}); !errors.Is(err, ErrTokenEmpty) {
		t.Errorf("Expected ErrTokenEmpty, got %v", err)
	}
	if err := CheckPrefixFree([]string{"SAME", "SAME"}); !errors.Is(err, ErrTokenPrefix) {
		t.Errorf("Expected duplicate tokens rejected, got %v", err)
	}
}

func TestRequestString(t *testing.T) {
	r := Request{Axis: 'X', Command: CommandAdd, Parameter: ParamTargetPosition, Magnitude: 400, Negative: true}
	if r.String() != "ADDX.TARGETPOSITION:-400" {
		t.Errorf("Unexpected request string %q", r.String())
	}
}
