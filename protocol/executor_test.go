package protocol

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"stepperhub/core"
)

type nullBackend struct{ enabled bool }

func (b *nullBackend) SetPeriod(prescaler, period uint32) {}
func (b *nullBackend) Enable() { b.enabled = true }
func (b *nullBackend) Disable() { b.enabled = false }
func (b *nullBackend) SetDirection(core.Direction) {}
func (b *nullBackend) GetName() string { return "null" }

type harness struct {
	reg *core.Registry
	dec *Decoder
	out *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := core.NewRegistry(core.DefaultMotionConfig())
	for _, n := range []byte{'X', 'Y'} {
		if err := reg.SetupPeripherals(n, &nullBackend{}); err != nil {
			t.Fatalf("SetupPeripherals failed: %v", err)
		}
	}
	out := &bytes.Buffer{}
	dec, err := NewDecoder(reg, NewExecutor(reg, out))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	return &harness{reg: reg, dec: dec, out: out}
}

// send feeds one request followed by a newline and returns the response.
func (h *harness) send(req string) string {
	h.out.Reset()
	h.dec.Write([]byte(req + "\n"))
	return h.out.String()
}

func TestExecuteResponses(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		req      string
		expected string
	}{
		{"SETX:325", "OK - X.TARGETPOSITION = 325\r\n"},
		{"ADDX:-400", "OK - X.TARGETPOSITION = -75\r\n"},
		{"GETX.TARGETPOSITION", "OK - X.TARGETPOSITION = -75\r\n"},
		{"GETX", "OK - X.CURRENTPOSITION = 0\r\n"},
		{"SETX.MAXSPS:500000", "LIMIT - X.MAXSPS = 400000\r\n"},
		{"SETX.MINSPS:0", "LIMIT - X.MINSPS = 1\r\n"},
		{"SETX.MINSPS:1000", "OK - X.MINSPS = 1000\r\n"},
		{"GETX.ACCPRESCALER", "OK - X.ACCPRESCALER = 12\r\n"},
		{"SETX.ACCSPS:5", "ERROR - 4 Invalid command parameter.\r\n"},
		{"ADDX.STATUS:1", "ERROR - 4 Invalid command parameter.\r\n"},
		{"SETX.ALL:1", "ERROR - 4 Invalid command parameter.\r\n"},
		{"RESETX.CURRENTSPS", "ERROR - 4 Invalid command parameter.\r\n"},
		{"GETY.STATUS", "OK - Y.STATUS = 0x80 STOPPED\r\n"},
		{"GETQ", "ERROR - 3 No stepper with specified label.\r\n"},
		{"sety:2147483647", "OK - Y.TARGETPOSITION = 2147483647\r\n"},
		{"ADDY:1", "LIMIT - Y.TARGETPOSITION = 2147483647\r\n"},
		{"SETY:-99999999999", "LIMIT - Y.TARGETPOSITION = -2147483648\r\n"},
	}

	for _, tt := range tests {
		if got := h.send(tt.req); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.req, tt.expected, got)
		}
	}
}

func TestExecuteGetAll(t *testing.T) {
	h := newHarness(t)
	h.send("SETX:12")

	_, prescaler := core.AccelerationProfile(1, core.DefaultControlPeriodUS, core.DefaultAccelerationRatio)
	expected := "OK - X\r\n" +
		"\t.TARGETPOSITION = 12\r\n" +
		"\t.CURRENTPOSITION = 0\r\n" +
		"\t.MINSPS = 1\r\n" +
		"\t.MAXSPS = 400000\r\n" +
		"\t.CURRENTSPS = 1\r\n" +
		"\t.ACCSPS = 1\r\n" +
		"\t.ACCPRESCALER = " + strconv.Itoa(int(prescaler)) + "\r\n" +
		"\t.STATUS = 0x80 STOPPED\r\n"
	if got := h.send("GETX.ALL"); got != expected {
		t.Errorf("Expected\n%q\ngot\n%q", expected, got)
	}
}

func TestExecuteRequiresStopped(t *testing.T) {
	h := newHarness(t)
	h.send("SETX:100")
	h.reg.ExecuteAll()

	tests := []struct {
		req      string
		expected string
	}{
		{"RESETX", "ERROR - 2 Stepper must be STOPPED to execute this command.\r\n"},
		{"SETX.MINSPS:10", "ERROR - 2 Stepper must be STOPPED to execute this command.\r\n"},
		{"SETX.CURRENTPOSITION:10", "ERROR - 2 Stepper must be STOPPED to execute this command.\r\n"},
		{"GETX.STATUS", "OK - X.STATUS = 0x04 STARTING\r\n"},
		{"SETX:-5", "OK - X.TARGETPOSITION = -5\r\n"},
	}
	for _, tt := range tests {
		if got := h.send(tt.req); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.req, tt.expected, got)
		}
	}
}

func TestExecuteReset(t *testing.T) {
	h := newHarness(t)
	h.send("SETX.CURRENTPOSITION:40")
	h.send("SETX.MINSPS:2000")
	h.send("SETX.MAXSPS:3000")

	if got := h.send("RESETX.TARGETPOSITION"); got != "OK - X.CURRENTPOSITION = 0\r\n" {
		t.Errorf("Unexpected response %q", got)
	}
	a := h.reg.Axis('X')
	if a.CurrentPosition() != 0 || a.TargetPosition() != 0 {
		t.Errorf("Expected positions reset, got %d/%d", a.CurrentPosition(), a.TargetPosition())
	}

	if got := h.send("RESETX.MAXSPS"); got != "OK - X.MAXSPS = 400000\r\n" {
		t.Errorf("Unexpected response %q", got)
	}
	if got := h.send("RESETX.MINSPS"); got != "OK - X.MINSPS = 1\r\n" {
		t.Errorf("Unexpected response %q", got)
	}

	h.send("SETX.CURRENTPOSITION:9")
	h.send("SETX.MAXSPS:10")
	for i := 0; i < 2; i++ {
		resp := h.send("RESETX")
		if !strings.HasPrefix(resp, "OK - X\r\n") {
			t.Errorf("Expected listing, got %q", resp)
		}
		if a.CurrentPosition() != 0 || a.TargetPosition() != 0 || a.MinSPS() != 1 || a.MaxSPS() != 400000 {
			t.Errorf("Reset %d left %d/%d %d/%d", i, a.CurrentPosition(), a.TargetPosition(), a.MinSPS(), a.MaxSPS())
		}
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	reg := core.NewRegistry(core.DefaultMotionConfig())
	reg.InitDefaultState('X')
	out := &bytes.Buffer{}
	e := NewExecutor(reg, out)

	e.Execute(&Request{Axis: 'X'})
	if out.String() != "ERROR - 6 Program error in command decoder.\r\n" {
		t.Errorf("Unexpected response %q", out.String())
	}
}
