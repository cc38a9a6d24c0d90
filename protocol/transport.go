package protocol

// Transport feeds received bytes to the decoder and completes a trailing
// request once the line has been idle long enough.
type Transport struct {
	decoder   *Decoder
	idleTicks uint32
	lastRx    uint32
	recovered int

	faultCallback func(v interface{})
}

// NewTransport creates a Transport. Idle flushing is off until
// SetIdleFlush is called with a non-zero timeout.
func NewTransport(decoder *Decoder) *Transport {
	return &Transport{decoder: decoder}
}

// SetIdleFlush sets how many clock ticks of silence complete a pending
// request. Zero disables it.
func (t *Transport) SetIdleFlush(ticks uint32) {
	t.idleTicks = ticks
}

// SetFaultCallback is called with the recovered value when decoding
// panics. The decoder is reset and decoding continues with the next byte.
func (t *Transport) SetFaultCallback(cb func(v interface{})) {
	t.faultCallback = cb
}

// Receive decodes everything in input and consumes it.
func (t *Transport) Receive(input InputBuffer, now uint32) {
	data := input.Data()
	if len(data) == 0 {
		return
	}
	for _, b := range data {
		t.decodeByte(b)
	}
	t.lastRx = now
	input.Pop(len(data))
}

// ReceiveByte decodes a single byte.
func (t *Transport) ReceiveByte(b byte, now uint32) {
	t.decodeByte(b)
	t.lastRx = now
}

// Poll completes a pending request after the idle timeout.
func (t *Transport) Poll(now uint32) {
	if t.idleTicks == 0 || !t.decoder.Pending() {
		return
	}
	if now-t.lastRx < t.idleTicks {
		return
	}
	t.guard(t.decoder.Flush)
}

// Reset drops a partial request without executing it.
func (t *Transport) Reset() {
	t.decoder.Reset()
}

// Flush completes a pending request now, as at end of input.
func (t *Transport) Flush() {
	if t.decoder.Pending() {
		t.guard(t.decoder.Flush)
	}
}

// Recovered returns the number of decoder panics absorbed.
func (t *Transport) Recovered() int { return t.recovered }

func (t *Transport) decodeByte(b byte) {
	t.guard(func() { t.decoder.Decode(b) })
}

// guard keeps a faulting request from taking the byte stream down with it.
func (t *Transport) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.recovered++
			t.decoder.Reset()
			if t.faultCallback != nil {
				t.faultCallback(r)
			}
		}
	}()
	fn()
}
