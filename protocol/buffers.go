package protocol

import "io"

// InputBuffer provides an abstraction for reading incoming protocol data
type InputBuffer interface {
	// Data returns the available data slice
	Data() []byte

	// Available returns the number of bytes available
	Available() int

	// Pop removes n bytes from the front of the buffer
	Pop(n int)
}

// SliceInputBuffer implements InputBuffer using a byte slice
type SliceInputBuffer struct {
	data []byte
}

// NewSliceInputBuffer creates a new SliceInputBuffer
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// FifoBuffer is a circular buffer for serial I/O. It holds one byte less
// than its capacity.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			// Buffer empty
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns available data as a slice
// When wrapped, this copies data into a contiguous slice
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		// Simple case: data is contiguous
		return f.buf[f.read:f.write]
	}
	// Wrapped case: copy both segments into contiguous slice
	avail := f.Available()
	result := make([]byte, avail)

	// Copy first segment (read to end of buffer)
	firstLen := f.size - f.read
	copy(result, f.buf[f.read:])

	// Copy second segment (start of buffer to write)
	copy(result[firstLen:], f.buf[:f.write])

	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}

// Overflow marker written once room frees up after responses were dropped.
const TxOverflowMarker = "\r\nTX_BUFFER_OVERFLOW\r\n"

// TxBuffer queues outbound response bytes. Writes never block: a response
// that does not fit is dropped whole and the loss is reported in-band by
// TxOverflowMarker once the buffer drains.
type TxBuffer struct {
	fifo       *FifoBuffer
	overflowed bool
	dropped    int
}

// NewTxBuffer creates a TxBuffer holding up to capacity-1 bytes.
func NewTxBuffer(capacity int) *TxBuffer {
	return &TxBuffer{fifo: NewFifoBuffer(capacity)}
}

// Write implements io.Writer. It never fails.
func (t *TxBuffer) Write(p []byte) (int, error) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.overflowed || t.fifo.Free() < len(p) {
		t.overflowed = true
		t.dropped += len(p)
		return len(p), nil
	}
	t.fifo.Write(p)
	return len(p), nil
}

// Pending returns the queued bytes without removing them.
func (t *TxBuffer) Pending() []byte {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	return t.fifo.Data()
}

// Consume drops n sent bytes and queues the overflow marker if responses
// were lost and it now fits.
func (t *TxBuffer) Consume(n int) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	t.fifo.Pop(n)
	if t.overflowed && t.fifo.Free() >= len(TxOverflowMarker) {
		t.fifo.Write([]byte(TxOverflowMarker))
		t.overflowed = false
	}
}

// WriteTo drains queued bytes into w until it is empty or w fails.
func (t *TxBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		data := t.Pending()
		if len(data) == 0 {
			t.Consume(0)
			if data = t.Pending(); len(data) == 0 {
				return total, nil
			}
		}
		n, err := w.Write(data)
		t.Consume(n)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
}

// Dropped returns the number of response bytes lost to overflow.
func (t *TxBuffer) Dropped() int {
	return t.dropped
}
