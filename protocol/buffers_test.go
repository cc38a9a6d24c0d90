package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte("GETX"))

	if buf.Available() != 4 {
		t.Errorf("Expected 4 bytes available, got %d", buf.Available())
	}
	buf.Pop(3)
	if string(buf.Data()) != "X" {
		t.Errorf("After popping 3, expected \"X\", got %q", buf.Data())
	}
	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Expected empty buffer, got %d bytes", buf.Available())
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	if n := fifo.Write([]byte{1, 2, 3, 4, 5}); n != 4 {
		t.Errorf("Expected to write 4 bytes to size-5 FIFO, wrote %d", n)
	}

	readBuf := make([]byte, 2)
	fifo.Read(readBuf)

	if n := fifo.Write([]byte{5, 6}); n != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", n)
	}

	// Data copies the wrapped segments into one slice.
	if got := fifo.Data(); !bytes.Equal(got, []byte{3, 4, 5, 6}) {
		t.Errorf("Wrap-around data mismatch: got %v", got)
	}
	if fifo.Free() != 0 {
		t.Errorf("Expected full FIFO, %d free", fifo.Free())
	}

	fifo.Pop(4)
	if !fifo.IsEmpty() {
		t.Error("Expected empty FIFO after popping everything")
	}
}

func TestTxBufferDrain(t *testing.T) {
	tx := NewTxBuffer(64)
	tx.Write([]byte("OK - X.MINSPS = 1\r\n"))

	var out bytes.Buffer
	n, err := tx.WriteTo(&out)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != 19 || out.String() != "OK - X.MINSPS = 1\r\n" {
		t.Errorf("Unexpected drain %d %q", n, out.String())
	}
	if len(tx.Pending()) != 0 {
		t.Error("Expected nothing pending after drain")
	}
}

func TestTxBufferOverflow(t *testing.T) {
	tx := NewTxBuffer(32)

	tx.Write([]byte("01234567890123456789012345"))
	tx.Write([]byte("lost\r\n"))
	tx.Write([]byte("also lost\r\n"))
	if tx.Dropped() != 17 {
		t.Errorf("Expected 17 dropped bytes, got %d", tx.Dropped())
	}

	var out bytes.Buffer
	tx.WriteTo(&out)
	expected := "01234567890123456789012345" + TxOverflowMarker
	if out.String() != expected {
		t.Errorf("Expected %q, got %q", expected, out.String())
	}

	tx.Write([]byte("next\r\n"))
	out.Reset()
	tx.WriteTo(&out)
	if out.String() != "next\r\n" {
		t.Errorf("Expected writes to resume, got %q", out.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 2, errors.New("port closed")
}

func TestTxBufferWriteError(t *testing.T) {
	tx := NewTxBuffer(16)
	tx.Write([]byte("ERROR"))

	if _, err := tx.WriteTo(failingWriter{}); err == nil {
		t.Fatal("Expected write error")
	}
	if string(tx.Pending()) != "ROR" {
		t.Errorf("Expected unsent bytes kept, got %q", tx.Pending())
	}
}
