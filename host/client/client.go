// Package client speaks the line protocol of the stepper controller.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"stepperhub/protocol"
)

// DefaultTimeout bounds how long Send waits for a reply when the context
// has no deadline.
const DefaultTimeout = 2 * time.Second

var (
	// ErrClosed means the connection was closed or reading failed.
	ErrClosed = errors.New("connection closed")

	// ErrOverflow means the controller dropped replies because its
	// transmit buffer was full.
	ErrOverflow = errors.New("controller transmit buffer overflow")
)

const overflowLine = "TX_BUFFER_OVERFLOW"

// Client sends requests and matches replies. Arrival notifications are
// split off onto their own channel.
type Client struct {
	rw      io.ReadWriter
	timeout time.Duration

	mu       sync.Mutex
	lines    chan string
	arrivals chan Arrival
	readErr  error
}

// New starts reading from rw.
func New(rw io.ReadWriter) *Client {
	c := &Client{
		rw:       rw,
		timeout:  DefaultTimeout,
		lines:    make(chan string, 64),
		arrivals: make(chan Arrival, 32),
	}
	go c.readLoop()
	return c
}

// SetTimeout changes the reply timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Arrivals delivers axis arrival notifications. Notifications are dropped
// when nobody keeps up.
func (c *Client) Arrivals() <-chan Arrival {
	return c.arrivals
}

// Close closes the underlying stream if it can be closed.
func (c *Client) Close() error {
	if cl, ok := c.rw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.lines)

	r := bufio.NewReader(c.rw)
	var partial []byte
	for {
		chunk, err := r.ReadSlice('\n')
		partial = append(partial, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrClosed
			}
			c.readErr = err
			return
		}

		line := strings.TrimRight(string(partial), "\r\n")
		partial = partial[:0]
		if line == "" {
			continue
		}
		if a, ok := ParseArrival(line); ok {
			select {
			case c.arrivals <- a:
			default:
			}
			continue
		}
		c.lines <- line
	}
}

func (c *Client) closedErr() error {
	if c.readErr == nil || errors.Is(c.readErr, ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
}

func (c *Client) nextLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", c.closedErr()
		}
		if line == overflowLine {
			return "", ErrOverflow
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Send writes one request and waits for its complete reply. Requests are
// serialized.
func (c *Client) Send(ctx context.Context, req string) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Replies to abandoned requests.
	for drained := false; !drained; {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return Response{}, c.closedErr()
			}
		default:
			drained = true
		}
	}

	if _, err := io.WriteString(c.rw, req+"\n"); err != nil {
		return Response{}, fmt.Errorf("send %q: %w", req, err)
	}

	line, err := c.nextLine(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("reply to %q: %w", req, err)
	}
	resp, err := ParseLine(line)
	if err != nil {
		return resp, err
	}
	if resp.Kind != KindListing {
		return resp, nil
	}

	for range protocol.ListedParameters() {
		line, err := c.nextLine(ctx)
		if err != nil {
			return resp, fmt.Errorf("reply to %q: %w", req, err)
		}
		f, err := ParseField(line)
		if err != nil {
			return resp, err
		}
		resp.Lines = append(resp.Lines, line)
		resp.Listing = append(resp.Listing, f)
	}
	return resp, nil
}

// Get reads one parameter of an axis.
func (c *Client) Get(ctx context.Context, axis byte, p protocol.Parameter) (Response, error) {
	resp, err := c.Send(ctx, "GET"+string(axis)+"."+p.String())
	if err != nil {
		return resp, err
	}
	return resp, resp.Err()
}

// Snapshot reads every parameter of an axis.
func (c *Client) Snapshot(ctx context.Context, axis byte) (Snapshot, error) {
	resp, err := c.Send(ctx, "GET"+string(axis)+"."+protocol.ParamAll.String())
	if err != nil {
		return Snapshot{}, err
	}
	return SnapshotOf(resp)
}

// MoveTo sets the target position of an axis. A clamped target is
// reported by the returned response's Kind, not as an error.
func (c *Client) MoveTo(ctx context.Context, axis byte, position int32) (Response, error) {
	resp, err := c.Send(ctx, "SET"+string(axis)+":"+strconv.FormatInt(int64(position), 10))
	if err != nil {
		return resp, err
	}
	return resp, resp.Err()
}

// WaitArrival blocks until axis reports arrival or ctx is done.
func (c *Client) WaitArrival(ctx context.Context, axis byte) (Arrival, error) {
	for {
		select {
		case a := <-c.arrivals:
			if a.Axis == axis {
				return a, nil
			}
		case <-ctx.Done():
			return Arrival{}, ctx.Err()
		}
	}
}
