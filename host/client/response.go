package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stepperhub/core"
	"stepperhub/protocol"
)

// Kind classifies a response line.
type Kind uint8

const (
	KindOK Kind = iota
	KindLimit
	KindError
	KindListing
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindLimit:
		return "LIMIT"
	case KindError:
		return "ERROR"
	case KindListing:
		return "LISTING"
	}
	return "UNKNOWN"
}

// Response is one parsed reply.
type Response struct {
	Kind      Kind
	Axis      byte
	Parameter protocol.Parameter
	Value     int64

	// Code and Message are set for KindError.
	Code    protocol.ResultCode
	Message string

	// Listing holds the parameters of a GET ALL reply in wire order.
	Listing []Field

	Lines []string
}

// Field is one parameter of a listing.
type Field struct {
	Parameter protocol.Parameter
	Value     int64
}

// RemoteError is an ERROR reply from the controller.
type RemoteError struct {
	Code    protocol.ResultCode
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("controller error %d: %s", e.Code, e.Message)
}

// Err returns a *RemoteError for ERROR replies and nil otherwise.
func (r Response) Err() error {
	if r.Kind != KindError {
		return nil
	}
	return &RemoteError{Code: r.Code, Message: r.Message}
}

// Status returns Value as a status word.
func (r Response) Status() core.Status {
	return core.Status(r.Value)
}

// ErrMalformed means a line does not follow the response grammar.
var ErrMalformed = errors.New("malformed response")

// ParseLine parses the first line of a reply. A KindListing result still
// needs its parameter lines, see ParseField.
func ParseLine(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	r := Response{Lines: []string{line}}

	switch {
	case strings.HasPrefix(line, protocol.PrefixError):
		rest := line[len(protocol.PrefixError):]
		code, msg, _ := strings.Cut(rest, " ")
		n, err := strconv.ParseUint(code, 10, 8)
		if err != nil {
			return r, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		r.Kind = KindError
		r.Code = protocol.ResultCode(n)
		r.Message = msg
		return r, nil

	case strings.HasPrefix(line, protocol.PrefixLimit):
		r.Kind = KindLimit
		line = line[len(protocol.PrefixLimit):]

	case strings.HasPrefix(line, protocol.PrefixOK):
		r.Kind = KindOK
		line = line[len(protocol.PrefixOK):]

	default:
		return r, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	if len(line) == 1 {
		r.Kind = KindListing
		r.Axis = line[0]
		return r, nil
	}
	if len(line) < 2 || line[1] != '.' {
		return r, fmt.Errorf("%w: %q", ErrMalformed, r.Lines[0])
	}
	r.Axis = line[0]
	f, err := parseAssignment(line[2:])
	if err != nil {
		return r, fmt.Errorf("%w: %q", err, r.Lines[0])
	}
	r.Parameter = f.Parameter
	r.Value = f.Value
	return r, nil
}

// ParseField parses one "\t.<PARAM> = <value>" line of a listing.
func ParseField(line string) (Field, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "\t.") {
		return Field{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	f, err := parseAssignment(line[2:])
	if err != nil {
		return Field{}, fmt.Errorf("%w: %q", err, line)
	}
	return f, nil
}

func parseAssignment(s string) (Field, error) {
	name, value, ok := strings.Cut(s, " = ")
	if !ok {
		return Field{}, ErrMalformed
	}
	p, ok := protocol.ParseParameter(name)
	if !ok {
		return Field{}, ErrMalformed
	}

	var v int64
	var err error
	if p == protocol.ParamStatus {
		// "0x80 STOPPED"
		hex, _, _ := strings.Cut(value, " ")
		hex, ok = strings.CutPrefix(hex, "0x")
		if !ok {
			return Field{}, ErrMalformed
		}
		var u uint64
		u, err = strconv.ParseUint(hex, 16, 8)
		v = int64(u)
	} else {
		v, err = strconv.ParseInt(value, 10, 64)
	}
	if err != nil {
		return Field{}, ErrMalformed
	}
	return Field{Parameter: p, Value: v}, nil
}

// Arrival is the notification an axis sends when it settles on its target.
type Arrival struct {
	Axis     byte
	Position int32
}

// ParseArrival recognizes "<axis>.stop:<position>".
func ParseArrival(line string) (Arrival, bool) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 7 || line[1:7] != ".stop:" {
		return Arrival{}, false
	}
	pos, err := strconv.ParseInt(line[7:], 10, 32)
	if err != nil {
		return Arrival{}, false
	}
	return Arrival{Axis: line[0], Position: int32(pos)}, true
}

// Snapshot is the decoded GET ALL state of one axis.
type Snapshot struct {
	Axis            byte
	TargetPosition  int32
	CurrentPosition int32
	MinSPS          int32
	MaxSPS          int32
	CurrentSPS      int32
	AccSPS          int32
	AccPrescaler    int32
	Status          core.Status
}

// SnapshotOf converts a listing reply.
func SnapshotOf(r Response) (Snapshot, error) {
	if r.Kind != KindListing {
		if err := r.Err(); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("%w: expected listing, got %s", ErrMalformed, r.Kind)
	}
	s := Snapshot{Axis: r.Axis}
	for _, f := range r.Listing {
		v := int32(f.Value)
		switch f.Parameter {
		case protocol.ParamTargetPosition:
			s.TargetPosition = v
		case protocol.ParamCurrentPosition:
			s.CurrentPosition = v
		case protocol.ParamMinSPS:
			s.MinSPS = v
		case protocol.ParamMaxSPS:
			s.MaxSPS = v
		case protocol.ParamCurrentSPS:
			s.CurrentSPS = v
		case protocol.ParamAccSPS:
			s.AccSPS = v
		case protocol.ParamAccPrescaler:
			s.AccPrescaler = v
		case protocol.ParamStatus:
			s.Status = core.Status(f.Value)
		}
	}
	return s, nil
}
