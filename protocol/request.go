package protocol

import (
	"math"
	"strconv"
)

// Request is one decoded command. Axis is zero when no valid axis name was
// seen.
type Request struct {
	Axis      byte
	Command   Command
	Parameter Parameter
	Magnitude uint64
	Negative  bool
}

// Value returns the signed request value.
func (r *Request) Value() int64 {
	m := r.Magnitude
	if m > math.MaxInt64 {
		m = math.MaxInt64
	}
	if r.Negative {
		return -int64(m)
	}
	return int64(m)
}

func (r *Request) reset() {
	*r = Request{}
}

func (r Request) String() string {
	s := r.Command.String()
	if r.Axis != 0 {
		s += string(r.Axis)
	}
	if r.Parameter != ParamUndefined {
		s += "." + r.Parameter.String()
	}
	if r.Magnitude != 0 || r.Negative {
		s += ":"
		if r.Negative {
			s += "-"
		}
		s += strconv.FormatUint(r.Magnitude, 10)
	}
	return s
}
