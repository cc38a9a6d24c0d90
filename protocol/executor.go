package protocol

import (
	"errors"
	"io"
	"math"

	"stepperhub/core"
)

// Executor applies decoded requests to a registry and writes the textual
// response for each.
type Executor struct {
	reg *core.Registry
	out io.Writer
	buf []byte
}

// NewExecutor creates an executor writing responses to out.
func NewExecutor(reg *core.Registry, out io.Writer) *Executor {
	return &Executor{
		reg: reg,
		out: out,
		buf: make([]byte, 0, 256),
	}
}

// Result is the outcome of one request.
type Result struct {
	Code      ResultCode
	Axis      byte
	Parameter Parameter
	Value     int64
}

// Execute implements RequestHandler.
func (e *Executor) Execute(req *Request) {
	res := e.Apply(req)
	e.buf = e.AppendResult(e.buf[:0], res)
	e.out.Write(e.buf)
}

// Apply validates and applies a request without writing a response.
func (e *Executor) Apply(req *Request) Result {
	res := Result{Axis: core.NormalizeName(req.Axis), Parameter: req.Parameter}
	if req.Axis == 0 {
		res.Code = ResultAxisNotFound
		return res
	}
	a := e.reg.Axis(req.Axis)
	if a == nil {
		res.Code = ResultAxisNotFound
		return res
	}

	switch req.Command {
	case CommandAdd, CommandSet:
		if res.Parameter == ParamUndefined {
			res.Parameter = ParamTargetPosition
		}
		if !res.Parameter.Writable() {
			res.Code = ResultInvalidParameter
			return res
		}
		v := req.Value()
		if req.Command == CommandAdd {
			v += paramValue(a, res.Parameter)
		}
		limited := false
		switch {
		case v < math.MinInt32:
			v, limited = math.MinInt32, true
		case v > math.MaxInt32:
			v, limited = math.MaxInt32, true
		}
		err := e.setParam(a.Name(), res.Parameter, int32(v))
		if errors.Is(err, core.ErrValueLimit) {
			limited, err = true, nil
		}
		if err != nil {
			res.Code = codeFor(err)
			return res
		}
		if limited {
			res.Code = ResultValueLimit
		}

	case CommandReset:
		if !a.Status().Stopped() {
			res.Code = ResultMustBeStopped
			return res
		}
		switch res.Parameter {
		case ParamUndefined:
			res.Parameter = ParamAll
		case ParamTargetPosition:
			res.Parameter = ParamCurrentPosition
		}
		var err error
		switch res.Parameter {
		case ParamAll:
			if err = e.reg.InitDefaultState(a.Name()); err == nil {
				e.reg.Persist()
			}
		case ParamMinSPS:
			err = e.reg.SetMinSPS(a.Name(), core.DefaultMinSPS)
		case ParamMaxSPS:
			err = e.reg.SetMaxSPS(a.Name(), core.DefaultMaxSPS)
		case ParamCurrentPosition:
			err = e.reg.SetCurrentPosition(a.Name(), 0)
		default:
			res.Code = ResultInvalidParameter
			return res
		}
		if err != nil {
			res.Code = codeFor(err)
			return res
		}

	case CommandGet:
		if res.Parameter == ParamUndefined {
			res.Parameter = ParamCurrentPosition
		}

	default:
		res.Code = ResultDecoderFault
		return res
	}

	if res.Parameter != ParamAll {
		res.Value = paramValue(a, res.Parameter)
	}
	return res
}

// AppendResult formats a result as response lines.
func (e *Executor) AppendResult(buf []byte, res Result) []byte {
	switch res.Code {
	case ResultOK:
		if res.Parameter == ParamAll {
			a := e.reg.Axis(res.Axis)
			return AppendListing(buf, res.Axis, func(p Parameter) int64 { return paramValue(a, p) })
		}
		return AppendValueLine(buf, PrefixOK, res.Axis, res.Parameter, res.Value)
	case ResultValueLimit:
		return AppendValueLine(buf, PrefixLimit, res.Axis, res.Parameter, res.Value)
	}
	return AppendError(buf, res.Code)
}

func (e *Executor) setParam(name byte, p Parameter, v int32) error {
	switch p {
	case ParamTargetPosition:
		return e.reg.SetTargetPosition(name, v)
	case ParamCurrentPosition:
		return e.reg.SetCurrentPosition(name, v)
	case ParamMinSPS:
		return e.reg.SetMinSPS(name, v)
	case ParamMaxSPS:
		return e.reg.SetMaxSPS(name, v)
	}
	return errors.New("parameter " + p.String() + " is not writable")
}

func paramValue(a *core.Axis, p Parameter) int64 {
	switch p {
	case ParamTargetPosition:
		return int64(a.TargetPosition())
	case ParamCurrentPosition:
		return int64(a.CurrentPosition())
	case ParamMinSPS:
		return int64(a.MinSPS())
	case ParamMaxSPS:
		return int64(a.MaxSPS())
	case ParamCurrentSPS:
		return int64(a.CurrentSPS())
	case ParamAccSPS:
		return int64(a.AccelerationSPS())
	case ParamAccPrescaler:
		return int64(a.TickPrescaler())
	case ParamStatus:
		return int64(a.Status())
	}
	return 0
}

// codeFor maps a registry error to its wire code.
func codeFor(err error) ResultCode {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, core.ErrValueLimit):
		return ResultValueLimit
	case errors.Is(err, core.ErrMustBeStopped):
		return ResultMustBeStopped
	case errors.Is(err, core.ErrAxisNotFound):
		return ResultAxisNotFound
	}
	return ResultUnknown
}
