package protocol

// Field is the request field the decoder is matching.
type Field uint8

const (
	FieldCommand Field = iota
	FieldAxis
	FieldParameter
	FieldValue
)

// Value field budget: separator, sign and the ten digits of an int32.
const valueFieldBudget = 12

// AxisLookup reports whether an axis name is known.
type AxisLookup interface {
	HasAxis(name byte) bool
}

// RequestHandler executes a completed request.
type RequestHandler interface {
	Execute(req *Request)
}

// HandlerFunc adapts a function to RequestHandler.
type HandlerFunc func(req *Request)

func (f HandlerFunc) Execute(req *Request) { f(req) }

// Decoder parses requests one byte at a time. It needs no terminator: a
// request completes on the first byte that cannot extend it, and that byte
// is then decoded as the start of the next request.
//
// A Decoder is owned by the byte arrival context.
type Decoder struct {
	axes    AxisLookup
	handler RequestHandler

	req        Request
	field      Field
	index      int
	candidates uint32
}

// NewDecoder creates a decoder. It fails if the grammar tokens are not
// prefix free.
func NewDecoder(axes AxisLookup, handler RequestHandler) (*Decoder, error) {
	if err := ValidateGrammar(); err != nil {
		return nil, err
	}
	return &Decoder{axes: axes, handler: handler}, nil
}

// Reset abandons the request in flight.
func (d *Decoder) Reset() {
	d.req.reset()
	d.field = FieldCommand
	d.index = 0
}

// Pending reports whether part of a request has been decoded.
func (d *Decoder) Pending() bool {
	return d.field != FieldCommand || d.index > 0
}

// Field returns the field being matched.
func (d *Decoder) Field() Field { return d.field }

// Write decodes p. It always consumes every byte.
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		d.Decode(b)
	}
	return len(p), nil
}

// Decode feeds one byte.
func (d *Decoder) Decode(b byte) {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	switch d.field {
	case FieldCommand:
		d.decodeCommand(b)
	case FieldAxis:
		d.decodeAxis(b)
	case FieldParameter:
		d.decodeParameter(b)
	case FieldValue:
		d.decodeValue(b)
	}
}

// Flush executes a request whose command has been recognized, as if a
// non-matching byte had arrived. It is used when the line goes idle.
func (d *Decoder) Flush() {
	if d.field == FieldCommand {
		d.index = 0
		return
	}
	d.execute()
}

func (d *Decoder) execute() {
	if d.handler != nil {
		d.handler.Execute(&d.req)
	}
	d.Reset()
}

// filter drops the candidates whose token does not have b at position i.
// It returns the number left and the last one that matched.
func filter(candidates *uint32, i int, b byte, first, count uint8, token func(uint8) string) (left int, match uint8) {
	for t := first; t < count; t++ {
		bit := uint32(1) << t
		if *candidates&bit == 0 {
			continue
		}
		s := token(t)
		if len(s) > i && s[i] == b {
			match = t
			left++
			continue
		}
		*candidates &^= bit
	}
	return left, match
}

func commandToken(t uint8) string   { return Command(t).String() }
func parameterToken(t uint8) string { return Parameter(t).String() }

func (d *Decoder) decodeCommand(b byte) {
	if d.index == 0 {
		d.candidates = ^uint32(0)
	}
	left, match := filter(&d.candidates, d.index, b, uint8(CommandAdd), uint8(commandCount), commandToken)

	switch {
	case left == 0:
		if d.index > 0 {
			d.index = 0
			d.decodeCommand(b)
		}
	case left == 1 && len(Command(match).String())-1 == d.index:
		d.req.Command = Command(match)
		d.field = FieldAxis
		d.index = 0
	default:
		d.index++
	}
}

func (d *Decoder) decodeAxis(b byte) {
	if d.axes == nil || !d.axes.HasAxis(b) {
		d.execute()
		d.decodeCommand(b)
		return
	}
	d.req.Axis = b
	d.field = FieldParameter
	d.index = 0
}

func (d *Decoder) decodeParameter(b byte) {
	if d.index == 0 {
		if b == '.' {
			d.candidates = ^uint32(0)
			d.index++
			return
		}
		d.field = FieldValue
		d.decodeValue(b)
		return
	}

	i := d.index - 1
	left, match := filter(&d.candidates, i, b, uint8(ParamAll), uint8(paramCount), parameterToken)

	switch {
	case left == 1 && len(Parameter(match).String()) == i+1:
		d.req.Parameter = Parameter(match)
		d.field = FieldValue
		d.index = 0
	case left == 0:
		d.field = FieldValue
		d.index = 0
		d.decodeValue(b)
	default:
		d.index++
	}
}

func (d *Decoder) decodeValue(b byte) {
	if d.index == 0 {
		if b == ':' {
			d.index++
			return
		}
		d.execute()
		d.decodeCommand(b)
		return
	}

	if d.index == 1 {
		switch b {
		case '-':
			d.req.Negative = true
			d.index++
			return
		case '+':
			d.index++
			return
		}
	}

	if b >= '0' && b <= '9' && d.index < valueFieldBudget {
		d.req.Magnitude = d.req.Magnitude*10 + uint64(b-'0')
		d.index++
		return
	}
	d.execute()
	d.decodeCommand(b)
}
