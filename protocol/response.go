package protocol

import (
	"strconv"

	"stepperhub/core"
)

// ResultCode is the numeric error code reported on the wire.
type ResultCode uint8

const (
	ResultOK               ResultCode = 0
	ResultValueLimit       ResultCode = 1
	ResultMustBeStopped    ResultCode = 2
	ResultAxisNotFound     ResultCode = 3
	ResultInvalidParameter ResultCode = 4
	ResultUnknown          ResultCode = 5
	ResultDecoderFault     ResultCode = 6
)

// Message returns the text that follows the code in an ERROR line.
func (c ResultCode) Message() string {
	switch c {
	case ResultOK:
		return "OK."
	case ResultValueLimit:
		return "Value out of range."
	case ResultMustBeStopped:
		return "Stepper must be STOPPED to execute this command."
	case ResultAxisNotFound:
		return "No stepper with specified label."
	case ResultInvalidParameter:
		return "Invalid command parameter."
	case ResultDecoderFault:
		return "Program error in command decoder."
	}
	return "Unknown error."
}

// Response line prefixes.
const (
	PrefixOK    = "OK - "
	PrefixLimit = "LIMIT - "
	PrefixError = "ERROR - "
	lineEnd     = "\r\n"
)

const hexDigits = "0123456789ABCDEF"

func appendHex2(buf []byte, v uint8) []byte {
	return append(buf, hexDigits[v>>4], hexDigits[v&0x0F])
}

// appendParam appends "<PARAM> = <value>" with STATUS decomposed into flags.
func appendParam(buf []byte, p Parameter, value int64) []byte {
	buf = append(buf, p.String()...)
	buf = append(buf, " = "...)
	if p != ParamStatus {
		return strconv.AppendInt(buf, value, 10)
	}
	st := core.Status(value)
	buf = append(buf, "0x"...)
	buf = appendHex2(buf, uint8(st))
	buf = append(buf, ' ')
	return append(buf, st.String()...)
}

// AppendValueLine appends a single parameter response with the given prefix.
func AppendValueLine(buf []byte, prefix string, axis byte, p Parameter, value int64) []byte {
	buf = append(buf, prefix...)
	buf = append(buf, axis, '.')
	buf = appendParam(buf, p, value)
	return append(buf, lineEnd...)
}

// AppendError appends an ERROR line.
func AppendError(buf []byte, code ResultCode) []byte {
	buf = append(buf, PrefixError...)
	buf = strconv.AppendUint(buf, uint64(code), 10)
	buf = append(buf, ' ')
	buf = append(buf, code.Message()...)
	return append(buf, lineEnd...)
}

// AppendListing appends the response to GET ALL: a header line followed by
// one tab indented line per listed parameter.
func AppendListing(buf []byte, axis byte, value func(Parameter) int64) []byte {
	buf = append(buf, PrefixOK...)
	buf = append(buf, axis)
	buf = append(buf, lineEnd...)
	for _, p := range ListedParameters() {
		buf = append(buf, '\t', '.')
		buf = appendParam(buf, p, value(p))
		buf = append(buf, lineEnd...)
	}
	return buf
}
