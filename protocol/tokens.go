package protocol

import "errors"

// Command is the verb of a request.
type Command uint8

const (
	CommandUnknown Command = iota
	CommandAdd
	CommandGet
	CommandSet
	CommandReset

	commandCount
)

func (c Command) String() string {
	switch c {
	case CommandAdd:
		return "ADD"
	case CommandGet:
		return "GET"
	case CommandSet:
		return "SET"
	case CommandReset:
		return "RESET"
	}
	return "UNKNOWN"
}

// Parameter selects the axis field a request reads or writes.
type Parameter uint8

const (
	ParamUndefined Parameter = iota
	ParamAll
	ParamTargetPosition
	ParamCurrentPosition
	ParamMinSPS
	ParamMaxSPS
	ParamCurrentSPS
	ParamAccSPS
	ParamAccPrescaler
	ParamStatus

	paramCount
)

func (p Parameter) String() string {
	switch p {
	case ParamAll:
		return "ALL"
	case ParamTargetPosition:
		return "TARGETPOSITION"
	case ParamCurrentPosition:
		return "CURRENTPOSITION"
	case ParamMinSPS:
		return "MINSPS"
	case ParamMaxSPS:
		return "MAXSPS"
	case ParamCurrentSPS:
		return "CURRENTSPS"
	case ParamAccSPS:
		return "ACCSPS"
	case ParamAccPrescaler:
		return "ACCPRESCALER"
	case ParamStatus:
		return "STATUS"
	}
	return "UNDEFINED"
}

// Writable reports whether ADD and SET may target the parameter.
func (p Parameter) Writable() bool {
	switch p {
	case ParamTargetPosition, ParamCurrentPosition, ParamMinSPS, ParamMaxSPS:
		return true
	}
	return false
}

// ListedParameters returns the parameters reported by GET ALL, in order.
func ListedParameters() []Parameter {
	out := make([]Parameter, 0, paramCount-ParamAll-1)
	for p := ParamAll + 1; p < paramCount; p++ {
		out = append(out, p)
	}
	return out
}

// ParseParameter maps a token back to its parameter.
func ParseParameter(token string) (Parameter, bool) {
	for p := ParamAll; p < paramCount; p++ {
		if p.String() == token {
			return p, true
		}
	}
	return ParamUndefined, false
}

func commandTokens() []string {
	out := make([]string, 0, commandCount-1)
	for c := CommandAdd; c < commandCount; c++ {
		out = append(out, c.String())
	}
	return out
}

func parameterTokens() []string {
	out := make([]string, 0, paramCount-1)
	for p := ParamAll; p < paramCount; p++ {
		out = append(out, p.String())
	}
	return out
}

// Grammar errors.
var (
	ErrTokenPrefix   = errors.New("token is a prefix of another token")
	ErrTokenEmpty    = errors.New("empty token")
	ErrTooManyTokens = errors.New("too many tokens for candidate set")
)

// CheckPrefixFree verifies that no token is empty, none is a prefix of
// another, and the set fits the decoder's candidate bitset.
func CheckPrefixFree(tokens []string) error {
	if len(tokens) >= 32 {
		return ErrTooManyTokens
	}
	for i, a := range tokens {
		if a == "" {
			return ErrTokenEmpty
		}
		for j, b := range tokens {
			if i != j && len(a) <= len(b) && b[:len(a)] == a {
				return &TokenError{Token: a, Other: b}
			}
		}
	}
	return nil
}

// TokenError names the offending pair of a prefix violation.
type TokenError struct {
	Token string
	Other string
}

func (e *TokenError) Error() string {
	return "token " + e.Token + " is a prefix of " + e.Other
}

func (e *TokenError) Unwrap() error { return ErrTokenPrefix }

// ValidateGrammar checks the command and parameter token sets.
func ValidateGrammar() error {
	if err := CheckPrefixFree(commandTokens()); err != nil {
		return err
	}
	return CheckPrefixFree(parameterTokens())
}
