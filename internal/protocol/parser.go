package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseRequest parses one request line. Every error it returns carries
// the exact message the caller reports to the client on an INVALID
// line.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, errors.New("empty request")
	}
	name := strings.ToUpper(fields[0])
	op, ok := LookupOp(name)
	if !ok {
		return Request{}, fmt.Errorf("unknown operation: %s", name)
	}
	args := make([]float64, 0, len(fields)-1)
	for _, tok := range fields[1:] {
		f, err := parseOperand(tok)
		if err != nil {
			return Request{}, err
		}
		args = append(args, f)
	}
	if len(args) != op.Arity() {
		return Request{}, fmt.Errorf("%s requires %d operand(s), got %d", op, op.Arity(), len(args))
	}
	return Request{Op: op, Args: args}, nil
}

func parseOperand(tok string) (float64, error) {
	if !numberToken(tok) {
		return 0, fmt.Errorf("invalid operand: '%s' is not a number", tok)
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		// Syntactically a number but outside float64 range.
		return 0, fmt.Errorf("invalid operand: '%s' is not a number", tok)
	}
	return f, nil
}

// numberToken accepts plain decimal numbers only: an optional leading
// sign, digits, at most one decimal point. Exponents, hex, inf and nan
// are rejected.
func numberToken(tok string) bool {
	s := tok
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits := 0
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
