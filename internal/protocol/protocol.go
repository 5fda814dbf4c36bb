package protocol

import (
	"math"
	"strconv"
	"strings"
)

// Banner is the single line sent to every client on connect.
const Banner = "Welcome to calcd (CalcProtocol/1.0)"

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpSqrt
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpPow:
		return "POW"
	case OpSqrt:
		return "SQRT"
	default:
		return "UNKNOWN"
	}
}

func (op Op) Arity() int {
	if op == OpSqrt {
		return 1
	}
	return 2
}

// LookupOp resolves an operation name case-insensitively.
func LookupOp(name string) (Op, bool) {
	switch strings.ToUpper(name) {
	case "ADD":
		return OpAdd, true
	case "SUB":
		return OpSub, true
	case "MUL":
		return OpMul, true
	case "DIV":
		return OpDiv, true
	case "POW":
		return OpPow, true
	case "SQRT":
		return OpSqrt, true
	default:
		return 0, false
	}
}

type Request struct {
	Op   Op
	Args []float64
}

type Status string

const (
	StatusOK      Status = "OK"
	StatusError   Status = "ERROR"
	StatusInvalid Status = "INVALID"
	StatusServer  Status = "SERVER"
)

type Outcome struct {
	Status  Status
	Value   float64
	Message string
}

// FormatNumber renders integral values without a fractional part
// ("OK 8", never "OK 8.0") and everything else in the shortest form
// that round-trips. Values at or beyond 2^53 lose integer precision,
// so they fall through to the 'g' form.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
