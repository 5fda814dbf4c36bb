package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/loganszeto/calcd-go/internal/protocol"
)

// Results whose magnitude exceeds this are reported as overflow rather
// than returned to the client.
const overflowLimit = 1e308

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("result overflow: number too large")
	ErrNotFinite      = errors.New("invalid result: not a finite number")
	ErrNegativeSqrt   = errors.New("cannot calculate square root of negative number")
)

// Evaluate computes a single operation. Operand count is assumed to
// match the operation's arity; the parser enforces that upstream.
func Evaluate(op protocol.Op, args []float64) (float64, error) {
	switch op {
	case protocol.OpAdd:
		return checkOverflow(args[0] + args[1])
	case protocol.OpSub:
		return checkOverflow(args[0] - args[1])
	case protocol.OpMul:
		return checkOverflow(args[0] * args[1])
	case protocol.OpDiv:
		if args[1] == 0 {
			return 0, ErrDivisionByZero
		}
		return checkOverflow(args[0] / args[1])
	case protocol.OpPow:
		return pow(args[0], args[1])
	case protocol.OpSqrt:
		if args[0] < 0 {
			return 0, ErrNegativeSqrt
		}
		return math.Sqrt(args[0]), nil
	default:
		return 0, fmt.Errorf("unsupported operation: %s", op)
	}
}

// pow guards against argument pairs that are certain to explode, then
// classifies the result: non-finite values are invalid, finite values
// beyond the limit are overflow.
func pow(a, b float64) (float64, error) {
	if math.Abs(a) > 1000 && math.Abs(b) > 10 {
		return 0, ErrOverflow
	}
	r := math.Pow(a, b)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, ErrNotFinite
	}
	return checkOverflow(r)
}

func checkOverflow(f float64) (float64, error) {
	if math.Abs(f) > overflowLimit {
		return 0, ErrOverflow
	}
	return f, nil
}
