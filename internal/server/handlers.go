package server

import (
	"github.com/loganszeto/calcd-go/internal/calc"
	"github.com/loganszeto/calcd-go/internal/protocol"
)

func (s *Server) process(line string) (out protocol.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic while handling request", "panic", r)
			out = protocol.Outcome{Status: protocol.StatusError, Message: "internal server error"}
		}
	}()
	return Process(line)
}

// Process parses and evaluates one request line, classifying any
// failure into a protocol outcome.
func Process(line string) protocol.Outcome {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		return protocol.Outcome{Status: protocol.StatusInvalid, Message: err.Error()}
	}
	val, err := calc.Evaluate(req.Op, req.Args)
	if err != nil {
		return protocol.Outcome{Status: protocol.StatusError, Message: err.Error()}
	}
	return protocol.Outcome{Status: protocol.StatusOK, Value: val}
}
