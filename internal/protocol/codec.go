package protocol

import (
	"bufio"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidResponse = errors.New("invalid response")

// RenderOutcome formats one response line, without the trailing newline.
func RenderOutcome(out Outcome) (string, error) {
	switch out.Status {
	case StatusOK:
		return "OK " + FormatNumber(out.Value), nil
	case StatusError, StatusInvalid, StatusServer:
		return string(out.Status) + " " + out.Message, nil
	default:
		return "", ErrInvalidResponse
	}
}

// WriteOutcome emits one response line. The caller flushes.
func WriteOutcome(w *bufio.Writer, out Outcome) error {
	line, err := RenderOutcome(out)
	if err != nil {
		return err
	}
	_, err = w.WriteString(line + "\n")
	return err
}

// ReadResponse reads and parses one response line. Used by clients.
func ReadResponse(r *bufio.Reader) (Outcome, error) {
	line, err := ReadLine(r)
	if err != nil {
		return Outcome{}, err
	}
	return ParseResponse(line)
}

func ParseResponse(line string) (Outcome, error) {
	if line == "" {
		return Outcome{}, ErrInvalidResponse
	}
	status, rest, _ := strings.Cut(line, " ")
	switch Status(status) {
	case StatusOK:
		f, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return Outcome{}, ErrInvalidResponse
		}
		return Outcome{Status: StatusOK, Value: f}, nil
	case StatusError, StatusInvalid, StatusServer:
		return Outcome{Status: Status(status), Message: rest}, nil
	default:
		return Outcome{}, ErrInvalidResponse
	}
}

// ReadLine reads one newline-terminated line, tolerating CRLF.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
