package protocol

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

// Request is one client command with its ordered arguments.
type Request struct {
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args,omitempty"`
}

// Response is the tagged result written for every request.
type Response struct {
	OK      bool        `json:"ok"`
	Kind    apperr.Kind `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    any         `json:"data,omitempty"`
}

func Success(message string, data any) Response {
	return Response{OK: true, Message: message, Data: data}
}

func Failure(err error) Response {
	return Response{Kind: apperr.KindOf(err), Message: apperr.Message(err)}
}

// FailureText is a failure whose message is given verbatim.
func FailureText(kind apperr.Kind, message string) Response {
	return Response{Kind: kind, Message: message}
}

func (r Request) Arity(n int) error {
	if len(r.Args) != n {
		return apperr.Protocol(fmt.Sprintf("ERROR: %s expects %d argument(s), got %d", r.Command, n, len(r.Args)))
	}
	return nil
}

// String decodes argument i as a JSON string.
func (r Request) String(i int) (string, error) {
	var s string
	if err := json.Unmarshal(r.Args[i], &s); err != nil {
		return "", r.argError(i, "a string")
	}
	return s, nil
}

// NullableString is like String but maps JSON null to nil.
func (r Request) NullableString(i int) (*string, error) {
	var s *string
	if err := json.Unmarshal(r.Args[i], &s); err != nil {
		return nil, r.argError(i, "a string or null")
	}
	return s, nil
}

// Float decodes argument i as a number. A numeric string is accepted too.
func (r Request) Float(i int) (float64, error) {
	var f float64
	if err := json.Unmarshal(r.Args[i], &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(r.Args[i], &s); err == nil {
		if f, err := model.ParseAmount(s); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
	}
	return 0, r.argError(i, "a number")
}

func (r Request) argError(i int, want string) error {
	return apperr.Protocol(fmt.Sprintf("ERROR: argument %d of %s must be %s", i+1, r.Command, want))
}

// NewRequest builds a request from plain Go values. Clients and tests use it.
func NewRequest(command string, args ...any) (Request, error) {
	req := Request{Command: command, Args: make([]json.RawMessage, 0, len(args))}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return Request{}, err
		}
		req.Args = append(req.Args, raw)
	}
	return req, nil
}
