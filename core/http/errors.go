package http

import "errors"

// Parser error kinds. These classify a failed parse so the connection
// driver can map it to the right status code without inspecting strings.
var (
	ErrRequestTooLarge    = errors.New("request too large")
	ErrHeadersTooLarge    = errors.New("headers too large")
	ErrBodyTooLarge       = errors.New("body too large")
	ErrInvalidRequest     = errors.New("invalid HTTP request")
	ErrInvalidRequestLine = errors.New("invalid request line")
	ErrInvalidHeaderLine  = errors.New("invalid header line")
	ErrTooManyHeaders     = errors.New("too many headers")
)

// MethodTooLong and friends are covered by ErrInvalidRequestLine; kept
// as a single taxonomy per the parser's error contract.
