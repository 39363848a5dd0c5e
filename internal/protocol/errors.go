package protocol

import "fmt"

// DecodeError reports a binary field whose base64 text could not be decoded.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid base64: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidProxyError reports a proxy value that is not a usable proxy address.
type InvalidProxyError struct {
	Proxy string
	Err   error
}

func (e *InvalidProxyError) Error() string {
	return fmt.Sprintf("invalid proxy %q: %v", e.Proxy, e.Err)
}

func (e *InvalidProxyError) Unwrap() error { return e.Err }

// ConstructionError wraps a rejection from the record constructor.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("build server record: %v", e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
