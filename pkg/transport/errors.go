package transport

import "fmt"

// ConnectionError reports a serial device that could not be opened or
// configured.
type ConnectionError struct {
	Port string
	Err  error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Port, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
