// Package outcome provides the uniform success/failure result container
// returned by every identity-provider gateway operation.
//
// An Outcome is constructed exactly once through OK, OKMessage or Fail and is
// immutable afterwards. Callers must branch on IsSuccess before reading the
// payload; Data panics when called on a failed outcome so that a missing
// guard surfaces during development instead of propagating a zero value.
package outcome

import "fmt"

// Outcome carries the result of a gateway operation: a success flag, an
// optional payload and a human-readable message. A failed Outcome never
// carries a payload.
type Outcome[T any] struct {
	success bool
	data    T
	message string
}

// OK returns a successful Outcome carrying data and no message.
func OK[T any](data T) Outcome[T] {
	return Outcome[T]{success: true, data: data}
}

// OKMessage returns a successful Outcome carrying data and a message.
func OKMessage[T any](data T, message string) Outcome[T] {
	return Outcome[T]{success: true, data: data, message: message}
}

// Fail returns a failed Outcome with the given message.
func Fail[T any](message string) Outcome[T] {
	return Outcome[T]{message: message}
}

// Failf returns a failed Outcome with a formatted message.
func Failf[T any](format string, args ...any) Outcome[T] {
	return Outcome[T]{message: fmt.Sprintf(format, args...)}
}

// IsSuccess reports whether the operation succeeded.
func (o Outcome[T]) IsSuccess() bool {
	return o.success
}

// IsFailure reports whether the operation failed.
func (o Outcome[T]) IsFailure() bool {
	return !o.success
}

// Message returns the human-readable message. It is always non-empty for a
// failed Outcome and may be empty for a successful one.
func (o Outcome[T]) Message() string {
	return o.message
}

// Data returns the payload of a successful Outcome. It panics when called on
// a failed Outcome; callers must check IsSuccess first.
func (o Outcome[T]) Data() T {
	if !o.success {
		panic("outcome: Data called on a failed outcome")
	}
	return o.data
}

// Get returns the payload and a flag reporting whether it is valid. The
// payload is the zero value of T when the Outcome is a failure.
func (o Outcome[T]) Get() (T, bool) {
	return o.data, o.success
}
