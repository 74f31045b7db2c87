// Package result carries either a value or a classified failure message
// across the remote boundary, so callers handle both branches explicitly.
package result

import "fmt"

// Kind classifies a failure. The classification is coarse: callers display
// Message and rarely branch on Kind.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindNotFound
	KindNoConnectivity
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindNoConnectivity:
		return "no_connectivity"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is Ok(value) or Err(kind, message).
type Result[T any] struct {
	value   T
	kind    Kind
	message string
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](kind Kind, message string) Result[T] {
	if kind == KindNone {
		kind = KindUnexpected
	}
	return Result[T]{kind: kind, message: message}
}

// Errf is Err with a formatted message.
func Errf[T any](kind Kind, format string, args ...any) Result[T] {
	return Err[T](kind, fmt.Sprintf(format, args...))
}

func (r Result[T]) IsOk() bool { return r.kind == KindNone }

// Get returns the value and whether the result is Ok.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.kind == KindNone
}

func (r Result[T]) Kind() Kind { return r.kind }

func (r Result[T]) Message() string { return r.message }

// Err converts a failed result to an error. It returns nil for Ok.
func (r Result[T]) Err() error {
	if r.kind == KindNone {
		return nil
	}
	return &Error{Kind: r.kind, Message: r.message}
}

// Fold calls onOk or onErr depending on the branch.
func (r Result[T]) Fold(onOk func(T), onErr func(Kind, string)) {
	if r.kind == KindNone {
		onOk(r.value)
		return
	}
	onErr(r.kind, r.message)
}

// Error is the error form of a failed Result.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
