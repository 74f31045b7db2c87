package repository

import "fmt"

type StateKind int

const (
	StateLoading StateKind = iota
	StateSuccess
	StateError
	StateEmpty
)

func (k StateKind) String() string {
	switch k {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is one emission of a query pipeline.
type State[T any] struct {
	Kind StateKind
	Data T
	// FromCache marks a Success built from the local cache.
	FromCache      bool
	IsSearchResult bool
	// Message is the error text for StateError, or an optional note on a
	// StateSuccess.
	Message string
}

func Loading[T any]() State[T] { return State[T]{Kind: StateLoading} }

func Success[T any](data T, fromCache, isSearch bool) State[T] {
	return State[T]{Kind: StateSuccess, Data: data, FromCache: fromCache, IsSearchResult: isSearch}
}

func Failure[T any](message string) State[T] { return State[T]{Kind: StateError, Message: message} }

func Empty[T any]() State[T] { return State[T]{Kind: StateEmpty} }

// Terminal reports whether the state ends user-visible loading.
func (s State[T]) Terminal() bool {
	return s.Kind == StateError || s.Kind == StateEmpty || (s.Kind == StateSuccess && !s.FromCache)
}
