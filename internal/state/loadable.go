// Package state models data that is fetched asynchronously.
package state

import "fmt"

type Status int

const (
	NotLoaded Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Loadable holds a value of T together with its load status. Only a Ready
// loadable carries a value and only a Failed one carries an error.
type Loadable[T any] struct {
	status Status
	value  T
	err    error
}

func NewNotLoaded[T any]() Loadable[T] { return Loadable[T]{status: NotLoaded} }

func NewLoading[T any]() Loadable[T] { return Loadable[T]{status: Loading} }

func NewReady[T any](v T) Loadable[T] { return Loadable[T]{status: Ready, value: v} }

func NewFailed[T any](err error) Loadable[T] { return Loadable[T]{status: Failed, err: err} }

func (l Loadable[T]) Status() Status { return l.status }

// Get returns the value and true when l is Ready.
func (l Loadable[T]) Get() (T, bool) {
	return l.value, l.status == Ready
}

// Err returns the failure cause, nil unless l is Failed.
func (l Loadable[T]) Err() error { return l.err }

// Cases is the set of handlers Match dispatches to. Every field is
// required.
type Cases[T, R any] struct {
	NotLoaded func() R
	Loading   func() R
	Ready     func(T) R
	Failed    func(error) R
}

// Match calls the handler for l's status. It panics if that handler is nil.
func Match[T, R any](l Loadable[T], c Cases[T, R]) R {
	switch l.status {
	case NotLoaded:
		if c.NotLoaded == nil {
			panic(missing(l.status))
		}
		return c.NotLoaded()
	case Loading:
		if c.Loading == nil {
			panic(missing(l.status))
		}
		return c.Loading()
	case Ready:
		if c.Ready == nil {
			panic(missing(l.status))
		}
		return c.Ready(l.value)
	case Failed:
		if c.Failed == nil {
			panic(missing(l.status))
		}
		return c.Failed(l.err)
	default:
		panic(fmt.Sprintf("state: unknown status %d", int(l.status)))
	}
}

// Map transforms the ready value, leaving other states untouched.
func Map[T, U any](l Loadable[T], f func(T) U) Loadable[U] {
	switch l.status {
	case Ready:
		return NewReady(f(l.value))
	case Failed:
		return NewFailed[U](l.err)
	default:
		return Loadable[U]{status: l.status}
	}
}

func missing(s Status) string {
	return "state: missing " + s.String() + " case"
}
