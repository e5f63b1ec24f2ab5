// Package collection is the client side of the remote collection store: a
// flat keyed record service exposing one REST collection per entity type.
package collection

import (
	"context"
	"errors"
	"fmt"
)

type Name string

const (
	Members   Name = "members"
	Users     Name = "users"
	TaskTypes Name = "taskTypes"
	Tasks     Name = "tasks"
)

var names = []Name{Members, Users, TaskTypes, Tasks}

// Names returns the four collections the store serves.
func Names() []Name {
	return append([]Name(nil), names...)
}

// Valid reports whether n is one of the four known collections.
func (n Name) Valid() bool {
	for _, k := range names {
		if n == k {
			return true
		}
	}
	return false
}

// Filter selects records whose fields equal the given values exactly.
type Filter map[string]string

// Store is the set of primitives the directory client is allowed to use.
// Decoding targets are passed as out; a nil out discards the response body.
type Store interface {
	List(ctx context.Context, coll Name, filter Filter, out any) error
	Get(ctx context.Context, coll Name, id int64, out any) error
	Create(ctx context.Context, coll Name, record any, out any) error
	Update(ctx context.Context, coll Name, id int64, patch any, out any) error
	Delete(ctx context.Context, coll Name, id int64) error
}

// ErrNotFound is wrapped by a TransportError when the store answers 404.
var ErrNotFound = errors.New("record not found")

// TransportError reports a primitive that could not complete: network
// failure, timeout, or a non-2xx answer from the store.
type TransportError struct {
	Op         string
	Collection Name
	ID         int64
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	target := string(e.Collection)
	if e.ID != 0 {
		target = fmt.Sprintf("%s/%d", e.Collection, e.ID)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s %s: status %d: %v", e.Op, target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries a store 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
