// Package id provides identifiers tagged with the kind of entity they name.
//
// An ID[User] and an ID[Channel] share the same runtime representation but are
// distinct types, so passing one where the other is expected does not compile.
// On the wire an ID is a bare unsigned integer.
package id

import (
	"fmt"
	"strconv"
)

type ID[T any] uint64

func New[T any](raw uint64) ID[T] {
	return ID[T](raw)
}

// Parse reads a decimal identifier, typically from a URL path or query.
func Parse[T any](s string) (ID[T], error) {
	raw, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return ID[T](raw), nil
}

func (i ID[T]) Uint64() uint64 {
	return uint64(i)
}

func (i ID[T]) String() string {
	return strconv.FormatUint(uint64(i), 10)
}
