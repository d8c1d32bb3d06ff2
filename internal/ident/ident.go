// Package ident generates identifiers for new workouts, blueprints and
// exercises.
package ident

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
)

// New returns a short base-36 identifier taken from a random UUID. IDs are
// not ordered and must not be used to infer creation order.
func New() string {
	u := uuid.New()
	return strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
}

// Generator produces identifiers. Tests substitute deterministic generators.
type Generator func() string
