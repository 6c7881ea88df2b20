// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to structured error codes. CapacityError is a typed error so
// callers can both match it with errors.As and surface its message,
// which names the exhausted gender bucket.
package repository

import (
	"errors"
	"fmt"
)

// Not-found sentinels, one per entity.  Handlers translate these into
// HTTP 404 responses with code "not_found".
var (
	ErrAnimalNotFound      = errors.New("animal not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrLitterNotFound      = errors.New("litter not found")
	ErrPuppyNotFound       = errors.New("puppy not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ErrPuppyReserved is returned when a reservation targets a puppy that
// already has one.  Handlers should translate this into HTTP 409 with
// code "conflict".
var ErrPuppyReserved = errors.New("puppy already has a reservation")

// CapacityError is returned by the slot allocator when a litter has no
// available slots left for the requested gender.  The blocked update
// never executes, so the ledger is untouched.
type CapacityError struct {
	LitterID uint64
	Gender   string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("no available %s slots in litter %d", e.Gender, e.LitterID)
}

// IsCapacity reports whether err is a CapacityError.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
