package model

import "time"

// Puppy is an individual animal born in a litter and offered for
// reservation.  A puppy can be claimed by at most one reservation,
// enforced with a unique index on reservations.puppy_id.
//
// Fields:
//  ID        – primary key identifier.
//  LitterID  – litter the puppy was born in.
//  Name      – call name or temporary identifier.
//  Gender    – male or female.
//  Color     – coat color description.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Puppy struct {
	ID        uint64    `json:"id"`         // puppies.id
	LitterID  uint64    `json:"litter_id"`  // puppies.litter_id
	Name      string    `json:"name"`       // puppies.name
	Gender    string    `json:"gender"`     // puppies.gender
	Color     string    `json:"color"`      // puppies.color
	CreatedAt time.Time `json:"created_at"` // puppies.created_at
	UpdatedAt time.Time `json:"updated_at"` // puppies.updated_at
}
