package model

import "time"

// Litter lifecycle statuses.
const (
	LitterPlanned  = "planned"
	LitterPregnant = "pregnant"
	LitterBorn     = "born"
	LitterArchived = "archived"
)

// Genders used for slot accounting and choice reservations.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Litter is a breeding event producing a cohort of puppies.  It owns
// the availability ledger: two counter pairs tracking how many slots
// per gender were declared and how many are still claimable.  The
// counters are only mutated through the slot allocator, which keeps
// 0 <= available_X <= total_X with atomic conditional updates.
//
// Fields:
//  ID               – primary key identifier.
//  FatherID         – sire of the litter.
//  MotherID         – dam of the litter.
//  Status           – planned, pregnant, born or archived.
//  TotalMales       – declared male capacity.
//  TotalFemales     – declared female capacity.
//  AvailableMales   – male slots still claimable.
//  AvailableFemales – female slots still claimable.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Litter struct {
	ID               uint64    `json:"id"`                // litters.id
	FatherID         uint64    `json:"father_id"`         // litters.father_id
	MotherID         uint64    `json:"mother_id"`         // litters.mother_id
	Status           string    `json:"status"`            // litters.status
	TotalMales       uint32    `json:"total_males"`       // litters.total_males
	TotalFemales     uint32    `json:"total_females"`     // litters.total_females
	AvailableMales   uint32    `json:"available_males"`   // litters.available_males
	AvailableFemales uint32    `json:"available_females"` // litters.available_females
	CreatedAt        time.Time `json:"created_at"`        // litters.created_at
	UpdatedAt        time.Time `json:"updated_at"`        // litters.updated_at
}

// GenderReport is the per-gender section of an overbooking report.
// Reserved counts reservations in slot-holding statuses whose
// choice_gender matches; Overbooked flags reserved > total.
type GenderReport struct {
	Total      uint32 `json:"total"`
	Reserved   uint32 `json:"reserved"`
	Available  uint32 `json:"available"`
	Overbooked bool   `json:"overbooked"`
}

// OverbookingReport reconciles confirmed reservation counts against a
// litter's declared capacity.  It is purely diagnostic: it never
// mutates state and never blocks a transition by itself.
type OverbookingReport struct {
	LitterID        uint64       `json:"litter_id"`
	Males           GenderReport `json:"males"`
	Females         GenderReport `json:"females"`
	TotalReserved   uint32       `json:"total_reserved"`
	TotalCapacity   uint32       `json:"total_capacity"`
	TotalOverbooked bool         `json:"total_overbooked"`
}
