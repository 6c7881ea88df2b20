package model

import "time"

// Reservation statuses.  The forward chain is awaiting_deposit →
// confirmed → contract_pending → active → completed; cancelled and
// expired are reachable from every non-terminal state.
const (
	StatusAwaitingDeposit = "awaiting_deposit"
	StatusConfirmed       = "confirmed"
	StatusContractPending = "contract_pending"
	StatusActive          = "active"
	StatusCompleted       = "completed"
	StatusCancelled       = "cancelled"
	StatusExpired         = "expired"
)

// Reservation types.
const (
	TypeLitterChoice  = "litter_choice"
	TypeSpecificPuppy = "specific_puppy"
)

// SlotHoldingStatuses are the "active-ish" statuses counted by the
// overbooking auditor.  A reservation in one of these states holds a
// slot of its choice gender on its litter.
var SlotHoldingStatuses = []string{StatusConfirmed, StatusContractPending, StatusActive}

// StatusChange is one entry of a reservation's append-only status
// history.  Insertion order is chronological and significant.
type StatusChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}

// Reservation is a client's claim against either a specific puppy or a
// gender-choice slot within a litter.  It is mutated exclusively
// through status transitions or field updates that do not touch the
// status; the status history records every transition.
//
// Fields:
//  ID            – primary key identifier.
//  ClientID      – owning client.
//  Type          – litter_choice or specific_puppy.
//  LitterID      – litter claimed (required for litter_choice).
//  PuppyID       – puppy claimed (required for specific_puppy; unique).
//  ChoiceGender  – gender of the claimed slot (nullable).
//  DepositCents  – required deposit amount in cents.
//  DepositPaid   – whether the deposit has been received.
//  Status        – lifecycle state, see status constants.
//  ExpiresAt     – deposit deadline for awaiting_deposit reservations.
//  StatusHistory – append-only audit trail of transitions.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64         `json:"id"`               // reservations.id
	ClientID      uint64         `json:"client_id"`        // reservations.client_id
	Type          string         `json:"reservation_type"` // reservations.reservation_type
	LitterID      *uint64        `json:"litter_id"`        // reservations.litter_id (nullable)
	PuppyID       *uint64        `json:"puppy_id"`         // reservations.puppy_id (nullable)
	ChoiceGender  *string        `json:"choice_gender"`    // reservations.choice_gender (nullable)
	DepositCents  uint32         `json:"deposit_cents"`    // reservations.deposit_cents
	DepositPaid   bool           `json:"deposit_paid"`     // reservations.deposit_paid
	Status        string         `json:"status"`           // reservations.status
	ExpiresAt     *time.Time     `json:"expires_at"`       // reservations.expires_at (nullable)
	StatusHistory []StatusChange `json:"status_history"`   // reservations.status_history (JSON)
	CreatedAt     time.Time      `json:"created_at"`       // reservations.created_at
	UpdatedAt     time.Time      `json:"updated_at"`       // reservations.updated_at
}

// HoldsSlot reports whether a reservation in the given status holds a
// litter slot.  Slots are blocked when a reservation enters confirmed
// and stay blocked through contract_pending and active.
func HoldsSlot(status string) bool {
	switch status {
	case StatusConfirmed, StatusContractPending, StatusActive:
		return true
	}
	return false
}

// TerminalStatus reports whether a status admits no further
// transitions.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known reservation
// statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusAwaitingDeposit, StatusConfirmed, StatusContractPending,
		StatusActive, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// ReservationPreferences is the optional one-to-one document attached
// to a reservation.  Preference and score fields are stored as a raw
// JSON document so the client application can evolve them freely.
type ReservationPreferences struct {
	ReservationID uint64    `json:"reservation_id"` // reservation_preferences.reservation_id
	Data          string    `json:"data"`           // reservation_preferences.data (JSON document)
	UpdatedAt     time.Time `json:"updated_at"`     // reservation_preferences.updated_at
}

// ReservationDocument is a piece of document metadata attached to a
// reservation (contract scans, deposit receipts).  File contents live
// in external storage; only the reference is kept here.
type ReservationDocument struct {
	ID            uint64    `json:"id"`             // reservation_documents.id
	ReservationID uint64    `json:"reservation_id"` // reservation_documents.reservation_id
	Name          string    `json:"name"`           // reservation_documents.name
	URL           string    `json:"url"`            // reservation_documents.url
	UploadedAt    time.Time `json:"uploaded_at"`    // reservation_documents.uploaded_at
}
