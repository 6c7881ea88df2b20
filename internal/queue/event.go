// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation enters the
// confirmed status.  It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	ClientID      uint64  `json:"client_id"`
	Type          string  `json:"reservation_type"`
	LitterID      *uint64 `json:"litter_id,omitempty"`
	PuppyID       *uint64 `json:"puppy_id,omitempty"`
	ChoiceGender  string  `json:"choice_gender,omitempty"`
	DepositCents  uint32  `json:"deposit_cents"`
	ConfirmedAt   string  `json:"confirmed_at"`
}
