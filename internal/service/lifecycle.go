// Package service implements the reservation lifecycle state machine
// and the expiry sweeper.  All status transitions funnel through one
// transition table, so the slot accounting rules cannot drift between
// the create-time and update-time entry points.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/queue"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

// TransitionError reports a status change the state machine does not
// allow.  Handlers translate it into HTTP 409 with code
// "invalid_transition".
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition reservation from %s to %s", e.From, e.To)
}

// ValidationError reports invalid caller input.  Handlers translate it
// into HTTP 400 with code "validation_error".
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// allowedTransitions is the single source of truth for the state
// machine.  The forward chain moves one step at a time; cancelled and
// expired are reachable from every non-terminal state; terminal states
// admit nothing.
var allowedTransitions = map[string][]string{
	model.StatusAwaitingDeposit: {model.StatusConfirmed, model.StatusCancelled, model.StatusExpired},
	model.StatusConfirmed:       {model.StatusContractPending, model.StatusCancelled, model.StatusExpired},
	model.StatusContractPending: {model.StatusActive, model.StatusCancelled, model.StatusExpired},
	model.StatusActive:          {model.StatusCompleted, model.StatusCancelled, model.StatusExpired},
	model.StatusCompleted:       {},
	model.StatusCancelled:       {},
	model.StatusExpired:         {},
}

// CanTransition reports whether the state machine allows moving a
// reservation from one status to another.
func CanTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Lifecycle drives reservation status transitions and their slot
// accounting side effects.  Every mutation runs inside one database
// transaction: the conditional ledger update and the reservation write
// commit or roll back together, so a capacity failure leaves no
// partial state behind.
type Lifecycle struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	litters      *repository.LitterRepo
	clients      *repository.ClientRepo
	puppies      *repository.PuppyRepo
	rdb          *redis.Client // nil disables availability cache invalidation
	holdTTL      time.Duration // default deposit deadline for new reservations

	// publish emits confirmed events; swapped out in tests.
	publish func(context.Context, queue.ReservationConfirmedEvent) error
}

// NewLifecycle constructs the lifecycle service.  The Redis client may
// be nil; everything else must be non-nil.
func NewLifecycle(db *sql.DB, reservations *repository.ReservationRepo, litters *repository.LitterRepo,
	clients *repository.ClientRepo, puppies *repository.PuppyRepo, rdb *redis.Client, holdTTL time.Duration) *Lifecycle {
	if db == nil || reservations == nil || litters == nil || clients == nil || puppies == nil {
		panic("nil dependency passed to NewLifecycle")
	}
	if holdTTL <= 0 {
		holdTTL = 24 * time.Hour
	}
	return &Lifecycle{
		db:           db,
		reservations: reservations,
		litters:      litters,
		clients:      clients,
		puppies:      puppies,
		rdb:          rdb,
		holdTTL:      holdTTL,
		publish:      PublishReservationConfirmed,
	}
}

// AvailabilityCacheKey names the Redis key holding a litter's cached
// availability snapshot.  The lifecycle deletes it whenever the ledger
// changes; the availability handler repopulates it.
func AvailabilityCacheKey(litterID uint64) string {
	return fmt.Sprintf("availability:litter:%d", litterID)
}

// CreateInput carries the caller-supplied fields for a new
// reservation.
type CreateInput struct {
	ClientID     uint64     `json:"client_id"`
	Type         string     `json:"reservation_type"`
	LitterID     *uint64    `json:"litter_id"`
	PuppyID      *uint64    `json:"puppy_id"`
	ChoiceGender *string    `json:"choice_gender"`
	DepositCents uint32     `json:"deposit_cents"`
	DepositPaid  bool       `json:"deposit_paid"`
	Status       string     `json:"status"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// validate checks the creation rules: client and deposit are
// mandatory, litter_choice requires a litter, specific_puppy requires
// a puppy, and any supplied gender or status must be a known value.
func (in *CreateInput) validate() error {
	if in.ClientID == 0 {
		return validationf("client_id is required")
	}
	if in.DepositCents == 0 {
		return validationf("deposit_cents is required")
	}
	switch in.Type {
	case model.TypeLitterChoice:
		if in.LitterID == nil || *in.LitterID == 0 {
			return validationf("litter_id is required for %s reservations", model.TypeLitterChoice)
		}
	case model.TypeSpecificPuppy:
		if in.PuppyID == nil || *in.PuppyID == 0 {
			return validationf("puppy_id is required for %s reservations", model.TypeSpecificPuppy)
		}
	default:
		return validationf("invalid reservation_type: %q", in.Type)
	}
	if in.ChoiceGender != nil {
		switch *in.ChoiceGender {
		case model.GenderMale, model.GenderFemale:
		default:
			return validationf("invalid choice_gender: %q", *in.ChoiceGender)
		}
	}
	if in.Status != "" && !model.ValidStatus(in.Status) {
		return validationf("invalid status: %q", in.Status)
	}
	return nil
}

// Create validates input, inserts the reservation and, when the
// initial status already holds a slot, claims it inside the same
// transaction.  A capacity or missing-litter failure rolls everything
// back, so no reservation row survives a failed direct confirmation.
func (s *Lifecycle) Create(ctx context.Context, in CreateInput) (*repository.ReservationDetail, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetByID(ctx, in.ClientID); err != nil {
		return nil, err
	}
	if in.LitterID != nil {
		if _, err := s.litters.GetByID(ctx, *in.LitterID); err != nil {
			return nil, err
		}
	}
	if in.PuppyID != nil {
		if _, err := s.puppies.GetByID(ctx, *in.PuppyID); err != nil {
			return nil, err
		}
	}

	status := in.Status
	if status == "" {
		status = model.StatusAwaitingDeposit
	}
	now := time.Now().UTC()
	expiresAt := in.ExpiresAt
	if expiresAt == nil {
		deadline := now.Add(s.holdTTL)
		expiresAt = &deadline
	}
	res := &model.Reservation{
		ClientID:     in.ClientID,
		Type:         in.Type,
		LitterID:     in.LitterID,
		PuppyID:      in.PuppyID,
		ChoiceGender: in.ChoiceGender,
		DepositCents: in.DepositCents,
		DepositPaid:  in.DepositPaid,
		Status:       status,
		ExpiresAt:    expiresAt,
		StatusHistory: []model.StatusChange{
			{From: "", To: status, ChangedAt: now, Notes: "Reservation created"},
		},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if in.PuppyID != nil {
		reserved, err := s.reservations.PuppyReservedTx(ctx, tx, *in.PuppyID)
		if err != nil {
			return nil, err
		}
		if reserved {
			return nil, repository.ErrPuppyReserved
		}
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	blocked := false
	if model.HoldsSlot(status) && res.LitterID != nil && res.ChoiceGender != nil {
		if err := s.litters.BlockSlotTx(ctx, tx, *res.LitterID, *res.ChoiceGender); err != nil {
			return nil, err
		}
		blocked = true
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if blocked {
		s.invalidateAvailability(ctx, *res.LitterID)
	}
	if status == model.StatusConfirmed {
		s.publishConfirmed(ctx, res, now)
	}
	return s.reservations.GetDetail(ctx, res.ID)
}

// Transition moves a reservation to a new status, applying the slot
// accounting side effects and appending exactly one history entry.
// Entering confirmed blocks a slot first; a block failure aborts the
// transition and the reservation stays untouched.  Leaving a
// slot-holding status for cancelled or expired releases the slot
// best-effort: a missing litter is logged and the cancellation still
// goes through.
func (s *Lifecycle) Transition(ctx context.Context, id uint64, to, notes string) (*repository.ReservationDetail, error) {
	if !model.ValidStatus(to) {
		return nil, validationf("invalid status: %q", to)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	from := res.Status
	if from == to || !CanTransition(from, to) {
		return nil, &TransitionError{From: from, To: to}
	}

	ledgerTouched := false
	if to == model.StatusConfirmed && res.LitterID != nil && res.ChoiceGender != nil {
		if err := s.litters.BlockSlotTx(ctx, tx, *res.LitterID, *res.ChoiceGender); err != nil {
			return nil, err
		}
		ledgerTouched = true
	}
	if model.HoldsSlot(from) && (to == model.StatusCancelled || to == model.StatusExpired) &&
		res.LitterID != nil && res.ChoiceGender != nil {
		released, err := s.litters.ReleaseSlotTx(ctx, tx, *res.LitterID, *res.ChoiceGender)
		if errors.Is(err, repository.ErrLitterNotFound) {
			// The litter vanished under an active reservation; the
			// cancellation still has to go through.
			log.Printf("reservation %d: release skipped, litter %d missing", id, *res.LitterID)
		} else if err != nil {
			return nil, err
		}
		ledgerTouched = ledgerTouched || released
	}

	now := time.Now().UTC()
	if notes == "" {
		notes = fmt.Sprintf("Status changed from %s to %s", from, to)
	}
	history := append(res.StatusHistory, model.StatusChange{From: from, To: to, ChangedAt: now, Notes: notes})
	if err := s.reservations.UpdateStatusTx(ctx, tx, id, to, history); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if ledgerTouched && res.LitterID != nil {
		s.invalidateAvailability(ctx, *res.LitterID)
	}
	if to == model.StatusConfirmed {
		res.Status = to
		s.publishConfirmed(ctx, res, now)
	}
	return s.reservations.GetDetail(ctx, id)
}

// ExpiredSummary describes one reservation transitioned by the expiry
// sweeper.
type ExpiredSummary struct {
	ID        uint64     `json:"id"`
	ClientID  uint64     `json:"client_id"`
	LitterID  *uint64    `json:"litter_id,omitempty"`
	PuppyID   *uint64    `json:"puppy_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CancelExpired expires every awaiting_deposit reservation whose
// deposit deadline has passed.  No slot interaction happens here:
// slots are only blocked at confirmed, and an awaiting_deposit
// reservation never held one.
func (s *Lifecycle) CancelExpired(ctx context.Context) ([]ExpiredSummary, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	expired, err := s.reservations.ListExpiredTx(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	summaries := make([]ExpiredSummary, 0, len(expired))
	for _, res := range expired {
		history := append(res.StatusHistory, model.StatusChange{
			From:      res.Status,
			To:        model.StatusExpired,
			ChangedAt: now,
			Notes:     "Deposit deadline passed",
		})
		if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.StatusExpired, history); err != nil {
			return nil, err
		}
		summaries = append(summaries, ExpiredSummary{
			ID:        res.ID,
			ClientID:  res.ClientID,
			LitterID:  res.LitterID,
			PuppyID:   res.PuppyID,
			ExpiresAt: res.ExpiresAt,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return summaries, nil
}

// invalidateAvailability drops a litter's cached availability snapshot
// after a ledger change.  Failures only cost cache freshness, so they
// are logged and swallowed.
func (s *Lifecycle) invalidateAvailability(ctx context.Context, litterID uint64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, AvailabilityCacheKey(litterID)).Err(); err != nil {
		log.Printf("litter %d: availability cache invalidation failed: %v", litterID, err)
	}
}

// publishConfirmed emits a reservation.confirmed event.  Publishing is
// best-effort: a broker outage must never fail a confirmation that
// already committed.
func (s *Lifecycle) publishConfirmed(ctx context.Context, res *model.Reservation, at time.Time) {
	gender := ""
	if res.ChoiceGender != nil {
		gender = *res.ChoiceGender
	}
	event := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		ClientID:      res.ClientID,
		Type:          res.Type,
		LitterID:      res.LitterID,
		PuppyID:       res.PuppyID,
		ChoiceGender:  gender,
		DepositCents:  res.DepositCents,
		ConfirmedAt:   at.Format(time.RFC3339),
	}
	if err := s.publish(ctx, event); err != nil {
		log.Printf("reservation %d: confirmed event not published: %v", res.ID, err)
	}
}
