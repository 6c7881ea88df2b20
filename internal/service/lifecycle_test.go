package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/database"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/queue"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

type fixture struct {
	db        *sql.DB
	lifecycle *Lifecycle
	litters   *repository.LitterRepo
	clientID  uint64
	litterID  uint64
	published []queue.ReservationConfirmedEvent
}

// newFixture wires the lifecycle against an in-memory database with
// one client and one litter (2 males, 1 female) and captures published
// events instead of dialing a broker.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	ctx := context.Background()

	animals := repository.NewAnimalRepo(db)
	sire := &model.Animal{Name: "Rex", Sex: model.GenderMale}
	dam := &model.Animal{Name: "Luna", Sex: model.GenderFemale}
	require.NoError(t, animals.Create(ctx, sire))
	require.NoError(t, animals.Create(ctx, dam))

	litters := repository.NewLitterRepo(db)
	litter := &model.Litter{FatherID: sire.ID, MotherID: dam.ID, TotalMales: 2, TotalFemales: 1}
	require.NoError(t, litters.Create(ctx, litter))

	clients := repository.NewClientRepo(db)
	client := &model.Client{Name: "Maria Santos", Email: "maria@example.com"}
	require.NoError(t, clients.Create(ctx, client))

	f := &fixture{db: db, litters: litters, clientID: client.ID, litterID: litter.ID}
	f.lifecycle = NewLifecycle(db, repository.NewReservationRepo(db), litters, clients,
		repository.NewPuppyRepo(db), nil, 24*time.Hour)
	f.lifecycle.publish = func(_ context.Context, ev queue.ReservationConfirmedEvent) error {
		f.published = append(f.published, ev)
		return nil
	}
	return f
}

func (f *fixture) availableMales(t *testing.T) uint32 {
	t.Helper()
	litter, err := f.litters.GetByID(context.Background(), f.litterID)
	require.NoError(t, err)
	return litter.AvailableMales
}

func maleChoiceInput(f *fixture) CreateInput {
	gender := model.GenderMale
	return CreateInput{
		ClientID:     f.clientID,
		Type:         model.TypeLitterChoice,
		LitterID:     &f.litterID,
		ChoiceGender: &gender,
		DepositCents: 50000,
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := [][2]string{
		{model.StatusAwaitingDeposit, model.StatusConfirmed},
		{model.StatusAwaitingDeposit, model.StatusCancelled},
		{model.StatusAwaitingDeposit, model.StatusExpired},
		{model.StatusConfirmed, model.StatusContractPending},
		{model.StatusConfirmed, model.StatusCancelled},
		{model.StatusContractPending, model.StatusActive},
		{model.StatusContractPending, model.StatusExpired},
		{model.StatusActive, model.StatusCompleted},
		{model.StatusActive, model.StatusCancelled},
	}
	for _, pair := range allowed {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	forbidden := [][2]string{
		{model.StatusAwaitingDeposit, model.StatusContractPending},
		{model.StatusAwaitingDeposit, model.StatusActive},
		{model.StatusConfirmed, model.StatusAwaitingDeposit},
		{model.StatusConfirmed, model.StatusCompleted},
		{model.StatusActive, model.StatusConfirmed},
		{model.StatusCompleted, model.StatusCancelled},
		{model.StatusCancelled, model.StatusConfirmed},
		{model.StatusExpired, model.StatusAwaitingDeposit},
	}
	for _, pair := range forbidden {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingDeposit, detail.Status)
	require.NotNil(t, detail.ExpiresAt)
	deadline := time.Until(*detail.ExpiresAt)
	assert.Greater(t, deadline, 23*time.Hour)
	assert.LessOrEqual(t, deadline, 24*time.Hour)
	require.Len(t, detail.StatusHistory, 1)
	assert.Equal(t, "Reservation created", detail.StatusHistory[0].Notes)

	// A pending hold claims nothing from the ledger.
	assert.Equal(t, uint32(2), f.availableMales(t))
	assert.Empty(t, f.published)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		tweak func(*CreateInput)
	}{
		{"missing client", func(in *CreateInput) { in.ClientID = 0 }},
		{"missing deposit", func(in *CreateInput) { in.DepositCents = 0 }},
		{"unknown type", func(in *CreateInput) { in.Type = "waitlist" }},
		{"litter choice without litter", func(in *CreateInput) { in.LitterID = nil }},
		{"bad gender", func(in *CreateInput) {
			g := "unknown"
			in.ChoiceGender = &g
		}},
		{"bad status", func(in *CreateInput) { in.Status = "pending" }},
	}
	for _, tc := range cases {
		in := maleChoiceInput(f)
		tc.tweak(&in)
		_, err := f.lifecycle.Create(ctx, in)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, tc.name)
	}

	in := maleChoiceInput(f)
	in.ClientID = 404
	_, err := f.lifecycle.Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrClientNotFound)

	in = maleChoiceInput(f)
	missing := uint64(404)
	in.LitterID = &missing
	_, err = f.lifecycle.Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrLitterNotFound)
}

func TestDirectConfirmationBlocksSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := maleChoiceInput(f)
	in.Status = model.StatusConfirmed
	detail, err := f.lifecycle.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, detail.Status)
	assert.Equal(t, uint32(1), f.availableMales(t))
	require.Len(t, f.published, 1)
	assert.Equal(t, detail.ID, f.published[0].ReservationID)
}

func TestFailedConfirmationLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Exhaust the two male slots.
	for i := 0; i < 2; i++ {
		in := maleChoiceInput(f)
		in.Status = model.StatusConfirmed
		_, err := f.lifecycle.Create(ctx, in)
		require.NoError(t, err)
	}

	in := maleChoiceInput(f)
	in.Status = model.StatusConfirmed
	_, err := f.lifecycle.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, repository.IsCapacity(err))

	// The rolled-back attempt must not leave a reservation row.
	all, err := repository.NewReservationRepo(f.db).List(ctx, repository.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, uint32(0), f.availableMales(t))
	assert.Len(t, f.published, 2)
}

func TestConfirmThenCancelReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)

	confirmed, err := f.lifecycle.Transition(ctx, created.ID, model.StatusConfirmed, "Deposit received")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	assert.Equal(t, uint32(1), f.availableMales(t))
	require.Len(t, confirmed.StatusHistory, 2)
	assert.Equal(t, "Deposit received", confirmed.StatusHistory[1].Notes)
	assert.Len(t, f.published, 1)

	cancelled, err := f.lifecycle.Transition(ctx, created.ID, model.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, uint32(2), f.availableMales(t))
	require.Len(t, cancelled.StatusHistory, 3)
	assert.Equal(t, "Status changed from confirmed to cancelled", cancelled.StatusHistory[2].Notes)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)

	var te *TransitionError
	_, err = f.lifecycle.Transition(ctx, created.ID, model.StatusActive, "")
	assert.ErrorAs(t, err, &te)

	// Self transitions are rejected too.
	_, err = f.lifecycle.Transition(ctx, created.ID, model.StatusAwaitingDeposit, "")
	assert.ErrorAs(t, err, &te)

	_, err = f.lifecycle.Transition(ctx, created.ID, "waitlist", "")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.lifecycle.Transition(ctx, 404, model.StatusConfirmed, "")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)

	// Nothing above may have touched the ledger or the history.
	assert.Equal(t, uint32(2), f.availableMales(t))
	got, err := repository.NewReservationRepo(f.db).GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.StatusHistory, 1)
}

func TestFailedConfirmationTransitionKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Exhaust males, then try to confirm a pending hold.
	for i := 0; i < 2; i++ {
		in := maleChoiceInput(f)
		in.Status = model.StatusConfirmed
		_, err := f.lifecycle.Create(ctx, in)
		require.NoError(t, err)
	}
	pending, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)

	_, err = f.lifecycle.Transition(ctx, pending.ID, model.StatusConfirmed, "")
	require.Error(t, err)
	assert.True(t, repository.IsCapacity(err))

	got, err := repository.NewReservationRepo(f.db).GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingDeposit, got.Status)
	assert.Len(t, got.StatusHistory, 1)
}

func TestSpecificPuppyConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	puppies := repository.NewPuppyRepo(f.db)
	puppy := &model.Puppy{LitterID: f.litterID, Name: "Thor", Gender: model.GenderMale}
	require.NoError(t, puppies.Create(ctx, puppy))

	in := CreateInput{
		ClientID:     f.clientID,
		Type:         model.TypeSpecificPuppy,
		PuppyID:      &puppy.ID,
		DepositCents: 50000,
	}
	_, err := f.lifecycle.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.lifecycle.Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrPuppyReserved)
}

func TestSweeperExpiresOnlyOverduePendingHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	in := maleChoiceInput(f)
	in.ExpiresAt = &past
	overdue, err := f.lifecycle.Create(ctx, in)
	require.NoError(t, err)

	fresh, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)

	in = maleChoiceInput(f)
	in.Status = model.StatusConfirmed
	in.ExpiresAt = &past
	confirmed, err := f.lifecycle.Create(ctx, in)
	require.NoError(t, err)

	summaries, err := f.lifecycle.CancelExpired(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, overdue.ID, summaries[0].ID)

	repo := repository.NewReservationRepo(f.db)
	got, err := repo.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, "Deposit deadline passed", got.StatusHistory[1].Notes)

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingDeposit, got.Status)

	got, err = repo.GetByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	// A second sweep finds nothing left to expire.
	summaries, err = f.lifecycle.CancelExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// TestLedgerUnderChurn walks a small season: two confirmed males fill
// the litter, a third confirmation bounces, a cancellation frees the
// slot and the bounced client gets in after all.
func TestLedgerUnderChurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)
	second, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)
	third, err := f.lifecycle.Create(ctx, maleChoiceInput(f))
	require.NoError(t, err)

	_, err = f.lifecycle.Transition(ctx, first.ID, model.StatusConfirmed, "")
	require.NoError(t, err)
	_, err = f.lifecycle.Transition(ctx, second.ID, model.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), f.availableMales(t))

	_, err = f.lifecycle.Transition(ctx, third.ID, model.StatusConfirmed, "")
	assert.True(t, repository.IsCapacity(err))

	_, err = f.lifecycle.Transition(ctx, second.ID, model.StatusCancelled, "Changed their mind")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), f.availableMales(t))

	_, err = f.lifecycle.Transition(ctx, third.ID, model.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), f.availableMales(t))

	report, err := f.litters.CheckOverbooking(ctx, f.litterID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), report.Males.Reserved)
	assert.False(t, report.Males.Overbooked)

	// Walking a reservation to completion holds the slot the whole way.
	_, err = f.lifecycle.Transition(ctx, first.ID, model.StatusContractPending, "")
	require.NoError(t, err)
	_, err = f.lifecycle.Transition(ctx, first.ID, model.StatusActive, "")
	require.NoError(t, err)
	done, err := f.lifecycle.Transition(ctx, first.ID, model.StatusCompleted, "Puppy delivered")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, uint32(0), f.availableMales(t))
	require.Len(t, done.StatusHistory, 5)
}
