package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/database"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

func seedParents(t *testing.T, db *sql.DB) (father, mother uint64) {
	t.Helper()
	animals := NewAnimalRepo(db)
	sire := &model.Animal{Name: "Rex", Breed: "Labrador", Sex: model.GenderMale}
	dam := &model.Animal{Name: "Luna", Breed: "Labrador", Sex: model.GenderFemale}
	require.NoError(t, animals.Create(context.Background(), sire))
	require.NoError(t, animals.Create(context.Background(), dam))
	return sire.ID, dam.ID
}

func seedLitter(t *testing.T, db *sql.DB, males, females uint32) *model.Litter {
	t.Helper()
	father, mother := seedParents(t, db)
	litter := &model.Litter{FatherID: father, MotherID: mother, TotalMales: males, TotalFemales: females}
	require.NoError(t, NewLitterRepo(db).Create(context.Background(), litter))
	return litter
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}

func TestLitterCreateSeedsAvailability(t *testing.T) {
	db := database.NewTestDB(t)
	litter := seedLitter(t, db, 2, 3)

	assert.Equal(t, model.LitterPlanned, litter.Status)
	assert.Equal(t, uint32(2), litter.AvailableMales)
	assert.Equal(t, uint32(3), litter.AvailableFemales)

	got, err := NewLitterRepo(db).GetByID(context.Background(), litter.ID)
	require.NoError(t, err)
	assert.Equal(t, litter.AvailableMales, got.AvailableMales)
	assert.Equal(t, litter.AvailableFemales, got.AvailableFemales)
}

func TestLitterGetMissing(t *testing.T) {
	db := database.NewTestDB(t)
	_, err := NewLitterRepo(db).GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrLitterNotFound)
}

func TestBlockSlotExhaustsCapacity(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewLitterRepo(db)
	litter := seedLitter(t, db, 2, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := inTx(t, db, func(tx *sql.Tx) error {
			return repo.BlockSlotTx(ctx, tx, litter.ID, model.GenderMale)
		})
		require.NoError(t, err)
	}

	err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.BlockSlotTx(ctx, tx, litter.ID, model.GenderMale)
	})
	require.Error(t, err)
	assert.True(t, IsCapacity(err))

	got, err := repo.GetByID(ctx, litter.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got.AvailableMales)
}

func TestBlockSlotMissingLitter(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewLitterRepo(db)

	err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.BlockSlotTx(context.Background(), tx, 404, model.GenderFemale)
	})
	assert.ErrorIs(t, err, ErrLitterNotFound)
}

func TestReleaseSlotClampsAtCapacity(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewLitterRepo(db)
	litter := seedLitter(t, db, 0, 1)
	ctx := context.Background()

	// Nothing was blocked yet, so the release must be a no-op.
	var released bool
	err := inTx(t, db, func(tx *sql.Tx) (err error) {
		released, err = repo.ReleaseSlotTx(ctx, tx, litter.ID, model.GenderFemale)
		return err
	})
	require.NoError(t, err)
	assert.False(t, released)

	err = inTx(t, db, func(tx *sql.Tx) error {
		return repo.BlockSlotTx(ctx, tx, litter.ID, model.GenderFemale)
	})
	require.NoError(t, err)

	err = inTx(t, db, func(tx *sql.Tx) (err error) {
		released, err = repo.ReleaseSlotTx(ctx, tx, litter.ID, model.GenderFemale)
		return err
	})
	require.NoError(t, err)
	assert.True(t, released)

	got, err := repo.GetByID(ctx, litter.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.AvailableFemales)
}

func TestCheckOverbooking(t *testing.T) {
	db := database.NewTestDB(t)
	litters := NewLitterRepo(db)
	reservations := NewReservationRepo(db)
	litter := seedLitter(t, db, 1, 2)
	clientID := seedClient(t, db)
	ctx := context.Background()

	// Two confirmed males against a declared capacity of one.
	for i := 0; i < 2; i++ {
		gender := model.GenderMale
		res := &model.Reservation{
			ClientID:     clientID,
			Type:         model.TypeLitterChoice,
			LitterID:     &litter.ID,
			ChoiceGender: &gender,
			DepositCents: 50000,
			Status:       model.StatusConfirmed,
		}
		err := inTx(t, db, func(tx *sql.Tx) error {
			return reservations.CreateTx(ctx, tx, res)
		})
		require.NoError(t, err)
	}

	report, err := litters.CheckOverbooking(ctx, litter.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), report.Males.Reserved)
	assert.True(t, report.Males.Overbooked)
	assert.Equal(t, uint32(0), report.Females.Reserved)
	assert.False(t, report.Females.Overbooked)
	assert.Equal(t, uint32(2), report.TotalReserved)
	assert.Equal(t, uint32(3), report.TotalCapacity)
	assert.False(t, report.TotalOverbooked)
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewLitterRepo(db)
	father, mother := seedParents(t, db)
	ctx := context.Background()

	first := &model.Litter{FatherID: father, MotherID: mother, TotalMales: 1}
	second := &model.Litter{FatherID: father, MotherID: mother, TotalFemales: 1}
	require.NoError(t, repo.Create(ctx, first))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Create(ctx, second))

	litters, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, litters, 2)
	assert.Equal(t, second.ID, litters[0].ID)
	assert.Equal(t, first.ID, litters[1].ID)
}
