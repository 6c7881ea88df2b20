package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

// LitterRepo provides data access to the litters table and implements
// the slot allocator and the overbooking auditor.  The availability
// counters are only ever mutated through BlockSlotTx and
// ReleaseSlotTx, both single conditional UPDATE statements, so the
// ledger invariant 0 <= available_X <= total_X holds even under
// concurrent confirmations.
type LitterRepo struct {
	db *sql.DB
}

// NewLitterRepo returns a new LitterRepo bound to the given database.
func NewLitterRepo(db *sql.DB) *LitterRepo { return &LitterRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *LitterRepo) DB() *sql.DB { return r.db }

const litterColumns = `id, father_id, mother_id, status, total_males, total_females,
	available_males, available_females, created_at, updated_at`

// Create inserts a new litter.  A fresh litter starts with its full
// declared capacity claimable, so the available counters are seeded
// from the totals.
func (r *LitterRepo) Create(ctx context.Context, l *model.Litter) error {
	if l.Status == "" {
		l.Status = model.LitterPlanned
	}
	now := time.Now().UTC()
	l.AvailableMales = l.TotalMales
	l.AvailableFemales = l.TotalFemales
	l.CreatedAt = now
	l.UpdatedAt = now
	const q = `INSERT INTO litters (father_id, mother_id, status, total_males, total_females,
		available_males, available_females, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, l.FatherID, l.MotherID, l.Status,
		l.TotalMales, l.TotalFemales, l.AvailableMales, l.AvailableFemales, fmtTime(now), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// GetByID returns a single litter or ErrLitterNotFound.
func (r *LitterRepo) GetByID(ctx context.Context, id uint64) (*model.Litter, error) {
	const q = `SELECT ` + litterColumns + ` FROM litters WHERE id = ?`
	var l model.Litter
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.FatherID, &l.MotherID, &l.Status, &l.TotalMales, &l.TotalFemales,
		&l.AvailableMales, &l.AvailableFemales, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLitterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all litters ordered by creation time descending.
func (r *LitterRepo) List(ctx context.Context) ([]model.Litter, error) {
	const q = `SELECT ` + litterColumns + ` FROM litters ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	litters := make([]model.Litter, 0)
	for rows.Next() {
		var l model.Litter
		if err := rows.Scan(
			&l.ID, &l.FatherID, &l.MotherID, &l.Status, &l.TotalMales, &l.TotalFemales,
			&l.AvailableMales, &l.AvailableFemales, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		litters = append(litters, l)
	}
	return litters, rows.Err()
}

// existsTx reports whether a litter row exists, for disambiguating a
// zero-rows-affected conditional update.
func (r *LitterRepo) existsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM litters WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BlockSlotTx claims one slot of the given gender on a litter.  The
// decrement is a single conditional UPDATE guarded by available > 0,
// so two concurrent confirmations can never drive a counter negative:
// the second update simply affects zero rows.  Zero rows resolve to
// ErrLitterNotFound when the litter is absent, otherwise to a
// CapacityError naming the exhausted gender bucket.
func (r *LitterRepo) BlockSlotTx(ctx context.Context, tx *sql.Tx, litterID uint64, gender string) error {
	var q string
	switch gender {
	case model.GenderMale:
		q = `UPDATE litters SET available_males = available_males - 1, updated_at = ?
			WHERE id = ? AND available_males > 0`
	case model.GenderFemale:
		q = `UPDATE litters SET available_females = available_females - 1, updated_at = ?
			WHERE id = ? AND available_females > 0`
	default:
		return errors.New("invalid gender: " + gender)
	}
	result, err := tx.ExecContext(ctx, q, fmtTime(time.Now()), litterID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := r.existsTx(ctx, tx, litterID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrLitterNotFound
		}
		return &CapacityError{LitterID: litterID, Gender: gender}
	}
	return nil
}

// ReleaseSlotTx returns one slot of the given gender to a litter.  The
// increment is guarded by available < total; when the ledger is
// already full the call is a clamped no-op that logs a warning and
// returns false rather than corrupting the counters.  A missing
// litter returns ErrLitterNotFound.
func (r *LitterRepo) ReleaseSlotTx(ctx context.Context, tx *sql.Tx, litterID uint64, gender string) (bool, error) {
	var q string
	switch gender {
	case model.GenderMale:
		q = `UPDATE litters SET available_males = available_males + 1, updated_at = ?
			WHERE id = ? AND available_males < total_males`
	case model.GenderFemale:
		q = `UPDATE litters SET available_females = available_females + 1, updated_at = ?
			WHERE id = ? AND available_females < total_females`
	default:
		return false, errors.New("invalid gender: " + gender)
	}
	result, err := tx.ExecContext(ctx, q, fmtTime(time.Now()), litterID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		exists, err := r.existsTx(ctx, tx, litterID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, ErrLitterNotFound
		}
		log.Printf("litter %d: release of %s slot skipped, ledger already at capacity", litterID, gender)
		return false, nil
	}
	return true, nil
}

// CheckOverbooking reconciles reservation counts in slot-holding
// statuses against a litter's declared capacity.  It is read-only and
// purely diagnostic; nothing is blocked or mutated here.
func (r *LitterRepo) CheckOverbooking(ctx context.Context, litterID uint64) (*model.OverbookingReport, error) {
	litter, err := r.GetByID(ctx, litterID)
	if err != nil {
		return nil, err
	}
	const q = `SELECT choice_gender, COUNT(*) FROM reservations
		WHERE litter_id = ? AND status IN (?, ?, ?)
		GROUP BY choice_gender`
	rows, err := r.db.QueryContext(ctx, q, litterID,
		model.StatusConfirmed, model.StatusContractPending, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var males, females, total uint32
	for rows.Next() {
		var gender sql.NullString
		var count uint32
		if err := rows.Scan(&gender, &count); err != nil {
			return nil, err
		}
		total += count
		switch gender.String {
		case model.GenderMale:
			males = count
		case model.GenderFemale:
			females = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report := &model.OverbookingReport{
		LitterID: litterID,
		Males: model.GenderReport{
			Total:      litter.TotalMales,
			Reserved:   males,
			Available:  litter.AvailableMales,
			Overbooked: males > litter.TotalMales,
		},
		Females: model.GenderReport{
			Total:      litter.TotalFemales,
			Reserved:   females,
			Available:  litter.AvailableFemales,
			Overbooked: females > litter.TotalFemales,
		},
		TotalReserved:   total,
		TotalCapacity:   litter.TotalMales + litter.TotalFemales,
		TotalOverbooked: total > litter.TotalMales+litter.TotalFemales,
	}
	return report, nil
}
