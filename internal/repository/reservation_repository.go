package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// attached preferences and documents.  The status and status_history
// columns are only written through CreateTx and UpdateStatusTx, which
// the lifecycle service drives; the generic field update path can
// never touch them.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, client_id, reservation_type, litter_id, puppy_id, choice_gender,
	deposit_cents, deposit_paid, status, expires_at, status_history, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanReservation.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReservation reads one reservations row, decoding nullable
// references and the JSON status history.
func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var litterID, puppyID sql.NullInt64
	var choiceGender sql.NullString
	var expiresAt sql.NullTime
	var history string
	err := row.Scan(
		&res.ID, &res.ClientID, &res.Type, &litterID, &puppyID, &choiceGender,
		&res.DepositCents, &res.DepositPaid, &res.Status, &expiresAt, &history,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if litterID.Valid {
		id := uint64(litterID.Int64)
		res.LitterID = &id
	}
	if puppyID.Valid {
		id := uint64(puppyID.Int64)
		res.PuppyID = &id
	}
	if choiceGender.Valid && choiceGender.String != "" {
		g := choiceGender.String
		res.ChoiceGender = &g
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		res.ExpiresAt = &t
	}
	if history != "" {
		if err := json.Unmarshal([]byte(history), &res.StatusHistory); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// marshalHistory encodes a status history for storage.  An empty
// history is stored as an empty JSON array, never as an empty string.
func marshalHistory(history []model.StatusChange) (string, error) {
	if history == nil {
		history = []model.StatusChange{}
	}
	b, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID.  The caller fills in
// status, expiry and the seeded status history; this method persists
// them verbatim.  The caller must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	history, err := marshalHistory(res.StatusHistory)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	const q = `INSERT INTO reservations (client_id, reservation_type, litter_id, puppy_id,
		choice_gender, deposit_cents, deposit_paid, status, expires_at, status_history,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.ClientID, res.Type, res.LitterID, res.PuppyID, res.ChoiceGender,
		res.DepositCents, res.DepositPaid, res.Status, fmtTimePtr(res.ExpiresAt), history,
		fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID returns a single reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetTx is GetByID within an existing transaction, used by the
// lifecycle service so the status it reads stays consistent with the
// update it writes.
func (r *ReservationRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReservationFilter narrows List results.  Zero values mean "no
// filter" for that field.
type ReservationFilter struct {
	Status   string
	Type     string
	LitterID uint64
	ClientID uint64
}

// List returns reservations matching the filter, sorted by status
// ascending, then expiry ascending, then creation time descending.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		conds = append(conds, "reservation_type = ?")
		args = append(args, f.Type)
	}
	if f.LitterID != 0 {
		conds = append(conds, "litter_id = ?")
		args = append(args, f.LitterID)
	}
	if f.ClientID != 0 {
		conds = append(conds, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY status ASC, expires_at ASC, created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// ListActiveByLitter returns all reservations holding a slot on the
// given litter (confirmed, contract_pending or active).
func (r *ReservationRepo) ListActiveByLitter(ctx context.Context, litterID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE litter_id = ? AND status IN (?, ?, ?)
		ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, litterID,
		model.StatusConfirmed, model.StatusContractPending, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// ListExpiring returns awaiting_deposit reservations whose deposit
// deadline falls within [now, now+window], soonest first.  Operators
// use this to chase deposits before the sweeper fires.
func (r *ReservationRepo) ListExpiring(ctx context.Context, now time.Time, window time.Duration) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at >= ? AND expires_at <= ?
		ORDER BY expires_at ASC`
	rows, err := r.db.QueryContext(ctx, q, model.StatusAwaitingDeposit, fmtTime(now), fmtTime(now.Add(window)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// ListExpiredTx returns awaiting_deposit reservations whose deadline
// is strictly in the past, within an existing transaction so the
// sweeper transitions exactly the rows it saw.
func (r *ReservationRepo) ListExpiredTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
		ORDER BY expires_at ASC`
	rows, err := tx.QueryContext(ctx, q, model.StatusAwaitingDeposit, fmtTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// UpdateStatusTx writes a reservation's new status together with its
// extended history.  Callers append exactly one entry to the history
// per transition before calling this.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, history []model.StatusChange) error {
	encoded, err := marshalHistory(history)
	if err != nil {
		return err
	}
	const q = `UPDATE reservations SET status = ?, status_history = ?, updated_at = ? WHERE id = ?`
	result, err := tx.ExecContext(ctx, q, status, encoded, fmtTime(time.Now()), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// FieldUpdate carries the mutable non-status fields of a reservation.
// Nil pointers leave the corresponding column unchanged.  Status and
// status_history are deliberately not representable here; those change
// only through the lifecycle service.
type FieldUpdate struct {
	DepositCents *uint32
	DepositPaid  *bool
	ChoiceGender *string
	ExpiresAt    *time.Time
}

// UpdateFields applies a partial update to a reservation's non-status
// fields and returns the updated row.
func (r *ReservationRepo) UpdateFields(ctx context.Context, id uint64, upd FieldUpdate) (*model.Reservation, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.DepositCents != nil {
		sets = append(sets, "deposit_cents = ?")
		args = append(args, *upd.DepositCents)
	}
	if upd.DepositPaid != nil {
		sets = append(sets, "deposit_paid = ?")
		args = append(args, *upd.DepositPaid)
	}
	if upd.ChoiceGender != nil {
		sets = append(sets, "choice_gender = ?")
		args = append(args, *upd.ChoiceGender)
	}
	if upd.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, fmtTime(*upd.ExpiresAt))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, fmtTime(time.Now()), id)
	q := `UPDATE reservations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrReservationNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete hard-deletes a reservation together with its preferences and
// documents.  No slot release happens here: hard delete is an explicit
// admin operation and the ledger is left for the overbooking auditor
// to reconcile.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_preferences WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_documents WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PuppyReservedTx reports whether a puppy already has a reservation,
// within an existing transaction.  The unique index on puppy_id
// remains the backstop; this check exists to surface a clean conflict
// error instead of a driver-specific constraint violation.
func (r *ReservationRepo) PuppyReservedTx(ctx context.Context, tx *sql.Tx, puppyID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE puppy_id = ?`, puppyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPreferences upserts the one-to-one preferences document of a
// reservation.  The payload must already be valid JSON.
func (r *ReservationRepo) SetPreferences(ctx context.Context, reservationID uint64, data string) error {
	now := time.Now().UTC()
	const upd = `UPDATE reservation_preferences SET data = ?, updated_at = ? WHERE reservation_id = ?`
	result, err := r.db.ExecContext(ctx, upd, data, fmtTime(now), reservationID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	const ins = `INSERT INTO reservation_preferences (reservation_id, data, updated_at) VALUES (?, ?, ?)`
	_, err = r.db.ExecContext(ctx, ins, reservationID, data, fmtTime(now))
	return err
}

// GetPreferences returns a reservation's preferences document, or nil
// when none was ever set.
func (r *ReservationRepo) GetPreferences(ctx context.Context, reservationID uint64) (*model.ReservationPreferences, error) {
	const q = `SELECT reservation_id, data, updated_at FROM reservation_preferences WHERE reservation_id = ?`
	var p model.ReservationPreferences
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(&p.ReservationID, &p.Data, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddDocument attaches document metadata to a reservation.
func (r *ReservationRepo) AddDocument(ctx context.Context, doc *model.ReservationDocument) error {
	doc.UploadedAt = time.Now().UTC()
	const q = `INSERT INTO reservation_documents (reservation_id, name, url, uploaded_at) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, doc.ReservationID, doc.Name, doc.URL, fmtTime(doc.UploadedAt))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = uint64(id)
	return nil
}

// ListDocuments returns all documents attached to a reservation in
// upload order.
func (r *ReservationRepo) ListDocuments(ctx context.Context, reservationID uint64) ([]model.ReservationDocument, error) {
	const q = `SELECT id, reservation_id, name, url, uploaded_at
		FROM reservation_documents WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.ReservationDocument, 0)
	for rows.Next() {
		var d model.ReservationDocument
		if err := rows.Scan(&d.ID, &d.ReservationID, &d.Name, &d.URL, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ReservationDetail is a reservation with its related records eagerly
// loaded for API responses.
type ReservationDetail struct {
	model.Reservation
	ClientName  string                        `json:"client_name"`
	Litter      *model.Litter                 `json:"litter,omitempty"`
	Puppy       *model.Puppy                  `json:"puppy,omitempty"`
	Preferences *model.ReservationPreferences `json:"preferences,omitempty"`
	Documents   []model.ReservationDocument   `json:"documents"`
}

// GetDetail loads a reservation together with its client name, litter,
// puppy, preferences and documents.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ReservationDetail{Reservation: *res, Documents: []model.ReservationDocument{}}

	if err := r.db.QueryRowContext(ctx, `SELECT name FROM clients WHERE id = ?`, res.ClientID).
		Scan(&detail.ClientName); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if res.LitterID != nil {
		var l model.Litter
		err := r.db.QueryRowContext(ctx, `SELECT `+litterColumns+` FROM litters WHERE id = ?`, *res.LitterID).Scan(
			&l.ID, &l.FatherID, &l.MotherID, &l.Status, &l.TotalMales, &l.TotalFemales,
			&l.AvailableMales, &l.AvailableFemales, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			detail.Litter = &l
		}
	}
	if res.PuppyID != nil {
		var p model.Puppy
		err := r.db.QueryRowContext(ctx,
			`SELECT id, litter_id, name, gender, color, created_at, updated_at FROM puppies WHERE id = ?`,
			*res.PuppyID).Scan(&p.ID, &p.LitterID, &p.Name, &p.Gender, &p.Color, &p.CreatedAt, &p.UpdatedAt)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			detail.Puppy = &p
		}
	}
	if detail.Preferences, err = r.GetPreferences(ctx, id); err != nil {
		return nil, err
	}
	if detail.Documents, err = r.ListDocuments(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}
