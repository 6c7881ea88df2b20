package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

// PuppyRepo provides data access to the puppies table.
type PuppyRepo struct {
	db *sql.DB
}

// NewPuppyRepo returns a new PuppyRepo bound to the given database.
func NewPuppyRepo(db *sql.DB) *PuppyRepo { return &PuppyRepo{db: db} }

// Create inserts a new puppy and populates its generated ID.
func (r *PuppyRepo) Create(ctx context.Context, p *model.Puppy) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	const q = `INSERT INTO puppies (litter_id, name, gender, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, p.LitterID, p.Name, p.Gender, p.Color, fmtTime(now), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns a single puppy or ErrPuppyNotFound.
func (r *PuppyRepo) GetByID(ctx context.Context, id uint64) (*model.Puppy, error) {
	const q = `SELECT id, litter_id, name, gender, color, created_at, updated_at FROM puppies WHERE id = ?`
	var p model.Puppy
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.LitterID, &p.Name, &p.Gender, &p.Color, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPuppyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByLitter returns all puppies born in a litter.
func (r *PuppyRepo) ListByLitter(ctx context.Context, litterID uint64) ([]model.Puppy, error) {
	const q = `SELECT id, litter_id, name, gender, color, created_at, updated_at
		FROM puppies WHERE litter_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, litterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	puppies := make([]model.Puppy, 0)
	for rows.Next() {
		var p model.Puppy
		if err := rows.Scan(&p.ID, &p.LitterID, &p.Name, &p.Gender, &p.Color, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		puppies = append(puppies, p)
	}
	return puppies, rows.Err()
}
