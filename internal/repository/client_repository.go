package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

// ClientRepo provides data access to the clients table.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo returns a new ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// Create inserts a new client and populates its generated ID.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	const q = `INSERT INTO clients (name, email, phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, c.Name, c.Email, c.Phone, fmtTime(now), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID returns a single client or ErrClientNotFound.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	const q = `SELECT id, name, email, phone, created_at, updated_at FROM clients WHERE id = ?`
	var c model.Client
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
