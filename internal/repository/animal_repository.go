package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
)

// AnimalRepo provides data access to the animals table, including the
// recursive lineage fetch.
type AnimalRepo struct {
	db *sql.DB
}

// NewAnimalRepo returns a new AnimalRepo bound to the given database.
func NewAnimalRepo(db *sql.DB) *AnimalRepo { return &AnimalRepo{db: db} }

const animalColumns = `id, name, breed, sex, birth_date, father_id, mother_id, created_at, updated_at`

// Create inserts a new animal and populates its generated ID.
func (r *AnimalRepo) Create(ctx context.Context, a *model.Animal) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	const q = `INSERT INTO animals (name, breed, sex, birth_date, father_id, mother_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, a.Name, a.Breed, a.Sex, fmtTimePtr(a.BirthDate),
		a.FatherID, a.MotherID, fmtTime(now), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID returns a single animal or ErrAnimalNotFound.
func (r *AnimalRepo) GetByID(ctx context.Context, id uint64) (*model.Animal, error) {
	const q = `SELECT ` + animalColumns + ` FROM animals WHERE id = ?`
	var a model.Animal
	var birth sql.NullTime
	var fatherID, motherID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Name, &a.Breed, &a.Sex, &birth, &fatherID, &motherID, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnimalNotFound
	}
	if err != nil {
		return nil, err
	}
	if birth.Valid {
		t := birth.Time
		a.BirthDate = &t
	}
	if fatherID.Valid {
		fid := uint64(fatherID.Int64)
		a.FatherID = &fid
	}
	if motherID.Valid {
		mid := uint64(motherID.Int64)
		a.MotherID = &mid
	}
	return &a, nil
}

// Ancestors returns the lineage tree of an animal, expanded to the
// requested number of generations.  A depth of zero yields no tree at
// all; otherwise the subject is the root and each level expands the
// father and mother references of the previous one, so the tree holds
// at most 2^depth - 1 nodes.  Unknown ancestors are simply absent from
// the tree.  One query runs per resolved node.
func (r *AnimalRepo) Ancestors(ctx context.Context, id uint64, depth int) (*model.AncestorNode, error) {
	if depth <= 0 {
		return nil, nil
	}
	animal, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, animal, depth)
}

// expand builds the node for one animal and recursively resolves its
// parents to depth-1.  A dangling parent reference is treated the same
// as an unrecorded one.
func (r *AnimalRepo) expand(ctx context.Context, a *model.Animal, depth int) (*model.AncestorNode, error) {
	node := &model.AncestorNode{
		ID:        a.ID,
		Name:      a.Name,
		Breed:     a.Breed,
		Sex:       a.Sex,
		BirthDate: a.BirthDate,
	}
	if depth <= 1 {
		return node, nil
	}
	if a.FatherID != nil {
		father, err := r.GetByID(ctx, *a.FatherID)
		if err != nil && !errors.Is(err, ErrAnimalNotFound) {
			return nil, err
		}
		if father != nil {
			if node.Father, err = r.expand(ctx, father, depth-1); err != nil {
				return nil, err
			}
		}
	}
	if a.MotherID != nil {
		mother, err := r.GetByID(ctx, *a.MotherID)
		if err != nil && !errors.Is(err, ErrAnimalNotFound) {
			return nil, err
		}
		if mother != nil {
			if node.Mother, err = r.expand(ctx, mother, depth-1); err != nil {
				return nil, err
			}
		}
	}
	return node, nil
}
