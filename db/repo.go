// Package db is the gorm/Postgres persistence layer. Repo implements
// rental.Store; composite lifecycle operations run inside
// Repo.Atomically, which hands the callback a Repo bound to the transaction.
package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rental_backend/apierrors"
	"rental_backend/rental"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(conn *gorm.DB) *Repo { return &Repo{DB: conn} }

var _ rental.Store = (*Repo)(nil)

func (r *Repo) Atomically(ctx context.Context, fn func(rental.Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

// translateNotFound maps gorm's record-not-found onto the domain taxonomy so
// storage detail never leaks past this package.
func translateNotFound(err error, obj string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.ObjectNotFound(obj, id)
	}
	return err
}
