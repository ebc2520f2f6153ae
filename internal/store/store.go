// Package store implements the repositories of the engine with gorm.
package store

import (
	"context"
	"errors"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"gorm.io/gorm"
)

// Store implements engine.Store on a gorm database.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() engine.Repositories {
	return repositories(s.db)
}

// Transaction runs fn in a database transaction. Repositories passed to fn
// must not be used after fn returns.
func (s *Store) Transaction(ctx context.Context, fn func(engine.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositories(tx))
	})
}

func repositories(db *gorm.DB) engine.Repositories {
	return engine.Repositories{
		Consortiums:    consortiumRepository{db: db},
		Members:        memberRepository{db: db},
		Memberships:    membershipRepository{db: db},
		Obligations:    obligationRepository{db: db},
		Contemplations: contemplationRepository{db: db},
	}
}

// notFoundError marks a missing record as engine.ErrNotFound while keeping
// the message naming the resource.
type notFoundError struct {
	err error
}

func (e notFoundError) Error() string {
	return e.err.Error()
}

func (e notFoundError) Unwrap() []error {
	return []error{engine.ErrNotFound, e.err}
}

// wrap converts errors for missing records.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, models.ErrResourceNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError{err: err}
	}

	return err
}
