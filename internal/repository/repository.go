// Package repository is the PostgreSQL access layer for projects, scoring
// configuration, applications and reviewer evaluations.
package repository

import (
	"database/sql"
	"errors"
)

var (
	ErrProjectNotFound           = errors.New("project not found")
	ErrSelectionAlreadyConfirmed = errors.New("selection already confirmed")
	ErrSelectionMismatch         = errors.New("selected applications do not belong to the project")
)

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
