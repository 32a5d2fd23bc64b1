package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cahsa-api/internal/models"
)

// AdvisorRepository reads advisors and their directory credentials.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository creates a new instance of AdvisorRepository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

const advisorSelect = `SELECT u.id, u.nid, u.fname, u.lname, u.email, a.department_id
	FROM users u
	JOIN advisors a ON a.user_id = u.id`

// FindByNID returns the advisor authorized for the portal under a directory NID.
func (r *AdvisorRepository) FindByNID(ctx context.Context, nid string) (*models.Advisor, error) {
	var advisor models.Advisor
	if err := r.db.GetContext(ctx, &advisor, advisorSelect+` WHERE u.nid = $1 LIMIT 1`, nid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find advisor by nid: %w", err)
	}
	return &advisor, nil
}

// FindByID returns an advisor by user identifier.
func (r *AdvisorRepository) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	var advisor models.Advisor
	if err := r.db.GetContext(ctx, &advisor, advisorSelect+` WHERE u.id = $1 LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find advisor by id: %w", err)
	}
	return &advisor, nil
}

// FindCredential returns the stored password hash for an NID.
func (r *AdvisorRepository) FindCredential(ctx context.Context, nid string) (*models.DirectoryCredential, error) {
	const query = `SELECT nid, password_hash FROM directory_credentials WHERE nid = $1 LIMIT 1`
	var cred models.DirectoryCredential
	if err := r.db.GetContext(ctx, &cred, query, nid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find directory credential: %w", err)
	}
	return &cred, nil
}
