package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cahsa-api/internal/models"
)

// StudentDirectoryRepository reads the campus student directory.
type StudentDirectoryRepository struct {
	db *sqlx.DB
}

// NewStudentDirectoryRepository constructs the repository.
func NewStudentDirectoryRepository(db *sqlx.DB) *StudentDirectoryRepository {
	return &StudentDirectoryRepository{db: db}
}

// FindByPID returns the directory entry for a student PID.
func (r *StudentDirectoryRepository) FindByPID(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error) {
	const query = `SELECT pid, fname, lname, email FROM student_directory WHERE pid = $1 LIMIT 1`
	var entry models.StudentDirectoryEntry
	if err := r.db.GetContext(ctx, &entry, query, pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by pid: %w", err)
	}
	return &entry, nil
}
