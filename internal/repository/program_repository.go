package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProgramRepository reads department program descriptions.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// DescriptionsForDepartment lists raw program descriptions such as
// "Anthropology - BA, MA" for a department.
func (r *ProgramRepository) DescriptionsForDepartment(ctx context.Context, departmentID int) ([]string, error) {
	const query = `SELECT description FROM department_programs WHERE department_id = $1 ORDER BY description`
	var descriptions []string
	if err := r.db.SelectContext(ctx, &descriptions, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department programs: %w", err)
	}
	return descriptions, nil
}
