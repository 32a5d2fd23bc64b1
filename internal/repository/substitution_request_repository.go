package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/pkg/database"
)

const requestColumns = `r.id, r.requestor, r.pid, r.name, r.email, r.year, r.program, r.major, r.minor,
       r.oprefix, r.onumber, r.otitle, r.ohours, r.ograde, r.osemester, r.otype,
       r.uprefix, r.unumber, r.uother, r.rg, r.rq, r.ln, r.uhours,
       r.transfer_rule, r.comments, r.uaudit, r.created_at, r.updated_at`

// openStatuses is the SQL list of statuses that still accept edits and decisions.
var openStatuses = fmt.Sprintf("'%s', '%s'", models.StatusPending, models.StatusSentBack)

// SubstitutionRequestRepository persists requests and their status rows.
type SubstitutionRequestRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSubstitutionRequestRepository constructs the repository.
func NewSubstitutionRequestRepository(db *sqlx.DB) *SubstitutionRequestRepository {
	return &SubstitutionRequestRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the request joined with its status.
func (r *SubstitutionRequestRepository) Get(ctx context.Context, id string) (*models.RequestRecord, error) {
	query := `SELECT ` + requestColumns + `,
       COALESCE(s.status, 'pending') AS status, COALESCE(s.reason, '') AS reason,
       COALESCE(s.time, r.created_at) AS status_time, s.reviewed_by
	FROM substitution_requests r
	LEFT JOIN request_statuses s ON s.request_id = r.id
	WHERE r.id = $1`
	var record models.RequestRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns request summaries matching the filter, oldest status change first.
func (r *SubstitutionRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestSummary, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, len(filter.Statuses)+1)
	builder.WriteString(`SELECT r.id, r.pid, r.name, r.major, r.minor, r.uaudit, r.requestor,
       COALESCE(NULLIF(TRIM(CONCAT_WS(' ', u.fname, u.lname)), ''), r.requestor) AS requestor_name,
       s.status, s.reason, s.time AS status_time
	FROM substitution_requests r
	JOIN request_statuses s ON s.request_id = r.id
	LEFT JOIN users u ON u.id = r.requestor`)

	conditions := make([]string, 0, 2)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("s.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.PID != "" {
		args = append(args, filter.PID)
		conditions = append(conditions, fmt.Sprintf("r.pid = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY s.time ASC, r.created_at ASC")

	var summaries []models.RequestSummary
	if err := r.db.SelectContext(ctx, &summaries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list substitution requests: %w", err)
	}
	return summaries, nil
}

// Insert stores a new request together with its pending status row.
func (r *SubstitutionRequestRepository) Insert(ctx context.Context, req *models.SubstitutionRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := r.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = req.CreatedAt

	const insertRequest = `INSERT INTO substitution_requests
	(id, requestor, pid, name, email, year, program, major, minor,
	 oprefix, onumber, otitle, ohours, ograde, osemester, otype,
	 uprefix, unumber, uother, rg, rq, ln, uhours,
	 transfer_rule, comments, uaudit, created_at, updated_at)
	VALUES (:id, :requestor, :pid, :name, :email, :year, :program, :major, :minor,
	 :oprefix, :onumber, :otitle, :ohours, :ograde, :osemester, :otype,
	 :uprefix, :unumber, :uother, :rg, :rq, :ln, :uhours,
	 :transfer_rule, :comments, :uaudit, :created_at, :updated_at)`
	const insertStatus = `INSERT INTO request_statuses (request_id, status, reason, time, reviewed_by)
	VALUES (:request_id, :status, :reason, :time, :reviewed_by)`

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertRequest, req); err != nil {
			return fmt.Errorf("insert substitution request: %w", err)
		}
		status := models.RequestStatusRecord{
			RequestID: req.ID,
			Status:    models.StatusPending,
			Time:      req.CreatedAt,
		}
		if _, err := tx.NamedExecContext(ctx, insertStatus, &status); err != nil {
			return fmt.Errorf("insert request status: %w", err)
		}
		return nil
	})
}

// Update overwrites the mutable request fields and re-queues the request as
// pending with an empty reason. It returns sql.ErrNoRows when the request is
// missing or no longer open. UpdatedAt doubles as the new status time.
func (r *SubstitutionRequestRepository) Update(ctx context.Context, req *models.SubstitutionRequest) error {
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = r.now()
	}

	const updateRequest = `UPDATE substitution_requests SET
	 pid = :pid, name = :name, email = :email, year = :year, program = :program,
	 major = :major, minor = :minor,
	 oprefix = :oprefix, onumber = :onumber, otitle = :otitle, ohours = :ohours,
	 ograde = :ograde, osemester = :osemester, otype = :otype,
	 uprefix = :uprefix, unumber = :unumber, uother = :uother,
	 rg = :rg, rq = :rq, ln = :ln, uhours = :uhours,
	 transfer_rule = :transfer_rule, comments = :comments, uaudit = :uaudit,
	 updated_at = :updated_at
	WHERE id = :id`
	resetStatus := fmt.Sprintf(`UPDATE request_statuses
	SET status = :status, reason = '', time = :time, reviewed_by = NULL
	WHERE request_id = :request_id AND status IN (%s)`, openStatuses)

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, updateRequest, req)
		if err != nil {
			return fmt.Errorf("update substitution request: %w", err)
		}
		if err := requireRow(result, "update substitution request"); err != nil {
			return err
		}

		result, err = tx.NamedExecContext(ctx, resetStatus, map[string]interface{}{
			"request_id": req.ID,
			"status":     models.StatusPending,
			"time":       req.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("reset request status: %w", err)
		}
		return requireRow(result, "reset request status")
	})
}

// SetStatusParams describes a reviewer decision.
type SetStatusParams struct {
	RequestID  string
	Status     models.RequestStatus
	Reason     string
	ReviewedBy string
	Time       time.Time
}

// SetStatus records a decision, but only while the request is still open so
// two reviewers cannot both decide. It returns sql.ErrNoRows otherwise.
func (r *SubstitutionRequestRepository) SetStatus(ctx context.Context, params SetStatusParams) error {
	if params.Time.IsZero() {
		params.Time = r.now()
	}
	query := fmt.Sprintf(`UPDATE request_statuses
	SET status = :status, reason = :reason, time = :time, reviewed_by = :reviewed_by
	WHERE request_id = :request_id AND status IN (%s)`, openStatuses)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"request_id":  params.RequestID,
		"status":      params.Status,
		"reason":      params.Reason,
		"time":        params.Time,
		"reviewed_by": params.ReviewedBy,
	})
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	return requireRow(result, "set request status")
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
