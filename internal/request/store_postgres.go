package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// PostgresStore persists blood requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, blood_type, location, urgency_level, units_required,
	status, completed_at`

func (s *PostgresStore) FindByID(ctx context.Context, requestID domain.RequestID) (*BloodRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM blood_requests WHERE id = $1`,
		uuid.UUID(requestID))
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find blood request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, requestID domain.RequestID, at time.Time) (*BloodRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE blood_requests
		 SET status = $2,
		     completed_at = COALESCE(completed_at, $3)
		 WHERE id = $1
		 RETURNING `+requestColumns,
		uuid.UUID(requestID), string(StatusCompleted), at)
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark request completed: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*BloodRequest, error) {
	var (
		r           BloodRequest
		id          uuid.UUID
		bloodType   string
		urgency     string
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(&id, &bloodType, &r.Location, &urgency, &r.UnitsRequired,
		&status, &completedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.RequestID(id)
	r.BloodType = domain.BloodType(bloodType)
	r.UrgencyLevel = domain.UrgencyLevel(urgency)
	r.Status = Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
