package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// PostgresStore persists matches in PostgreSQL.
//
// Concurrency: Execute wraps validate-then-mutate in a transaction holding a
// SELECT ... FOR UPDATE row lock and bumps the version column, so concurrent
// transitions on one match serialize. Create relies on the partial unique
// index over (donor_id, request_id) for active statuses to close the
// double-booking race.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const matchColumns = `id, donor_id, request_id, status, notes, created_by,
	created_at, updated_at, contacted_at, accepted_at, rejected_at, completed_at, version`

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, m *Match) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (`+matchColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(m.ID), uuid.UUID(m.DonorID), uuid.UUID(m.RequestID),
		string(m.Status), m.Notes, uuid.UUID(m.CreatedBy),
		m.CreatedAt, m.UpdatedAt,
		nullTime(m.ContactedAt), nullTime(m.AcceptedAt),
		nullTime(m.RejectedAt), nullTime(m.CompletedAt), m.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, matchID domain.MatchID) (*Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, uuid.UUID(matchID))
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE request_id = $1 ORDER BY created_at, id`,
		uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

func (s *PostgresStore) ActiveDonorIDs(ctx context.Context, requestID domain.RequestID) ([]domain.DonorID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT donor_id FROM matches
		 WHERE request_id = $1 AND status = ANY($2)
		 ORDER BY donor_id`,
		uuid.UUID(requestID), pq.Array(statusStrings(ActiveStatuses())))
	if err != nil {
		return nil, fmt.Errorf("list active donor ids: %w", err)
	}
	defer rows.Close()

	var ids []domain.DonorID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan donor id: %w", err)
		}
		ids = append(ids, domain.DonorID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) CountByRequestWithStatus(ctx context.Context, requestID domain.RequestID, statuses []Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE request_id = $1 AND status = ANY($2)`,
		uuid.UUID(requestID), pq.Array(statusStrings(statuses))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Execute(ctx context.Context, matchID domain.MatchID,
	validate func(*Match) error, mutate func(*Match)) (*Match, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`,
		uuid.UUID(matchID))
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock match: %w", err)
	}

	if err := validate(m); err != nil {
		return nil, err
	}
	previousVersion := m.Version
	mutate(m)
	m.Version = previousVersion + 1

	res, err := tx.ExecContext(ctx,
		`UPDATE matches
		 SET status = $2, notes = $3, updated_at = $4,
		     contacted_at = $5, accepted_at = $6, rejected_at = $7, completed_at = $8,
		     version = $9
		 WHERE id = $1 AND version = $10`,
		uuid.UUID(m.ID), string(m.Status), m.Notes, m.UpdatedAt,
		nullTime(m.ContactedAt), nullTime(m.AcceptedAt),
		nullTime(m.RejectedAt), nullTime(m.CompletedAt),
		m.Version, previousVersion)
	if err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update match result: %w", err)
	}
	if affected == 0 {
		// The row lock should prevent this; a zero here means the version
		// check caught a concurrent writer anyway.
		return nil, sentinel.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Delete(ctx context.Context, matchID domain.MatchID, validate func(*Match) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`,
		uuid.UUID(matchID))
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock match: %w", err)
	}

	if err := validate(m); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM matches WHERE id = $1`, uuid.UUID(matchID)); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var (
		m           Match
		id          uuid.UUID
		donorID     uuid.UUID
		requestID   uuid.UUID
		status      string
		createdBy   uuid.UUID
		contactedAt sql.NullTime
		acceptedAt  sql.NullTime
		rejectedAt  sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&id, &donorID, &requestID, &status, &m.Notes, &createdBy,
		&m.CreatedAt, &m.UpdatedAt, &contactedAt, &acceptedAt, &rejectedAt,
		&completedAt, &m.Version)
	if err != nil {
		return nil, err
	}
	m.ID = domain.MatchID(id)
	m.DonorID = domain.DonorID(donorID)
	m.RequestID = domain.RequestID(requestID)
	m.Status = Status(status)
	m.CreatedBy = domain.UserID(createdBy)
	m.ContactedAt = timePtr(contactedAt)
	m.AcceptedAt = timePtr(acceptedAt)
	m.RejectedAt = timePtr(rejectedAt)
	m.CompletedAt = timePtr(completedAt)
	return &m, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
