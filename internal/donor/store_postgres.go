package donor

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

// PostgresStore persists donors in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const donorColumns = `id, blood_type, gender, area, is_available, is_verified,
	last_donation, donation_count, reliability_score`

func (s *PostgresStore) FindByID(ctx context.Context, donorID domain.DonorID) (*Donor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE id = $1`,
		uuid.UUID(donorID))
	d, err := scanDonor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, q CandidateQuery) ([]*Donor, error) {
	types := make([]string, len(q.BloodTypes))
	for i, t := range q.BloodTypes {
		types[i] = t.String()
	}
	excluded := make([]uuid.UUID, len(q.ExcludedIDs))
	for i, id := range q.ExcludedIDs {
		excluded[i] = uuid.UUID(id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+donorColumns+`
		 FROM donors
		 WHERE blood_type = ANY($1)
		   AND is_available
		   AND is_verified
		   AND (last_donation IS NULL OR last_donation <= $2)
		   AND NOT (id = ANY($3))
		 ORDER BY id`,
		pq.Array(types), q.DonatedBefore, pq.Array(excluded))
	if err != nil {
		return nil, fmt.Errorf("list candidate donors: %w", err)
	}
	defer rows.Close()

	var donors []*Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate donor: %w", err)
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate donors: %w", err)
	}
	return donors, nil
}

func (s *PostgresStore) ApplyDonationStats(ctx context.Context, donorID domain.DonorID, donatedAt time.Time) (*Donor, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE donors
		 SET last_donation = $2,
		     donation_count = donation_count + 1,
		     reliability_score = reliability_score + $3
		 WHERE id = $1
		 RETURNING `+donorColumns,
		uuid.UUID(donorID), donatedAt, ReliabilityBumpPerDonation)
	d, err := scanDonor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("apply donation stats: %w", err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*Donor, error) {
	var (
		d            Donor
		id           uuid.UUID
		bloodType    string
		gender       string
		lastDonation sql.NullTime
	)
	err := row.Scan(&id, &bloodType, &gender, &d.Area, &d.IsAvailable,
		&d.IsVerified, &lastDonation, &d.DonationCount, &d.ReliabilityScore)
	if err != nil {
		return nil, err
	}
	d.ID = domain.DonorID(id)
	d.BloodType = domain.BloodType(bloodType)
	d.Gender = domain.Gender(gender)
	if lastDonation.Valid {
		t := lastDonation.Time
		d.LastDonation = &t
	}
	return &d, nil
}
