package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/pg"
	"github.com/dmitrymomot/donoralert/svc/donor"
)

const donorColumns = `id, user_id, blood_type, municipality, availability, age, created_at, updated_at`

// Donors implements donor.Registry over donor_profiles.
type Donors struct {
	q     querier
	clock clock.Clock
}

func donorQuery(f donor.Filter) (string, []any) {
	var w where
	if f.BloodType != nil {
		w.add("blood_type = $%d", string(*f.BloodType))
	}
	if f.Municipality != nil {
		w.add("municipality = $%d", *f.Municipality)
	}
	if f.Availability != nil {
		w.add("availability = $%d", string(*f.Availability))
	}
	return "SELECT " + donorColumns + " FROM donor_profiles" + w.String() + " ORDER BY created_at, id", w.args
}

func (d *Donors) Query(ctx context.Context, filter donor.Filter) ([]donor.Profile, error) {
	sql, args := donorQuery(filter)
	rows, err := d.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query donors: %w", err)
	}
	profiles, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return nil, fmt.Errorf("scan donors: %w", err)
	}
	return profiles, nil
}

func (d *Donors) Get(ctx context.Context, userID uuid.UUID) (donor.Profile, error) {
	rows, err := d.q.Query(ctx, "SELECT "+donorColumns+" FROM donor_profiles WHERE user_id = $1", userID)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("get donor: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProfile)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return donor.Profile{}, donor.ErrProfileNotFound
		}
		return donor.Profile{}, fmt.Errorf("get donor: %w", err)
	}
	return p, nil
}

// Upsert inserts or replaces the profile of p.UserID, keeping id and created_at.
func (d *Donors) Upsert(ctx context.Context, p donor.Profile) (donor.Profile, error) {
	if !p.BloodType.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidBloodType, p.BloodType)
	}
	if !p.Availability.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, p.Availability)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := d.clock.Now()

	rows, err := d.q.Query(ctx, `
		INSERT INTO donor_profiles (`+donorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			blood_type = EXCLUDED.blood_type,
			municipality = EXCLUDED.municipality,
			availability = EXCLUDED.availability,
			age = EXCLUDED.age,
			updated_at = EXCLUDED.updated_at
		RETURNING `+donorColumns,
		p.ID, p.UserID, string(p.BloodType), p.Municipality, string(p.Availability), p.Age, now,
	)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("upsert donor: %w", err)
	}
	saved, err := pgx.CollectExactlyOneRow(rows, scanProfile)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("upsert donor: %w", err)
	}
	return saved, nil
}

func (d *Donors) SetAvailability(ctx context.Context, userID uuid.UUID, a donor.Availability) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, a)
	}
	tag, err := d.q.Exec(ctx,
		"UPDATE donor_profiles SET availability = $2, updated_at = $3 WHERE user_id = $1",
		userID, string(a), d.clock.Now(),
	)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return donor.ErrProfileNotFound
	}
	return nil
}

func scanProfile(row pgx.CollectableRow) (donor.Profile, error) {
	var (
		p            donor.Profile
		bloodType    string
		availability string
	)
	err := row.Scan(&p.ID, &p.UserID, &bloodType, &p.Municipality, &availability, &p.Age, &p.CreatedAt, &p.UpdatedAt)
	p.BloodType = donor.BloodType(bloodType)
	p.Availability = donor.Availability(availability)
	return p, err
}
