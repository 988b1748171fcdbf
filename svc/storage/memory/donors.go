package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/donor"
)

// Donors implements donor.Registry. Profiles are keyed by user.
type Donors struct {
	access access
	now    func() time.Time
}

func (d *Donors) Query(ctx context.Context, filter donor.Filter) ([]donor.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []donor.Profile
	err := d.access(func(s *state) error {
		out = make([]donor.Profile, 0, len(s.profiles))
		for _, p := range s.profiles {
			if filter.Matches(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (d *Donors) Get(ctx context.Context, userID uuid.UUID) (donor.Profile, error) {
	var out donor.Profile
	err := d.access(func(s *state) error {
		for _, p := range s.profiles {
			if p.UserID == userID {
				out = p
				return nil
			}
		}
		return donor.ErrProfileNotFound
	})
	return out, err
}

// Upsert inserts or replaces the profile of p.UserID.
func (d *Donors) Upsert(ctx context.Context, p donor.Profile) (donor.Profile, error) {
	if !p.BloodType.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidBloodType, p.BloodType)
	}
	if !p.Availability.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, p.Availability)
	}
	now := d.clock()
	err := d.access(func(s *state) error {
		for i, existing := range s.profiles {
			if existing.UserID == p.UserID {
				p.ID = existing.ID
				p.CreatedAt = existing.CreatedAt
				p.UpdatedAt = now
				s.profiles[i] = p
				return nil
			}
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		s.profiles = append(s.profiles, p)
		return nil
	})
	return p, err
}

func (d *Donors) SetAvailability(ctx context.Context, userID uuid.UUID, a donor.Availability) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, a)
	}
	now := d.clock()
	return d.access(func(s *state) error {
		for i := range s.profiles {
			if s.profiles[i].UserID == userID {
				s.profiles[i].Availability = a
				s.profiles[i].UpdatedAt = now
				return nil
			}
		}
		return donor.ErrProfileNotFound
	})
}

func (d *Donors) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now().UTC()
}
