// Package donor defines donor profiles and the directory they are queried from.
package donor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BloodType is an ABO/Rh blood group.
type BloodType string

const (
	APositive  BloodType = "A+"
	ANegative  BloodType = "A-"
	BPositive  BloodType = "B+"
	BNegative  BloodType = "B-"
	ABPositive BloodType = "AB+"
	ABNegative BloodType = "AB-"
	OPositive  BloodType = "O+"
	ONegative  BloodType = "O-"
)

// BloodTypes lists every known blood type.
var BloodTypes = []BloodType{APositive, ANegative, BPositive, BNegative, ABPositive, ABNegative, OPositive, ONegative}

func (b BloodType) Valid() bool {
	for _, v := range BloodTypes {
		if v == b {
			return true
		}
	}
	return false
}

// Availability describes whether a donor can currently donate.
type Availability string

const (
	Available       Availability = "available"
	Unavailable     Availability = "unavailable"
	RecentlyDonated Availability = "recently_donated"
)

func (a Availability) Valid() bool {
	switch a {
	case Available, Unavailable, RecentlyDonated:
		return true
	}
	return false
}

// Profile is a donor's directory entry. Profiles are never deleted.
type Profile struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	BloodType    BloodType    `json:"blood_type"`
	Municipality string       `json:"municipality"`
	Availability Availability `json:"availability"`
	Age          int          `json:"age"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Filter selects profiles by exact equality on each non-nil field.
// All present fields must match; a nil field matches anything.
type Filter struct {
	BloodType    *BloodType
	Municipality *string
	Availability *Availability
}

// IsZero reports whether the filter has no criteria.
func (f Filter) IsZero() bool {
	return f.BloodType == nil && f.Municipality == nil && f.Availability == nil
}

func (f Filter) Matches(p Profile) bool {
	if f.BloodType != nil && p.BloodType != *f.BloodType {
		return false
	}
	if f.Municipality != nil && p.Municipality != *f.Municipality {
		return false
	}
	if f.Availability != nil && p.Availability != *f.Availability {
		return false
	}
	return true
}

// Directory is the read side used when resolving alert recipients.
type Directory interface {
	Query(ctx context.Context, filter Filter) ([]Profile, error)
}

// Registry is a Directory that also accepts profile updates.
type Registry interface {
	Directory
	Get(ctx context.Context, userID uuid.UUID) (Profile, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, a Availability) error
}
