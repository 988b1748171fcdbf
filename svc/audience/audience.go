// Package audience turns an alert's target audience into a donor filter and
// resolves it to a recipient set.
//
// Criteria combine with AND; a missing criterion is a wildcard, so an absent
// audience is a broadcast to every donor in the directory. Values are compared
// verbatim: an unrecognised blood type or availability selects nobody.
package audience

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/donor"
)

// Audience is the optional target of an alert. A nil *Audience means broadcast.
type Audience struct {
	BloodType    *donor.BloodType    `json:"blood_type,omitempty"`
	Municipality *string             `json:"municipality,omitempty"`
	Availability *donor.Availability `json:"availability,omitempty"`
}

// Option sets one criterion on an Audience.
type Option func(*Audience)

func ByBloodType(b donor.BloodType) Option {
	return func(a *Audience) { a.BloodType = &b }
}

func InMunicipality(m string) Option {
	return func(a *Audience) { a.Municipality = &m }
}

func WithAvailability(v donor.Availability) Option {
	return func(a *Audience) { a.Availability = &v }
}

// New builds an Audience. With no options it returns nil (broadcast).
func New(opts ...Option) *Audience {
	if len(opts) == 0 {
		return nil
	}
	a := &Audience{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Parse decodes a stored or submitted audience payload. It never fails:
// anything that is not a JSON object yields nil, unknown keys are ignored,
// and a key whose value has the wrong type is treated as absent.
func Parse(raw []byte) *Audience {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}

	a := &Audience{}
	if s, ok := stringField(fields, "blood_type"); ok {
		b := donor.BloodType(s)
		a.BloodType = &b
	}
	if s, ok := stringField(fields, "municipality"); ok {
		a.Municipality = &s
	}
	if s, ok := stringField(fields, "availability"); ok {
		v := donor.Availability(s)
		a.Availability = &v
	}
	if a.IsBroadcast() {
		return nil
	}
	return a
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// UnmarshalJSON applies the same lenient rules as Parse.
func (a *Audience) UnmarshalJSON(data []byte) error {
	parsed := Parse(data)
	if parsed == nil {
		*a = Audience{}
		return nil
	}
	*a = *parsed
	return nil
}

// IsBroadcast reports whether the audience selects every donor.
func (a *Audience) IsBroadcast() bool {
	return a == nil || a.Filter().IsZero()
}

// Filter converts the audience into a directory filter.
func (a *Audience) Filter() donor.Filter {
	if a == nil {
		return donor.Filter{}
	}
	return donor.Filter{
		BloodType:    a.BloodType,
		Municipality: a.Municipality,
		Availability: a.Availability,
	}
}

func (a *Audience) Matches(p donor.Profile) bool {
	return a.Filter().Matches(p)
}

// Select applies the audience to an in-memory profile list and returns one
// profile per user, in input order.
func Select(profiles []donor.Profile, a *Audience) []donor.Profile {
	filter := a.Filter()
	seen := make(map[uuid.UUID]struct{}, len(profiles))
	out := make([]donor.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !filter.Matches(p) {
			continue
		}
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Resolve queries the directory for the audience and returns recipients
// deduplicated by user. The directory is trusted to apply the filter; results
// are re-checked so a loose backend cannot widen the audience.
func Resolve(ctx context.Context, dir donor.Directory, a *Audience) ([]donor.Profile, error) {
	profiles, err := dir.Query(ctx, a.Filter())
	if err != nil {
		return nil, err
	}
	return Select(profiles, a), nil
}
