package donor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/donoralert/svc/donor"
)

func ptr[T any](v T) *T { return &v }

func TestFilterMatches(t *testing.T) {
	t.Parallel()

	p := donor.Profile{BloodType: donor.OPositive, Municipality: "Lisbon", Availability: donor.Available}

	tests := []struct {
		name   string
		filter donor.Filter
		want   bool
	}{
		{"empty filter matches", donor.Filter{}, true},
		{"blood type match", donor.Filter{BloodType: ptr(donor.OPositive)}, true},
		{"blood type mismatch", donor.Filter{BloodType: ptr(donor.ONegative)}, false},
		{"municipality is case sensitive", donor.Filter{Municipality: ptr("lisbon")}, false},
		{"all criteria", donor.Filter{
			BloodType:    ptr(donor.OPositive),
			Municipality: ptr("Lisbon"),
			Availability: ptr(donor.Available),
		}, true},
		{"one criterion fails", donor.Filter{
			BloodType:    ptr(donor.OPositive),
			Availability: ptr(donor.RecentlyDonated),
		}, false},
		{"unknown blood type matches nothing", donor.Filter{BloodType: ptr(donor.BloodType("C+"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	for _, b := range donor.BloodTypes {
		assert.True(t, b.Valid(), b)
	}
	assert.False(t, donor.BloodType("Z").Valid())
	assert.True(t, donor.RecentlyDonated.Valid())
	assert.False(t, donor.Availability("busy").Valid())
	assert.True(t, donor.Filter{}.IsZero())
	assert.False(t, donor.Filter{Municipality: ptr("")}.IsZero())
}
