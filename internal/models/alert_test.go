package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertPatch_IsEmpty(t *testing.T) {
	assert.True(t, AlertPatch{}.IsEmpty())

	reason := "wind shift"
	assert.False(t, AlertPatch{Reason: &reason}.IsEmpty())
}

func TestAlertPatch_Apply(t *testing.T) {
	created := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	a := Alert{
		Title:         "High Fire Risk in Test Park",
		Severity:      "high",
		Status:        AlertActive,
		CreatedAt:     created,
		ExpiresAt:     created.Add(72 * time.Hour),
		AlertMetadata: AlertMetadata{District: "Testdistrict"},
	}

	status := AlertExpired
	expires := created.Add(24 * time.Hour).In(time.FixedZone("NPT", 5*3600+45*60))
	AlertPatch{Status: &status, ExpiresAt: &expires}.Apply(&a)

	assert.Equal(t, AlertExpired, a.Status)
	assert.Equal(t, time.UTC, a.ExpiresAt.Location())
	assert.True(t, a.ExpiresAt.Equal(expires))
	assert.Equal(t, "High Fire Risk in Test Park", a.Title)
	assert.Equal(t, "Testdistrict", a.District)
}

func TestAlert_IsOverdue(t *testing.T) {
	now := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		alert   Alert
		overdue bool
	}{
		{"active past expiry", Alert{Status: AlertActive, ExpiresAt: now.Add(-time.Second)}, true},
		{"active at expiry", Alert{Status: AlertActive, ExpiresAt: now}, false},
		{"active in future", Alert{Status: AlertActive, ExpiresAt: now.Add(time.Hour)}, false},
		{"already expired", Alert{Status: AlertExpired, ExpiresAt: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overdue, tt.alert.IsOverdue(now))
		})
	}
}
