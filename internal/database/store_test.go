package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildfire/internal/models"
)

var baseTime = time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "wildfire.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func newAlert(title string, created time.Time, ttl time.Duration) *models.Alert {
	p := 0.72
	return &models.Alert{
		Title:     title,
		Message:   "Testdistrict district has high wildfire risk (score 0.72)",
		Latitude:  27.7,
		Longitude: 85.3,
		Severity:  "high",
		Status:    models.AlertActive,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
		AlertMetadata: models.AlertMetadata{
			Forest:      "Test Park",
			District:    "Testdistrict",
			RiskLevel:   "High",
			Probability: &p,
			WeatherData: &models.WeatherSample{Temperature: 36, Humidity: 18, WindSpeed: 14, Precipitation: 0},
		},
	}
}

func TestAlertRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		in := newAlert("High Fire Risk in Test Park", baseTime, 72*time.Hour)

		id, err := s.InsertAlert(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := s.GetAlertByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "High Fire Risk in Test Park", got.Title)
		assert.Equal(t, models.AlertActive, got.Status)
		assert.True(t, got.CreatedAt.Equal(baseTime))
		assert.True(t, got.ExpiresAt.After(got.CreatedAt))
		require.NotNil(t, got.Probability)
		assert.Equal(t, 0.72, *got.Probability)
		assert.Equal(t, "Test Park", got.Forest)
		assert.Equal(t, 36.0, got.WeatherData.Temperature)

		_, err = s.GetAlertByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAlertListing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i, title := range []string{"first", "second", "third"} {
			_, err := s.InsertAlert(ctx, newAlert(title, baseTime.Add(time.Duration(i)*time.Minute), time.Hour))
			require.NoError(t, err)
		}
		expired := newAlert("old", baseTime.Add(-time.Hour), time.Minute)
		expired.Status = models.AlertExpired
		_, err := s.InsertAlert(ctx, expired)
		require.NoError(t, err)

		all, err := s.GetAlerts(ctx, 100)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "third", all[0].Title)
		assert.Equal(t, "old", all[3].Title)

		active, err := s.GetActiveAlerts(ctx, 100)
		require.NoError(t, err)
		require.Len(t, active, 3)
		for _, a := range active {
			assert.Equal(t, models.AlertActive, a.Status)
		}

		limited, err := s.GetAlerts(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}

func TestInsertAlerts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ids, err := s.InsertAlerts(ctx, []*models.Alert{
			newAlert("a", baseTime, time.Hour),
			newAlert("b", baseTime, time.Hour),
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])

		all, err := s.GetAlerts(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestUpdateAlert(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.InsertAlert(ctx, newAlert("before", baseTime, time.Hour))
		require.NoError(t, err)

		title := "after"
		severity := "moderate"
		updated, err := s.UpdateAlert(ctx, id, models.AlertPatch{Title: &title, Severity: &severity})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)
		assert.Equal(t, "moderate", updated.Severity)
		assert.Equal(t, "Test Park", updated.Forest)

		got, err := s.GetAlertByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Title)

		_, err = s.UpdateAlert(ctx, "missing", models.AlertPatch{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteAlert(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.InsertAlert(ctx, newAlert("doomed", baseTime, time.Hour))
		require.NoError(t, err)

		deleted, err := s.DeleteAlert(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.DeleteAlert(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestExpireOverdueAlerts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.InsertAlert(ctx, newAlert("overdue", baseTime.Add(-4*24*time.Hour), 72*time.Hour))
		require.NoError(t, err)
		freshID, err := s.InsertAlert(ctx, newAlert("fresh", baseTime, 72*time.Hour))
		require.NoError(t, err)

		n, err := s.ExpireOverdueAlerts(ctx, baseTime)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.ExpireOverdueAlerts(ctx, baseTime)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		fresh, err := s.GetAlertByID(ctx, freshID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertActive, fresh.Status)

		active, err := s.GetActiveAlerts(ctx, 100)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "fresh", active[0].Title)
	})
}

func TestReports(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		lat := 27.5
		older := &models.FireReport{Name: "Sita", Email: "sita@example.com", Province: "Bagmati", District: "Chitwan",
			FireDate: "2025-03-01", Description: "smoke near the river", Latitude: &lat, CreatedAt: baseTime}
		newer := &models.FireReport{Name: "Ram", Email: "ram@example.com", Province: "Lumbini", District: "Banke",
			FireDate: "2025-04-10", Description: "flames on the ridge", CreatedAt: baseTime}

		olderID, err := s.InsertReport(ctx, older)
		require.NoError(t, err)
		_, err = s.InsertReport(ctx, newer)
		require.NoError(t, err)

		reports, err := s.GetReports(ctx, 100)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, "2025-04-10", reports[0].FireDate)
		assert.Nil(t, reports[0].Latitude)

		got, err := s.GetReportByID(ctx, olderID)
		require.NoError(t, err)
		require.NotNil(t, got.Latitude)
		assert.Equal(t, 27.5, *got.Latitude)
		assert.False(t, got.Resolved)

		resolved, err := s.SetReportResolved(ctx, olderID, true)
		require.NoError(t, err)
		assert.True(t, resolved.Resolved)

		_, err = s.SetReportResolved(ctx, "missing", true)
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err := s.DeleteReport(ctx, olderID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.GetReportByID(ctx, olderID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessages(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.InsertMessage(ctx, &models.ContactMessage{Name: "Hari", Email: "hari@example.com",
			Subject: "Volunteering", Message: "How can I help?", CreatedAt: baseTime})
		require.NoError(t, err)

		messages, err := s.GetMessages(ctx, 100)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "Volunteering", messages[0].Subject)

		deleted, err := s.DeleteMessage(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = s.DeleteMessage(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		otpAt := baseTime
		u := &models.User{Email: "Gita@Example.com", Username: "gita", NID: "12-34", PasswordHash: "hash",
			Role: models.RoleUser, OTP: "123456", OTPCreatedAt: &otpAt, CreatedAt: baseTime}
		require.NoError(t, s.CreateUser(ctx, u))
		assert.Equal(t, "gita@example.com", u.Email)

		dupes := []*models.User{
			{Email: "gita@example.com", Username: "other", NID: "99", Role: models.RoleUser, CreatedAt: baseTime},
			{Email: "x@example.com", Username: "gita", NID: "98", Role: models.RoleUser, CreatedAt: baseTime},
			{Email: "y@example.com", Username: "y", NID: "12-34", Role: models.RoleUser, CreatedAt: baseTime},
		}
		for i, field := range []string{"email", "username", "nid"} {
			err := s.CreateUser(ctx, dupes[i])
			assert.ErrorIs(t, err, ErrDuplicate)
			var dup *DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, field, dup.Field)
		}

		// admins have no NID, several may coexist
		require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a1@example.com", Username: "a1", Role: models.RoleAdmin, CreatedAt: baseTime}))
		require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a2@example.com", Username: "a2", Role: models.RoleAdmin, CreatedAt: baseTime}))

		byEmail, err := s.GetUserByEmail(ctx, "GITA@example.com")
		require.NoError(t, err)
		assert.Equal(t, "gita", byEmail.Username)
		require.NotNil(t, byEmail.OTPCreatedAt)
		assert.True(t, byEmail.OTPCreatedAt.Equal(otpAt))

		byName, err := s.GetUserByLogin(ctx, "gita")
		require.NoError(t, err)
		assert.Equal(t, byEmail.ID, byName.ID)

		byName.IsVerified = true
		byName.OTP = ""
		byName.OTPCreatedAt = nil
		require.NoError(t, s.UpdateUser(ctx, byName))

		reloaded, err := s.GetUserByEmail(ctx, "gita@example.com")
		require.NoError(t, err)
		assert.True(t, reloaded.IsVerified)
		assert.Nil(t, reloaded.OTPCreatedAt)

		require.NoError(t, s.DeleteUser(ctx, reloaded.ID))
		_, err = s.GetUserByEmail(ctx, "gita@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteUser(ctx, reloaded.ID), ErrNotFound)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, err := s.InsertAlert(ctx, newAlert("first title", baseTime, time.Hour))
	require.NoError(t, err)

	got, err := s.GetAlertByID(ctx, id)
	require.NoError(t, err)
	got.Title = "mutated"
	*got.Probability = 0.1

	again, err := s.GetAlertByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first title", again.Title)
	assert.Equal(t, 0.72, *again.Probability)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "", "", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	// unreachable mysql degrades to memory
	s, err = Open(ctx, "mysql", "nobody:nothing@tcp(127.0.0.1:1)/none?timeout=200ms", "", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "sqlite", "", filepath.Join(t.TempDir(), "open.db"), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.(*SQLStore).Driver())
	s.Close()

	_, err = Open(ctx, "mongo", "", "", testLogger())
	assert.Error(t, err)
}
