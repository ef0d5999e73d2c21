package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wildfire/internal/models"
)

// MemoryStore is the in-process Store used when no database is configured or
// reachable. Data is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	alerts   []models.Alert
	reports  []models.FireReport
	messages []models.ContactMessage
	users    []models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) InsertAlert(ctx context.Context, alert *models.Alert) (string, error) {
	prepareAlert(alert)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, cloneAlert(*alert))
	return alert.ID, nil
}

func (m *MemoryStore) InsertAlerts(ctx context.Context, alerts []*models.Alert) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		prepareAlert(a)
		m.alerts = append(m.alerts, cloneAlert(*a))
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (m *MemoryStore) GetAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return m.listAlerts(limit, func(models.Alert) bool { return true }), nil
}

func (m *MemoryStore) GetActiveAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return m.listAlerts(limit, func(a models.Alert) bool { return a.Status == models.AlertActive }), nil
}

// listAlerts returns matching alerts newest first; equal timestamps keep the
// later insert first
func (m *MemoryStore) listAlerts(limit int, keep func(models.Alert) bool) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Alert{}
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if keep(m.alerts[i]) {
			out = append(out, cloneAlert(m.alerts[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *MemoryStore) alertIndex(id string) int {
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) GetAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.alertIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	a := cloneAlert(m.alerts[i])
	return &a, nil
}

func (m *MemoryStore) UpdateAlert(ctx context.Context, id string, patch models.AlertPatch) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.alertIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	patch.Apply(&m.alerts[i])
	a := cloneAlert(m.alerts[i])
	return &a, nil
}

func (m *MemoryStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.alertIndex(id)
	if i < 0 {
		return false, nil
	}
	m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
	return true, nil
}

func (m *MemoryStore) ExpireOverdueAlerts(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.alerts {
		if m.alerts[i].IsOverdue(now) {
			m.alerts[i].Status = models.AlertExpired
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertReport(ctx context.Context, r *models.FireReport) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *r)
	return r.ID, nil
}

func (m *MemoryStore) GetReports(ctx context.Context, limit int) ([]models.FireReport, error) {
	m.mu.RLock()
	out := append([]models.FireReport{}, m.reports...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FireDate != out[j].FireDate {
			return out[i].FireDate > out[j].FireDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) reportIndex(id string) int {
	for i := range m.reports {
		if m.reports[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) GetReportByID(ctx context.Context, id string) (*models.FireReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.reportIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r := m.reports[i]
	return &r, nil
}

func (m *MemoryStore) SetReportResolved(ctx context.Context, id string, resolved bool) (*models.FireReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.reportIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	m.reports[i].Resolved = resolved
	r := m.reports[i]
	return &r, nil
}

func (m *MemoryStore) DeleteReport(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.reportIndex(id)
	if i < 0 {
		return false, nil
	}
	m.reports = append(m.reports[:i], m.reports[i+1:]...)
	return true, nil
}

func (m *MemoryStore) InsertMessage(ctx context.Context, msg *models.ContactMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return msg.ID, nil
}

func (m *MemoryStore) GetMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ContactMessage{}
	for i := len(m.messages) - 1; i >= 0; i-- {
		out = append(out, m.messages[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteMessage(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		switch {
		case existing.Email == u.Email:
			return &DuplicateError{Field: "email"}
		case existing.Username == u.Username:
			return &DuplicateError{Field: "username"}
		case u.NID != "" && existing.NID == u.NID:
			return &DuplicateError{Field: "nid"}
		}
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	email := strings.ToLower(identifier)
	return m.findUser(func(u models.User) bool { return u.Email == email || u.Username == identifier })
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == u.ID {
			m.users[i] = *u
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// cloneAlert copies the pointer fields so callers can't mutate stored state
func cloneAlert(a models.Alert) models.Alert {
	if a.Probability != nil {
		p := *a.Probability
		a.Probability = &p
	}
	if a.WeatherData != nil {
		w := *a.WeatherData
		a.WeatherData = &w
	}
	return a
}
