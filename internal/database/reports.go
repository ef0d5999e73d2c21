package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"wildfire/internal/models"
)

const reportColumns = `id, name, email, province, district, location_details, fire_date, description, latitude, longitude, resolved, created_at`

func scanReport(row rowScanner) (*models.FireReport, error) {
	var (
		r        models.FireReport
		lat, lon sql.NullFloat64
		created  int64
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Province, &r.District, &r.LocationDetails,
		&r.FireDate, &r.Description, &lat, &lon, &r.Resolved, &created); err != nil {
		return nil, err
	}
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lon.Valid {
		r.Longitude = &lon.Float64
	}
	r.CreatedAt = fromMicros(created)
	return &r, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *SQLStore) InsertReport(ctx context.Context, r *models.FireReport) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.exec(ctx, "INSERT", "fire_reports",
		`INSERT INTO fire_reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Email, r.Province, r.District, r.LocationDetails, r.FireDate, r.Description,
		nullFloat(r.Latitude), nullFloat(r.Longitude), r.Resolved, toMicros(r.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert fire report: %w", err)
	}
	return r.ID, nil
}

// GetReports lists reports with the most recent fire first
func (s *SQLStore) GetReports(ctx context.Context, limit int) ([]models.FireReport, error) {
	rows, err := s.query(ctx, "fire_reports",
		`SELECT `+reportColumns+` FROM fire_reports ORDER BY fire_date DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fire reports: %w", err)
	}
	defer rows.Close()

	reports := []models.FireReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func (s *SQLStore) GetReportByID(ctx context.Context, id string) (*models.FireReport, error) {
	rows, err := s.query(ctx, "fire_reports", `SELECT `+reportColumns+` FROM fire_reports WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fire report: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanReport(rows)
}

func (s *SQLStore) SetReportResolved(ctx context.Context, id string, resolved bool) (*models.FireReport, error) {
	report, err := s.GetReportByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec(ctx, "UPDATE", "fire_reports", `UPDATE fire_reports SET resolved = ? WHERE id = ?`, resolved, id); err != nil {
		return nil, fmt.Errorf("failed to update fire report: %w", err)
	}
	report.Resolved = resolved
	return report, nil
}

func (s *SQLStore) DeleteReport(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "fire_reports", id)
}

func (s *SQLStore) InsertMessage(ctx context.Context, m *models.ContactMessage) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.exec(ctx, "INSERT", "contact_messages",
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, toMicros(m.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert contact message: %w", err)
	}
	return m.ID, nil
}

func (s *SQLStore) GetMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	rows, err := s.query(ctx, "contact_messages",
		`SELECT id, name, email, subject, message, created_at FROM contact_messages ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ContactMessage{}
	for rows.Next() {
		var (
			m       models.ContactMessage
			created int64
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = fromMicros(created)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLStore) DeleteMessage(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "contact_messages", id)
}
