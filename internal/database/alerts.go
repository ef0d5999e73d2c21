package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

const alertColumns = `id, title, message, latitude, longitude, severity, status, created_at, expires_at, metadata`

const insertAlertSQL = `INSERT INTO alerts (` + alertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func alertArgs(a *models.Alert) ([]interface{}, error) {
	meta, err := json.Marshal(a.AlertMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert metadata: %w", err)
	}
	return []interface{}{
		a.ID, a.Title, a.Message, a.Latitude, a.Longitude, a.Severity, string(a.Status),
		toMicros(a.CreatedAt), toMicros(a.ExpiresAt), string(meta),
	}, nil
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a                  models.Alert
		status, meta       string
		created, expiresAt int64
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Message, &a.Latitude, &a.Longitude, &a.Severity,
		&status, &created, &expiresAt, &meta); err != nil {
		return nil, err
	}
	a.Status = models.AlertStatus(status)
	a.CreatedAt = fromMicros(created)
	a.ExpiresAt = fromMicros(expiresAt)
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &a.AlertMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode alert metadata: %w", err)
		}
	}
	return &a, nil
}

// prepareAlert assigns an id when missing and normalizes times to UTC
func prepareAlert(a *models.Alert) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AlertActive
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.ExpiresAt = a.ExpiresAt.UTC()
}

func (s *SQLStore) InsertAlert(ctx context.Context, alert *models.Alert) (string, error) {
	prepareAlert(alert)
	args, err := alertArgs(alert)
	if err != nil {
		return "", err
	}
	if _, err := s.exec(ctx, "INSERT", "alerts", insertAlertSQL, args...); err != nil {
		return "", fmt.Errorf("failed to insert alert: %w", err)
	}
	return alert.ID, nil
}

// InsertAlerts stores a batch in one transaction; either all or none are written
func (s *SQLStore) InsertAlerts(ctx context.Context, alerts []*models.Alert) ([]string, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	start := time.Now()
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertAlertSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		prepareAlert(a)
		args, err := alertArgs(a)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("failed to insert alert %q: %w", a.Title, err)
		}
		ids = append(ids, a.ID)
	}

	err = tx.Commit()
	metrics.RecordDBQuery("INSERT_BATCH", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

func (s *SQLStore) GetAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return s.listAlerts(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *SQLStore) GetActiveAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return s.listAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		string(models.AlertActive), limit)
}

func (s *SQLStore) listAlerts(ctx context.Context, query string, args ...interface{}) ([]models.Alert, error) {
	rows, err := s.query(ctx, "alerts", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLStore) GetAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	rows, err := s.query(ctx, "alerts", `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanAlert(rows)
}

// UpdateAlert applies patch to the stored alert and returns the result
func (s *SQLStore) UpdateAlert(ctx context.Context, id string, patch models.AlertPatch) (*models.Alert, error) {
	alert, err := s.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(alert)

	meta, err := json.Marshal(alert.AlertMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert metadata: %w", err)
	}
	_, err = s.exec(ctx, "UPDATE", "alerts",
		`UPDATE alerts SET title = ?, message = ?, latitude = ?, longitude = ?, severity = ?, status = ?, expires_at = ?, metadata = ? WHERE id = ?`,
		alert.Title, alert.Message, alert.Latitude, alert.Longitude, alert.Severity, string(alert.Status),
		toMicros(alert.ExpiresAt), string(meta), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

func (s *SQLStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "alerts", id)
}

// ExpireOverdueAlerts marks every active alert whose expiry is before now
func (s *SQLStore) ExpireOverdueAlerts(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, "UPDATE", "alerts",
		`UPDATE alerts SET status = ? WHERE status = ? AND expires_at < ?`,
		string(models.AlertExpired), string(models.AlertActive), toMicros(now))
	if err != nil {
		return 0, fmt.Errorf("failed to expire alerts: %w", err)
	}
	return res.RowsAffected()
}
