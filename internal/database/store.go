package database

import (
	"context"
	"errors"
	"time"

	"wildfire/internal/models"
)

var (
	// ErrNotFound is returned when a document with the requested id does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique user field is already taken
	ErrDuplicate = errors.New("already exists")
)

// DuplicateError names the unique user field that is already taken
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return e.Field + " " + ErrDuplicate.Error()
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// AlertStore persists fire alerts
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *models.Alert) (string, error)
	InsertAlerts(ctx context.Context, alerts []*models.Alert) ([]string, error)
	GetAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	GetActiveAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	GetAlertByID(ctx context.Context, id string) (*models.Alert, error)
	UpdateAlert(ctx context.Context, id string, patch models.AlertPatch) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id string) (bool, error)
	ExpireOverdueAlerts(ctx context.Context, now time.Time) (int64, error)
}

type ReportStore interface {
	InsertReport(ctx context.Context, report *models.FireReport) (string, error)
	GetReports(ctx context.Context, limit int) ([]models.FireReport, error)
	GetReportByID(ctx context.Context, id string) (*models.FireReport, error)
	SetReportResolved(ctx context.Context, id string, resolved bool) (*models.FireReport, error)
	DeleteReport(ctx context.Context, id string) (bool, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.ContactMessage) (string, error)
	GetMessages(ctx context.Context, limit int) ([]models.ContactMessage, error)
	DeleteMessage(ctx context.Context, id string) (bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByLogin matches either the email or the username
	GetUserByLogin(ctx context.Context, identifier string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the service
type Store interface {
	AlertStore
	ReportStore
	MessageStore
	UserStore
	Close() error
}
