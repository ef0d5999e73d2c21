package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wildfire/internal/models"
)

const userColumns = `id, email, username, nid, password_hash, role, is_approved, is_verified, otp, otp_created_at, reset_otp, reset_otp_created_at, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u              models.User
		nid            sql.NullString
		otpAt, resetAt sql.NullInt64
		created        int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &nid, &u.PasswordHash, &u.Role, &u.IsApproved,
		&u.IsVerified, &u.OTP, &otpAt, &u.ResetOTP, &resetAt, &created); err != nil {
		return nil, err
	}
	u.NID = nid.String
	u.OTPCreatedAt = timeFromNull(otpAt)
	u.ResetOTPCreatedAt = timeFromNull(resetAt)
	u.CreatedAt = fromMicros(created)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// duplicateField reports which unique field of u is already taken, if any
func (s *SQLStore) duplicateField(ctx context.Context, u *models.User) (string, error) {
	rows, err := s.query(ctx, "users",
		`SELECT email, username, nid FROM users WHERE email = ? OR username = ? OR (nid IS NOT NULL AND nid = ?)`,
		u.Email, u.Username, u.NID)
	if err != nil {
		return "", fmt.Errorf("failed to check users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email, username string
		var nid sql.NullString
		if err := rows.Scan(&email, &username, &nid); err != nil {
			return "", err
		}
		switch {
		case email == u.Email:
			return "email", nil
		case username == u.Username:
			return "username", nil
		case u.NID != "" && nid.String == u.NID:
			return "nid", nil
		}
	}
	return "", rows.Err()
}

// CreateUser inserts a new account. Emails are stored lower-cased.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)

	field, err := s.duplicateField(ctx, u)
	if err != nil {
		return err
	}
	if field != "" {
		return &DuplicateError{Field: field}
	}

	_, err = s.exec(ctx, "INSERT", "users",
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, nullString(u.NID), u.PasswordHash, u.Role, u.IsApproved, u.IsVerified,
		u.OTP, nullMicros(u.OTPCreatedAt), u.ResetOTP, nullMicros(u.ResetOTPCreatedAt), toMicros(u.CreatedAt))
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) getUser(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	rows, err := s.query(ctx, "users", `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanUser(rows)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = ?`, strings.ToLower(email))
}

func (s *SQLStore) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return s.getUser(ctx, `email = ? OR username = ?`, strings.ToLower(identifier), identifier)
}

// UpdateUser overwrites every mutable column of an existing user
func (s *SQLStore) UpdateUser(ctx context.Context, u *models.User) error {
	_, err := s.exec(ctx, "UPDATE", "users",
		`UPDATE users SET password_hash = ?, role = ?, is_approved = ?, is_verified = ?, otp = ?, otp_created_at = ?, reset_otp = ?, reset_otp_created_at = ? WHERE id = ?`,
		u.PasswordHash, u.Role, u.IsApproved, u.IsVerified, u.OTP, nullMicros(u.OTPCreatedAt),
		u.ResetOTP, nullMicros(u.ResetOTPCreatedAt), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	deleted, err := s.deleteByID(ctx, "users", id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
