package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"wildfire/internal/database"
	"wildfire/internal/models"
	"wildfire/internal/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNIDTaken           = errors.New("nid already registered")
	// ErrDelivery means the OTP email could not be sent
	ErrDelivery = errors.New("failed to send email")
)

type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	NID      string `json:"nid"`
	Password string `json:"password"`
}

// Session is returned by a successful login
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

type Service struct {
	users  database.UserStore
	tokens *JWTService
	mail   notify.Sender
	clock  clockwork.Clock
	otpTTL time.Duration
	logger *slog.Logger
}

func NewService(users database.UserStore, tokens *JWTService, mail notify.Sender, clock clockwork.Clock, otpTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, mail: mail, clock: clock, otpTTL: otpTTL, logger: logger}
}

func (s *Service) Tokens() *JWTService { return s.tokens }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// Register creates an unverified user and emails the verification code. The
// account is removed again if the email cannot be sent.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, err
	}
	code, err := GenerateOTP()
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(r.Email)),
		Username:     strings.TrimSpace(r.Username),
		NID:          strings.TrimSpace(r.NID),
		PasswordHash: hash,
		Role:         models.RoleUser,
		OTP:          code,
		OTPCreatedAt: &now,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, duplicateErr(err)
	}

	msg, err := notify.VerificationOTP(user.Email, code, s.otpTTL)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("failed to send verification email", "email", user.Email, "error", err)
		if derr := s.users.DeleteUser(ctx, user.ID); derr != nil {
			s.logger.Error("failed to remove unverified user", "email", user.Email, "error", derr)
		}
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.logger.Info("✓ User registered", "email", user.Email, "username", user.Username)
	return user, nil
}

func duplicateErr(err error) error {
	var dup *database.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	switch dup.Field {
	case "username":
		return ErrUsernameTaken
	case "nid":
		return ErrNIDTaken
	default:
		return ErrEmailTaken
	}
}

func (s *Service) pendingUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	return user, nil
}

// VerifyOTP marks the account verified when the code matches and is fresh
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.pendingUser(ctx, email)
	if err != nil {
		return err
	}
	if !otpMatches(user.OTP, code) {
		return ErrInvalidOTP
	}
	if otpExpired(user.OTPCreatedAt, s.now(), s.otpTTL) {
		return ErrOTPExpired
	}

	user.IsVerified = true
	user.OTP = ""
	user.OTPCreatedAt = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("✓ Email verified", "email", user.Email)
	return nil
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.pendingUser(ctx, email)
	if err != nil {
		return err
	}
	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	now := s.now()
	user.OTP = code
	user.OTPCreatedAt = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	msg, err := notify.ResentOTP(user.Email, code, s.otpTTL)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("failed to resend verification email", "email", user.Email, "error", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Login accepts an email or a username. Unverified public users are refused;
// admins may log in without verification.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(identifier))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified && user.Role == models.RoleUser {
		return nil, ErrNotVerified
	}
	return s.session(user)
}

// AdminLogin only succeeds for admin accounts, looked up by email
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) || user.Role != models.RoleAdmin {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("✓ Login", "email", user.Email, "role", user.Role)
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        user.Role,
		Username:    user.Username,
		Email:       user.Email,
	}, nil
}

// ForgotPassword emails a reset code. Unknown addresses are not an error so
// callers cannot tell which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	now := s.now()
	user.ResetOTP = code
	user.ResetOTPCreatedAt = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	msg, err := notify.PasswordResetOTP(user.Email, code, s.otpTTL)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("failed to send password reset email", "email", user.Email, "error", err)
		user.ResetOTP = ""
		user.ResetOTPCreatedAt = nil
		if uerr := s.users.UpdateUser(ctx, user); uerr != nil {
			s.logger.Error("failed to clear reset code", "email", user.Email, "error", uerr)
		}
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if !otpMatches(user.ResetOTP, code) {
		return ErrInvalidOTP
	}
	if otpExpired(user.ResetOTPCreatedAt, s.now(), s.otpTTL) {
		return ErrOTPExpired
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetOTP = ""
	user.ResetOTPCreatedAt = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("✓ Password reset", "email", user.Email)
	return nil
}

// EnsureAdmin creates the bootstrap admin account if no user has its email
func (s *Service) EnsureAdmin(ctx context.Context, email, username, password string) (bool, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsApproved:   true,
		IsVerified:   true,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("✓ Admin account created", "email", admin.Email)
	return true, nil
}
