package server

import (
	"errors"
	"net/http"

	"wildfire/internal/auth"
)

var authErrors = []struct {
	err    error
	status int
	detail string
}{
	{auth.ErrEmailTaken, http.StatusBadRequest, "An account with this email address already exists. Please use a different email or try logging in."},
	{auth.ErrUsernameTaken, http.StatusBadRequest, "Username already taken. Please choose a different username."},
	{auth.ErrNIDTaken, http.StatusBadRequest, "An account with this NID already exists."},
	{auth.ErrUserNotFound, http.StatusBadRequest, "User not found."},
	{auth.ErrAlreadyVerified, http.StatusBadRequest, "Email is already verified."},
	{auth.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP. Please check your email and try again."},
	{auth.ErrOTPExpired, http.StatusBadRequest, "OTP has expired. Please register again to get a new OTP."},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{auth.ErrNotVerified, http.StatusForbidden, "Please verify your email. Check your email for the verification link."},
}

// writeAuthError maps account workflow errors to their HTTP form. overrides
// replace the detail for specific errors on one endpoint.
func (s *Server) writeAuthError(w http.ResponseWriter, err error, overrides map[error]string) {
	for _, e := range authErrors {
		if !errors.Is(err, e.err) {
			continue
		}
		detail := e.detail
		if o, ok := overrides[e.err]; ok {
			detail = o
		}
		writeError(w, e.status, detail)
		return
	}
	if errors.Is(err, auth.ErrDelivery) {
		detail := "Failed to send email. Please try again."
		if o, ok := overrides[auth.ErrDelivery]; ok {
			detail = o
		}
		writeError(w, http.StatusInternalServerError, detail)
		return
	}
	s.logger.Error("auth request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email, username and password are required")
		return
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.writeAuthError(w, err, map[error]string{
			auth.ErrDelivery: "Failed to send verification email. Please try again.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Registration successful. Please check your email for the OTP to verify your account.",
		"email":   user.Email,
	})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.auth.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		s.writeAuthError(w, err, nil)
		return
	}
	writeMessage(w, "Email verified successfully! You can now log in.")
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.auth.ResendOTP(r.Context(), req.Email); err != nil {
		s.writeAuthError(w, err, map[error]string{
			auth.ErrDelivery: "Failed to send OTP. Please try again.",
		})
		return
	}
	writeMessage(w, "New OTP sent to your email.")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Username   string `json:"username"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		identifier = req.Username
	}

	session, err := s.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		s.writeAuthError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleAdminLogin takes an OAuth2 password form where username is the email
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	session, err := s.auth.AdminLogin(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		s.writeAuthError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeAuthError(w, err, map[error]string{
			auth.ErrDelivery: "Failed to send password reset OTP. Please try again.",
		})
		return
	}
	writeMessage(w, "If your email is registered, a password reset OTP will be sent.")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		s.writeAuthError(w, err, map[error]string{
			auth.ErrOTPExpired: "OTP has expired. Please request a new password reset.",
		})
		return
	}
	writeMessage(w, "Password reset successful! You can now log in with your new password.")
}
