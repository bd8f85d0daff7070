// Package auth holds registration, login and the email-verification and
// password-reset flows. Accounts start unverified and cannot log in until the
// emailed verification link is followed within its TTL.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/memoriesapp/memories-service/internal/mail"
	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/token"
	"github.com/memoriesapp/memories-service/internal/types/users"
	"github.com/memoriesapp/memories-service/internal/utils/jwt"
	"github.com/memoriesapp/memories-service/internal/utils/password"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

// LoginResponse carries the session token together with the account so
// clients can render the profile without a second round trip.
type LoginResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an unverified account and email a verification link
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.RegisterRequest true "User registration details"
// @Success 201 {object} response.Response "Verification email sent"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Email already registered"
// @Router /register [post]
func Register(st storage.Storage, issuer *token.Issuer, mailer mail.Mailer, appURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RegisterRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		hashed, err := password.Hash(req.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		userID, err := st.CreateUser(r.Context(), &users.User{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Password:  hashed,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}
		slog.Info("User registered", slog.String("user_id", userID))

		raw, err := issuer.IssueVerification(r.Context(), userID, req.Email)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		link := fmt.Sprintf("%s/users/verify/%s/%s", appURL, userID, raw)
		if err := mailer.SendVerification(req.Email, req.LastName, link); err != nil {
			slog.Error("Failed to send verification email", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to send verification email")))
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.Pending("Verification email sent. Check your inbox."))
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a verified user and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.LoginRequest true "User login details"
// @Success 200 {object} LoginResponse "User authenticated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Invalid credentials or unverified email"
// @Router /login [post]
func Login(st storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := st.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteError(w, storage.ErrInvalidCredentials)
				return
			}
			response.WriteError(w, err)
			return
		}

		if !password.Verify(req.Password, user.Password) {
			response.WriteError(w, storage.ErrInvalidCredentials)
			return
		}

		if !user.Verified {
			response.WriteError(w, storage.ErrNotVerified)
			return
		}

		sessionToken, err := jwt.CreateToken(user.ID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Login successful", LoginResponse{
			User:  user,
			Token: sessionToken,
		}))
	}
}

// VerifyEmail consumes an emailed verification link
// @Summary Verify an email address
// @Description Consume the emailed verification token; expired tokens delete the unverified account
// @Tags auth
// @Produce json
// @Param userId path string true "User ID"
// @Param token path string true "Raw verification token"
// @Success 200 {object} response.Response "Email verified successfully"
// @Failure 400 {object} response.Response "Invalid or expired token"
// @Router /users/verify/{userId}/{token} [get]
func VerifyEmail(issuer *token.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("userId")
		raw := r.PathValue("token")
		if userID == "" || raw == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user id and token are required")))
			return
		}

		if err := issuer.VerifyEmail(r.Context(), userID, raw); err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("Email verified", slog.String("user_id", userID))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Email verified successfully", nil))
	}
}

// RequestPasswordReset starts the password-reset flow
// @Summary Request a password reset
// @Description Email a time-limited reset link to a verified account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body users.RequestResetRequest true "Account email"
// @Success 201 {object} response.Response "Reset link sent or already pending"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Unknown email"
// @Router /users/request-passwordreset [post]
func RequestPasswordReset(st storage.Storage, issuer *token.Issuer, mailer mail.Mailer, appURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RequestResetRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := st.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		raw, err := issuer.IssueReset(r.Context(), user.ID, user.Email)
		if err != nil {
			// an unexpired pending reset reports 201 with a pending status
			response.WriteError(w, err)
			return
		}

		link := fmt.Sprintf("%s/users/reset-password/%s/%s", appURL, user.ID, raw)
		if err := mailer.SendPasswordReset(user.Email, user.LastName, link); err != nil {
			slog.Error("Failed to send reset email", slog.String("error", err.Error()), slog.String("user_id", user.ID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to send reset email")))
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.Pending("Password reset link sent to your email."))
	}
}

// CheckResetLink validates an emailed reset link without consuming it
// @Summary Validate a password reset link
// @Tags auth
// @Produce json
// @Param userId path string true "User ID"
// @Param token path string true "Raw reset token"
// @Success 200 {object} response.Response "Reset link is valid"
// @Failure 400 {object} response.Response "Invalid or expired link"
// @Router /users/reset-password/{userId}/{token} [get]
func CheckResetLink(issuer *token.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("userId")
		raw := r.PathValue("token")
		if userID == "" || raw == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user id and token are required")))
			return
		}

		if err := issuer.CheckReset(r.Context(), userID, raw); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Reset link is valid", nil))
	}
}

// ChangePassword completes the password-reset flow
// @Summary Change a password after a reset link was validated
// @Tags auth
// @Accept json
// @Produce json
// @Param request body users.ChangePasswordRequest true "New password"
// @Success 200 {object} response.Response "Password changed successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Unknown user"
// @Router /users/reset-password [post]
func ChangePassword(st storage.Storage, issuer *token.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.ChangePasswordRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		hashed, err := password.Hash(req.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		if err := st.UpdateUserPassword(r.Context(), req.UserID, hashed); err != nil {
			response.WriteError(w, err)
			return
		}

		if err := issuer.CompleteReset(r.Context(), req.UserID); err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("Password changed", slog.String("user_id", req.UserID))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Password changed successfully", nil))
	}
}
