// Package users exposes profile management and the friend-request protocol.
package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/memoriesapp/memories-service/internal/cache"
	"github.com/memoriesapp/memories-service/internal/events"
	"github.com/memoriesapp/memories-service/internal/http/middleware"
	"github.com/memoriesapp/memories-service/internal/social"
	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
	"github.com/memoriesapp/memories-service/internal/utils/jwt"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

const (
	pendingRequestLimit = 10
	suggestedLimit      = 15
)

// UpdateResponse returns the updated profile with a fresh session token, since
// clients cache profile fields inside their session state.
type UpdateResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

// loadProfile renders a user together with its friends as public profiles.
func loadProfile(r *http.Request, st storage.Storage, userID string) (*users.Profile, error) {
	user, err := st.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	friends, err := st.GetUserProfiles(r.Context(), user.Friends)
	if err != nil {
		return nil, err
	}

	return &users.Profile{User: user, Friends: friends}, nil
}

// GetUser returns a user profile with its friend list
// @Summary Get a user profile
// @Description Get a profile by id, or the authenticated user's own when no id is given
// @Tags users
// @Produce json
// @Param id path string false "User ID"
// @Success 200 {object} users.Profile "User profile"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /users/{id} [get]
func GetUser(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			targetID = userID
		}

		profile, err := loadProfile(r, st, targetID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("User fetched successfully", profile))
	}
}

// UpdateUser updates the authenticated user's profile
// @Summary Update the authenticated user's profile
// @Description Update profile fields and return the profile with a reissued session token
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UpdateResponse "Profile updated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /users [put]
func UpdateUser(st storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req users.UpdateProfileRequest
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

		user, err := st.UpdateUser(r.Context(), userID, req)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		sessionToken, err := jwt.CreateToken(userID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Profile updated successfully", UpdateResponse{
			User:  user,
			Token: sessionToken,
		}))
	}
}

// FriendRequest sends a friend request to another user
// @Summary Send a friend request
// @Description Create a pending request; at most one live request per user pair
// @Tags users
// @Accept json
// @Produce json
// @Param request body types.FriendRequestRequest true "Recipient user id"
// @Success 201 {object} map[string]string "Friend request sent"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 409 {object} response.Response "Request already exists"
// @Security BearerAuth
// @Router /users/friend-request [post]
func FriendRequest(graph *social.Graph, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req types.FriendRequestRequest
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

		if req.RequestTo == userID {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("cannot send a friend request to yourself")))
			return
		}

		requestID, err := graph.Request(r.Context(), userID, req.RequestTo)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := publisher.PublishFriendRequested(requestID, userID, req.RequestTo); err != nil {
			slog.Error("Failed to publish friend request event", slog.String("error", err.Error()))
		}

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": requestID})
	}
}

// ListFriendRequests lists pending requests addressed to the user
// @Summary List pending friend requests
// @Description List the newest pending requests addressed to the authenticated user
// @Tags users
// @Produce json
// @Success 200 {array} types.FriendRequest "Pending requests"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /users/friend-request [get]
func ListFriendRequests(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		requests, err := st.ListPendingRequests(r.Context(), userID, pendingRequestLimit)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Friend requests fetched successfully", requests))
	}
}

// RespondRequest accepts or denies a pending friend request
// @Summary Respond to a friend request
// @Description Accept or deny a pending request addressed to the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Param request body types.RespondRequestRequest true "Request id and decision"
// @Success 200 {object} response.Response "Request handled"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the recipient"
// @Failure 404 {object} response.Response "Request not found"
// @Failure 409 {object} response.Response "Already accepted"
// @Security BearerAuth
// @Router /users/accept-request [post]
func RespondRequest(st storage.Storage, graph *social.Graph, publisher events.Publisher, friendCache *cache.FriendCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req types.RespondRequestRequest
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

		pending, err := st.GetFriendRequestByID(r.Context(), req.RequestID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if pending.RequestTo != userID {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("request is not addressed to you")))
			return
		}

		handled, err := graph.Respond(r.Context(), req.RequestID, req.Status)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if handled.Status == types.RequestAccepted {
			friendCache.Invalidate(r.Context(), handled.RequestFrom, handled.RequestTo)
			if err := publisher.PublishFriendAccepted(handled.ID, userID, handled.RequestFrom); err != nil {
				slog.Error("Failed to publish friend accepted event", slog.String("error", err.Error()))
			}
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Friend request "+string(handled.Status), handled))
	}
}

// ProfileView records that the user viewed another profile
// @Summary Record a profile view
// @Tags users
// @Accept json
// @Produce json
// @Param request body users.ProfileViewRequest true "Viewed profile id"
// @Success 200 {object} response.Response "View recorded"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /users/profile-view [post]
func ProfileView(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req users.ProfileViewRequest
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

		if err := st.AddProfileView(r.Context(), req.ID, userID); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Profile view recorded", nil))
	}
}

// SuggestedFriends lists users the viewer is not yet friends with
// @Summary Suggest new friends
// @Description List profiles outside the authenticated user's friend circle
// @Tags users
// @Produce json
// @Success 200 {array} users.PublicUser "Suggested profiles"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /users/suggested-friends [get]
func SuggestedFriends(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		suggested, err := st.SuggestFriends(r.Context(), userID, suggestedLimit)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Suggested friends fetched successfully", suggested))
	}
}
