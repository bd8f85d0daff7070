package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/memoriesapp/memories-service/internal/http/middleware"
	mediaService "github.com/memoriesapp/memories-service/internal/services/media"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

type MediaHandlers struct {
	mediaService *mediaService.Service
}

type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type PhotoInfoResponse struct {
	ObjectKey   string    `json:"object_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	PhotoURL    string    `json:"photo_url"`
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(mediaService *mediaService.Service) *MediaHandlers {
	return &MediaHandlers{
		mediaService: mediaService,
	}
}

// GenerateUploadURL issues a presigned URL for a post photo upload
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL for uploading a post photo
// @Tags media
// @Accept json
// @Produce json
// @Param request body UploadURLRequest true "Upload URL request"
// @Success 200 {object} mediaService.UploadInfo "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /media/upload-url [post]
func (h *MediaHandlers) GenerateUploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req UploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		uploadInfo, err := h.mediaService.GeneratePresignedUploadURL(userID, req.ContentType)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", uploadInfo))
	}
}

// GetPhotoInfo retrieves information about an uploaded photo
// @Summary Get photo information
// @Description Get stored metadata for a specific photo
// @Tags media
// @Produce json
// @Param object_key path string true "Object key"
// @Success 200 {object} PhotoInfoResponse "Photo information retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Photo not found"
// @Security BearerAuth
// @Router /media/{object_key}/info [get]
func (h *MediaHandlers) GetPhotoInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		objectKey := r.PathValue("objectKey")
		if objectKey == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object key is required")))
			return
		}

		objInfo, err := h.mediaService.GetObjectInfo(objectKey)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("photo not found")))
			return
		}

		resp := PhotoInfoResponse{
			ObjectKey:   objectKey,
			Size:        objInfo.Size,
			ContentType: objInfo.ContentType,
			UploadedAt:  objInfo.LastModified,
			PhotoURL:    h.mediaService.PhotoURL(objectKey),
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photo information retrieved successfully", resp))
	}
}

// GenerateDownloadURL issues a presigned GET URL for a photo
// @Summary Generate presigned download URL
// @Description Generate a presigned URL for downloading a photo
// @Tags media
// @Produce json
// @Param object_key path string true "Object key"
// @Param expires query int false "Expiration time in seconds (default: 3600)"
// @Success 200 {object} map[string]interface{} "Download URL generated successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Photo not found"
// @Security BearerAuth
// @Router /media/{object_key}/download-url [get]
func (h *MediaHandlers) GenerateDownloadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		objectKey := r.PathValue("objectKey")
		if objectKey == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object key is required")))
			return
		}

		expires := 3600
		if expiresParam := r.URL.Query().Get("expires"); expiresParam != "" {
			if parsed, err := strconv.Atoi(expiresParam); err == nil && parsed > 0 {
				expires = parsed
			}
		}

		downloadURL, err := h.mediaService.GeneratePresignedDownloadURL(objectKey, time.Duration(expires)*time.Second)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("failed to generate download URL")))
			return
		}

		resp := map[string]interface{}{
			"object_key":   objectKey,
			"download_url": downloadURL.String(),
			"expires_at":   time.Now().Add(time.Duration(expires) * time.Second).Unix(),
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Download URL generated successfully", resp))
	}
}

// DeletePhoto deletes an uploaded photo
// @Summary Delete photo
// @Description Delete a photo owned by the authenticated user
// @Tags media
// @Param object_key path string true "Object key"
// @Success 200 {object} response.Response "Photo deleted successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Access denied"
// @Security BearerAuth
// @Router /media/{object_key} [delete]
func (h *MediaHandlers) DeletePhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		objectKey := r.PathValue("objectKey")
		if objectKey == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object key is required")))
			return
		}

		// Object keys are namespaced per user; only the owner may delete
		expectedPrefix := "users/" + userID + "/photos/"
		if len(objectKey) < len(expectedPrefix) || objectKey[:len(expectedPrefix)] != expectedPrefix {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("access denied")))
			return
		}

		if err := h.mediaService.DeleteObject(objectKey); err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to delete photo")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photo deleted successfully", nil))
	}
}
