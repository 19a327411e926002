package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// Avatar upload limits.
const (
	maxAvatarBytes = 1 << 20 // 1 MiB
)

// userAllowedUpdates is the allow-list for PATCH /users/me. Any other key
// in the request body rejects the whole request.
var userAllowedUpdates = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// UserHandler handles the authenticated user's profile and avatar.
type UserHandler struct {
	userService service.UserService
	userStore   store.UserStore
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(userService service.UserService, userStore store.UserStore, log *slog.Logger) *UserHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UserHandler{
		userService: userService,
		userStore:   userStore,
		logger:      log.With(slog.String("component", "user_handler")),
	}
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateMe handles PATCH /users/me.
// The body is decoded as a raw key set first so unknown fields can be
// rejected outright, mirroring the task update allow-list behavior.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(body) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No updates provided")
		return
	}

	for key := range body {
		if !userAllowedUpdates[key] {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid update field: "+key)
			return
		}
	}

	var changes service.UserChanges
	if raw, ok := body["name"]; ok {
		changes.Name = new(string)
		if err := json.Unmarshal(raw, changes.Name); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for name")
			return
		}
	}
	if raw, ok := body["email"]; ok {
		changes.Email = new(string)
		if err := json.Unmarshal(raw, changes.Email); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for email")
			return
		}
	}
	if raw, ok := body["password"]; ok {
		changes.Password = new(string)
		if err := json.Unmarshal(raw, changes.Password); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for password")
			return
		}
	}
	if raw, ok := body["age"]; ok {
		changes.Age = new(int)
		if err := json.Unmarshal(raw, changes.Age); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for age")
			return
		}
	}

	updated, err := h.userService.UpdateUser(r.Context(), user.ID, changes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(updated))
}

// DeleteMe handles DELETE /users/me.
// The account, its tokens, and every owned task go together.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	deleted, err := h.userService.DeleteUser(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(deleted))
}

// UploadAvatar handles POST /users/me/avatar.
// Accepts a multipart form with an "avatar" file field, PNG or JPEG,
// up to 1 MiB.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+4096)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Avatar must be a multipart upload of at most 1MB")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, `Missing "avatar" file field`)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error("failed to close upload", slog.String("error", err.Error()))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read upload", err)
		return
	}
	if len(data) > maxAvatarBytes {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Avatar must be at most 1MB")
		return
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/png" && contentType != "image/jpeg" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Avatar must be a PNG or JPEG image")
		return
	}

	if err := h.userStore.UpdateAvatar(r.Context(), user.ID, data); err != nil {
		HandleAPIError(w, r, err, "Failed to store avatar")
		return
	}

	log.Debug("avatar uploaded",
		slog.String("user_id", user.ID.String()),
		slog.Int("size", len(data)))
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar handles DELETE /users/me/avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	if err := h.userStore.UpdateAvatar(r.Context(), user.ID, nil); err != nil {
		HandleAPIError(w, r, err, "Failed to delete avatar")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "avatar deleted"})
}

// GetAvatar handles GET /users/{id}/avatar.
// Avatars are public, like the original profile-image behavior; only the
// bytes are exposed, never the rest of the record.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	avatar, err := h.userStore.GetAvatar(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(avatar))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(avatar); err != nil {
		h.logger.Error("failed to write avatar response", slog.String("error", err.Error()))
	}
}
