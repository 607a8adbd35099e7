package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krishimithra/apiserver/internal/services"
	"github.com/krishimithra/apiserver/internal/storage"
	"github.com/krishimithra/apiserver/internal/store"
	"github.com/krishimithra/apiserver/types"
)

const (
	maxAvatarBytes   = 16 << 20
	formFieldAvatar  = "avatar"
	avatarFormMemory = 32 << 20
)

// ProfileHandler provides HTTP handlers for the authenticated user's profile.
type ProfileHandler struct {
	userService *services.UserService
	store       *storage.Storage
}

// NewProfileHandler constructs a ProfileHandler with the provided dependencies.
func NewProfileHandler(userService *services.UserService, store *storage.Storage) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		store:       store,
	}
}

// ProfileRouter registers profile routes on the given router. All routes
// require authentication.
func ProfileRouter(r chi.Router, userService *services.UserService, store *storage.Storage, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProfileHandler(userService, store)

	r.Route("/profile", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Post("/avatar", handler.UploadAvatar)
	})
}

// Get returns the caller's profile. The password hash is never serialized.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update applies a partial profile update. Only name, email, contact and
// place can be changed here; anything else in the body is ignored.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Contact != nil {
		user.Contact = *req.Contact
	}
	if req.Place != nil {
		user.Place = *req.Place
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete removes the caller's account. Listings that reference the account
// as owner are left in place.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}

	writeMessage(w, "Profile deleted")
}

// UploadAvatar stores a new avatar image and updates the profile reference.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(avatarFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	data, err := readFileLimited(file, maxAvatarBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := services.NewBlobName(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.store.Put(r.Context(), filename, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	user.Avatar = filename
	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ProfileUpdateRequest carries the whitelisted profile fields. Pointer
// fields distinguish "absent" from "set to empty".
type ProfileUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Contact *string `json:"contact"`
	Place   *string `json:"place"`
}

func (h *ProfileHandler) currentUser(w http.ResponseWriter, r *http.Request) (user types.User, ok bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, false
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	return u, true
}
