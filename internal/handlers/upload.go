package handlers

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/krishimithra/apiserver/internal/services"
	"github.com/krishimithra/apiserver/internal/storage"
)

const (
	maxUploadBytes   = 16 << 20
	uploadFormMemory = 32 << 20
)

// UploadHandler provides the standalone image helper routes and static
// serving of stored blobs.
type UploadHandler struct {
	store *storage.Storage
}

// NewUploadHandler constructs an UploadHandler with the provided storage.
func NewUploadHandler(store *storage.Storage) *UploadHandler {
	return &UploadHandler{store: store}
}

// UploadRouter registers the image helper routes on the given router.
func UploadRouter(r chi.Router, store *storage.Storage) {
	handler := NewUploadHandler(store)

	r.Post("/upload", handler.Upload)
	r.Get("/images", handler.ListImages)
	r.Delete("/image/{filename}", handler.DeleteImage)
}

// Upload stores a single image and returns its generated filename.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldToolImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := services.NewBlobName(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.store.Put(r.Context(), filename, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{Message: "Image uploaded", Filename: filename})
}

// ListImages returns the filenames of all stored images.
func (h *UploadHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// DeleteImage removes a stored image by filename.
func (h *UploadHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	filename, err := services.SanitizeBlobName(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), filename); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}

	writeMessage(w, "Image deleted")
}

// Serve streams a stored blob verbatim. There is no access control here:
// anyone who knows a filename can fetch it.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename, err := services.SanitizeBlobName(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.store.Get(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer reader.Close()

	// Object-store reads are lazy; a missing key only surfaces on the
	// first read, so buffer before committing to a 200.
	data, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UploadResponse is the upload confirmation payload.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}
