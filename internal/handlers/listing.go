package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krishimithra/apiserver/internal/services"
	"github.com/krishimithra/apiserver/internal/storage"
	"github.com/krishimithra/apiserver/internal/store"
	"github.com/krishimithra/apiserver/types"
)

const (
	maxListingImageBytes = 16 << 20
	listingFormMemory    = 32 << 20
	formFieldToolImage   = "toolImage"
	formFieldName        = "name"
	formFieldContact     = "contact"
	formFieldTools       = "tools"
	formFieldPlace       = "place"
	formFieldPrice       = "price"
	formFieldCondition   = "condition"
)

// ListingHandler provides HTTP handlers for marketplace listings.
type ListingHandler struct {
	listingService *services.ListingService
	store          *storage.Storage
}

// NewListingHandler constructs a handler with the provided dependencies.
func NewListingHandler(listingService *services.ListingService, store *storage.Storage) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		store:          store,
	}
}

// ListingRouter registers listing routes on the given router. Creation works
// with or without authentication; a valid token binds the caller as owner.
func ListingRouter(r chi.Router, listingService *services.ListingService, store *storage.Storage, optionalAuth func(http.Handler) http.Handler) {
	handler := NewListingHandler(listingService, store)

	if optionalAuth != nil {
		r.With(optionalAuth).Post("/add", handler.Add)
	} else {
		r.Post("/add", handler.Add)
	}
	r.Get("/products", handler.ListProducts)
	r.Route("/product/{listingID}", func(r chi.Router) {
		r.Get("/", handler.GetProduct)
		r.Delete("/", handler.DeleteProduct)
	})
}

// Add creates a listing from a multipart form or JSON body. The image file,
// price, condition and owner are all optional.
func (h *ListingHandler) Add(w http.ResponseWriter, r *http.Request) {
	listing, imageData, imageName, imageType, err := parseListingRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if userID, err := userIDFromContext(r.Context()); err == nil {
		listing.OwnerID = &userID
	}

	if imageData != nil {
		filename := services.NewBlobName(imageName)
		if err := h.store.Put(r.Context(), filename, bytes.NewReader(imageData), int64(len(imageData)), imageType); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		listing.Image = &filename
	}

	if _, err := h.listingService.Create(r.Context(), listing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add details")
		return
	}

	writeMessage(w, "Details added successfully!")
}

// ListProducts returns all listings, newest first.
func (h *ListingHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.List(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// GetProduct returns a single listing by id.
func (h *ListingHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.listingService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// DeleteProduct removes a listing by id.
func (h *ListingHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.listingService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	writeMessage(w, "Product deleted")
}

// AddListingRequest is the JSON form of the add-listing body.
type AddListingRequest struct {
	Name      string   `json:"name"`
	Contact   string   `json:"contact"`
	Tools     string   `json:"tools"`
	Place     string   `json:"place"`
	Price     *float64 `json:"price"`
	Condition *string  `json:"condition"`
}

func parseListingID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "listingID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func parseListingRequest(r *http.Request) (types.Listing, []byte, string, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return parseListingForm(r)
	}

	var req AddListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return types.Listing{}, nil, "", "", errors.New("invalid request")
	}
	listing := types.Listing{
		Name:      strings.TrimSpace(req.Name),
		Contact:   strings.TrimSpace(req.Contact),
		Tools:     strings.TrimSpace(req.Tools),
		Place:     strings.TrimSpace(req.Place),
		Price:     req.Price,
		Condition: req.Condition,
	}
	return listing, nil, "", "", nil
}

func parseListingForm(r *http.Request) (types.Listing, []byte, string, string, error) {
	if err := r.ParseMultipartForm(listingFormMemory); err != nil {
		return types.Listing{}, nil, "", "", errors.New("invalid multipart form")
	}

	listing := types.Listing{
		Name:    strings.TrimSpace(r.FormValue(formFieldName)),
		Contact: strings.TrimSpace(r.FormValue(formFieldContact)),
		Tools:   strings.TrimSpace(r.FormValue(formFieldTools)),
		Place:   strings.TrimSpace(r.FormValue(formFieldPlace)),
	}

	if raw := strings.TrimSpace(r.FormValue(formFieldPrice)); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Listing{}, nil, "", "", errors.New("invalid price")
		}
		listing.Price = &price
	}
	if raw := strings.TrimSpace(r.FormValue(formFieldCondition)); raw != "" {
		listing.Condition = &raw
	}

	file, header, err := r.FormFile(formFieldToolImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return listing, nil, "", "", nil
		}
		return types.Listing{}, nil, "", "", errors.New("invalid image upload")
	}
	data, err := readFileLimited(file, maxListingImageBytes)
	_ = file.Close()
	if err != nil {
		return types.Listing{}, nil, "", "", err
	}

	return listing, data, header.Filename, header.Header.Get("Content-Type"), nil
}
