package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krishimithra/apiserver/internal/services"
	"github.com/krishimithra/apiserver/internal/storage"
	"github.com/krishimithra/apiserver/internal/store"
	"github.com/krishimithra/apiserver/types"
)

const testSecret = "test-secret"

// --- fakes ---

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = f.nextID
	f.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeListingRepo struct {
	mu       sync.Mutex
	nextID   int
	listings []types.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{nextID: 1}
}

func (f *fakeListingRepo) GetByID(ctx context.Context, id int) (types.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, listing := range f.listings {
		if listing.ID == id {
			return listing, nil
		}
	}
	return types.Listing{}, store.ErrNotFound
}

func (f *fakeListingRepo) List(ctx context.Context, newestFirst bool) ([]types.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Listing, len(f.listings))
	copy(out, f.listings)
	if newestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out, nil
}

func (f *fakeListingRepo) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing.ID = f.nextID
	f.nextID++
	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	f.listings = append(f.listings, listing)
	return listing, nil
}

func (f *fakeListingRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, listing := range f.listings {
		if listing.ID == id {
			f.listings = append(f.listings[:i], f.listings[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeBlobBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBlobBackend() *fakeBlobBackend {
	return &fakeBlobBackend{objects: make(map[string][]byte)}
}

func (f *fakeBlobBackend) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeBlobBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeBlobBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return errors.New("object not found")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobBackend) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeBlobBackend) Bucket() string { return "test-bucket" }

// --- environment ---

type testEnv struct {
	router   *chi.Mux
	userRepo *fakeUserRepo
	listings *fakeListingRepo
	blobs    *fakeBlobBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	listingRepo := newFakeListingRepo()
	blobs := newFakeBlobBackend()
	blobStore := storage.NewStorage(blobs)

	userService := services.NewUserService(userRepo)
	listingService := services.NewListingService(listingRepo, nil)

	authMiddleware := RequireAuth(testSecret)
	optionalAuth := OptionalAuth(testSecret)
	uploadHandler := NewUploadHandler(blobStore)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		AuthRouter(r, userService, testSecret, DefaultTokenTTL)
		ProfileRouter(r, userService, blobStore, authMiddleware)
		ListingRouter(r, listingService, blobStore, optionalAuth)
		UploadRouter(r, blobStore)
	})
	router.Get("/uploads/{filename}", uploadHandler.Serve)

	return &testEnv{
		router:   router,
		userRepo: userRepo,
		listings: listingRepo,
		blobs:    blobs,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	return e.do(t, method, target, token, reader, "application/json")
}

func (e *testEnv) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/register", "", `{"username":"`+username+`","password":"`+password+`","name":"n","email":"e","contact":"c","place":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.doJSON(t, http.MethodPost, "/api/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("login returned empty token")
	}
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, value any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), value); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func buildMultipart(t *testing.T, fileField, filename string, fileData []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write file data: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}
