package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestAddListing_Anonymous(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/add", "",
		`{"name":"rotavator","contact":"123","tools":"rotavator","place":"village"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.doJSON(t, http.MethodGet, "/api/products", "", "")
	var listings []map[string]any
	decodeBody(t, rec, &listings)
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(listings))
	}
	if _, ok := listings[0]["owner_id"]; ok {
		t.Fatalf("anonymous listing has owner: %v", listings[0])
	}
}

func TestAddListing_AuthenticatedOwner(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "pw123")

	rec := env.doJSON(t, http.MethodPost, "/api/add", token,
		`{"name":"plough","contact":"123","tools":"plough","place":"village"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.doJSON(t, http.MethodGet, "/api/products", "", "")
	var listings []map[string]any
	decodeBody(t, rec, &listings)
	if owner, ok := listings[0]["owner_id"].(float64); !ok || owner != 1 {
		t.Fatalf("owner_id = %v, want 1", listings[0]["owner_id"])
	}
}

func TestAddListing_InvalidTokenRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/add", "bogus-token",
		`{"name":"x","contact":"c","tools":"t","place":"p"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("add with bad token status = %d, want 401", rec.Code)
	}
}

func TestAddListing_MultipartWithImageAndPrice(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body, contentType := buildMultipart(t, "toolImage", "tractor.jpg", []byte("jpg-bytes"), map[string]string{
		"name":      "tractor",
		"contact":   "123",
		"tools":     "tractor",
		"place":     "village",
		"price":     "2500.50",
		"condition": "used",
	})
	rec := env.do(t, http.MethodPost, "/api/add", "", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.doJSON(t, http.MethodGet, "/api/products", "", "")
	var listings []map[string]any
	decodeBody(t, rec, &listings)
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(listings))
	}
	listing := listings[0]
	if price, ok := listing["price"].(float64); !ok || price != 2500.50 {
		t.Fatalf("price = %v, want 2500.50", listing["price"])
	}
	if listing["condition"] != "used" {
		t.Fatalf("condition = %v, want used", listing["condition"])
	}
	image, _ := listing["image"].(string)
	if image == "" {
		t.Fatalf("image ref missing: %v", listing)
	}
	if strings.Contains(image, "tractor.jpg") {
		t.Fatalf("image filename %q derived from client input", image)
	}

	rec = env.do(t, http.MethodGet, "/uploads/"+image, "", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "jpg-bytes" {
		t.Fatalf("serve image status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestAddListing_InvalidPrice(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body, contentType := buildMultipart(t, "", "", nil, map[string]string{
		"name":  "tractor",
		"price": "cheap",
	})
	rec := env.do(t, http.MethodPost, "/api/add", "", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("add with bad price status = %d, want 400", rec.Code)
	}
}

func TestListProducts_NewestFirst(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, name := range []string{"first", "second"} {
		rec := env.doJSON(t, http.MethodPost, "/api/add", "",
			`{"name":"`+name+`","contact":"c","tools":"t","place":"p"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("add %s status = %d", name, rec.Code)
		}
	}

	rec := env.doJSON(t, http.MethodGet, "/api/products", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("products status = %d", rec.Code)
	}
	var listings []map[string]any
	decodeBody(t, rec, &listings)
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	if listings[0]["name"] != "second" || listings[1]["name"] != "first" {
		t.Fatalf("order = %v, %v; want newest first", listings[0]["name"], listings[1]["name"])
	}
}

func TestGetProduct(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/add", "",
		`{"name":"harrow","contact":"c","tools":"t","place":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}

	rec = env.doJSON(t, http.MethodGet, "/api/product/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get product status = %d", rec.Code)
	}
	var listing map[string]any
	decodeBody(t, rec, &listing)
	if listing["name"] != "harrow" {
		t.Fatalf("name = %v, want harrow", listing["name"])
	}

	rec = env.doJSON(t, http.MethodGet, "/api/product/99", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product status = %d, want 404", rec.Code)
	}

	rec = env.doJSON(t, http.MethodGet, "/api/product/abc", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/add", "",
		`{"name":"spade","contact":"c","tools":"t","place":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}

	rec = env.doJSON(t, http.MethodDelete, "/api/product/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.doJSON(t, http.MethodDelete, "/api/product/1", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}
