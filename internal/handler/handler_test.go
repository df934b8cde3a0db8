package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"net/textproto"
	"testing"
	"time"

	"catalog-service/internal/middleware"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/internal/testutil"
	"catalog-service/pkg/session"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cookieName = "catalog_session"

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	db    *gorm.DB
	store *testutil.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	store := &testutil.MemoryStore{}

	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	products := repository.NewProductRepository(db)

	auth := service.NewAuthService(users, session.NewDBStore(db),
		session.NewTokenManager("test-key", "catalog-test"), time.Hour, nil)
	catalog := service.NewCatalogService(categories, products, nil)
	mediaSvc := service.NewMediaService(store, products, service.MediaConfig{
		MaxSize:      5 << 20,
		SignedURLTTL: time.Hour,
	}, nil, zap.NewNop())

	e := echo.New()
	e.Use(middleware.RequestIDMiddleware)
	RegisterRoutes(e, Dependencies{
		ServiceName:   "catalog-test",
		CookieName:    cookieName,
		MaxUploadSize: 5 << 20,
		DB:            db,
		Auth:          auth,
		Catalog:       catalog,
		Media:         mediaSvc,
		Sessions:      middleware.NewSessionAuth(auth, cookieName),
	})

	return &testServer{t: t, e: e, db: db, store: store}
}

func (s *testServer) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type upload struct {
	field, name, contentType string
	data                     []byte
}

func (s *testServer) upload(path string, files []upload, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(s.t, err)
		_, err = part.Write(f.data)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email, password string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", echo.Map{"email": email, "password": password}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", echo.Map{"email": email, "password": password}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	s.t.Fatal("login did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) count(m interface{}) int64 {
	var n int64
	require.NoError(s.t, s.db.Model(m).Count(&n).Error)
	return n
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCatalogScenario(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")
	assert.True(t, cookie.HttpOnly)

	rec := s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decode[model.Category](t, rec)
	assert.Equal(t, "Cement", category.Name)

	rec = s.do(http.MethodPost, "/api/products", echo.Map{
		"name": "Bag", "price": 10, "category_id": category.ID,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "10.00", created["price"])
	assert.Equal(t, "active", created["status"])
	assert.Nil(t, created["image_url"])

	rec = s.do(http.MethodGet, "/api/products?status=active", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]interface{}](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Bag", list[0]["name"])
	assert.Equal(t, "Cement", list[0]["category_name"])
	assert.Equal(t, "10.00", list[0]["price"])
}

func TestListProductsDefaultsToActive(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")
	category := decode[model.Category](t, s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie))

	for _, p := range []echo.Map{
		{"name": "Shown", "price": "1.5", "category_id": fmt.Sprint(category.ID)},
		{"name": "Hidden", "price": "2", "category_id": category.ID, "status": "inactive"},
	} {
		rec := s.do(http.MethodPost, "/api/products", p, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	list := decode[[]map[string]interface{}](t, s.do(http.MethodGet, "/api/products", nil, nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Shown", list[0]["name"])
	assert.Equal(t, "1.50", list[0]["price"])

	list = decode[[]map[string]interface{}](t, s.do(http.MethodGet,
		fmt.Sprintf("/api/products?status=inactive&categoryId=%d", category.ID), nil, nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Hidden", list[0]["name"])
}

func TestMutationsRequireSession(t *testing.T) {
	s := newTestServer(t)
	forged := &http.Cookie{Name: cookieName, Value: "1"}

	requests := []struct{ method, path string }{
		{http.MethodPost, "/api/categories"},
		{http.MethodPut, "/api/categories"},
		{http.MethodDelete, "/api/categories?id=1"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products"},
		{http.MethodDelete, "/api/products?id=1"},
		{http.MethodPost, "/api/products/1/images"},
		{http.MethodDelete, "/api/products/1/images?url=x"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/me"},
	}
	body := echo.Map{"id": 1, "name": "Cement", "price": 1, "category_id": 1}

	for _, cookie := range []*http.Cookie{nil, forged} {
		for _, r := range requests {
			rec := s.do(r.method, r.path, body, cookie)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
		}
		rec := s.upload("/api/upload", []upload{{"file", "a.png", "image/png", pngBytes}}, cookie)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	assert.Zero(t, s.count(&model.Category{}))
	assert.Zero(t, s.count(&model.Product{}))
	assert.Empty(t, s.store.Objects())
}

func TestCategoryErrors(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")

	rec := s.do(http.MethodPost, "/api/categories", echo.Map{"name": "  "}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/categories", echo.Map{"name": "X"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/categories", echo.Map{"id": 999, "name": "X"}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/categories", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	category := decode[model.Category](t, s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie))
	rec = s.do(http.MethodPut, "/api/categories", echo.Map{"id": fmt.Sprint(category.ID), "name": "Sand"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sand", decode[model.Category](t, rec).Name)

	rec = s.do(http.MethodPost, "/api/products", echo.Map{"name": "Bag", "price": 1, "category_id": category.ID}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/categories?id=%d", category.ID), nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int64(1), s.count(&model.Category{}))
}

func TestProductErrors(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")
	category := decode[model.Category](t, s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie))

	for _, body := range []echo.Map{
		{"price": 1, "category_id": category.ID},
		{"name": "x", "category_id": category.ID},
		{"name": "x", "price": "abc", "category_id": category.ID},
		{"name": "x", "price": 1},
	} {
		rec := s.do(http.MethodPost, "/api/products", body, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := s.do(http.MethodPut, "/api/products", echo.Map{"id": 999, "name": "x", "price": 1, "category_id": category.ID}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/products", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/products?id=999", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateProduct(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")
	category := decode[model.Category](t, s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie))
	created := decode[map[string]interface{}](t, s.do(http.MethodPost, "/api/products", echo.Map{
		"name": "Bag", "price": "12.5", "category_id": category.ID, "image_url": "a,b",
	}, cookie))
	assert.Equal(t, "a,b", created["image_url"])

	rec := s.do(http.MethodPut, "/api/products", echo.Map{
		"id": created["id"], "name": "Bag 50kg", "price": 13, "category_id": category.ID,
		"image_url": "a,b,c", "status": "inactive",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "13.00", updated["price"])
	assert.Equal(t, "a,b,c", updated["image_url"])
	assert.Equal(t, []interface{}{"a", "b", "c"}, updated["images"])
	assert.Equal(t, "inactive", updated["status"])

	path := fmt.Sprintf("/api/products/%v", created["id"])
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, nil, cookie).Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")

	rec := s.upload("/api/upload", []upload{{"file", "tile.png", "image/png", pngBytes}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["url"], "products/")
	require.Len(t, s.store.Objects(), 1)

	rec = s.upload("/api/upload", []upload{{"file", "a.bmp", "image/bmp", []byte("BM")}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, rec)["success"])

	big := bytes.Repeat([]byte{0}, 5<<20+10)
	rec = s.upload("/api/upload", []upload{{"file", "big.png", "image/png", big}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload("/api/upload", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/upload", echo.Map{"file": "x"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, s.store.Objects(), 1)

	rec = s.upload("/api/upload", []upload{
		{"files", "a.png", "image/png", pngBytes},
		{"files", "b.gif", "image/gif", []byte("GIF89a")},
		{"files", "c.bmp", "image/bmp", []byte("BM")},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode[map[string]interface{}](t, rec)
	assert.Len(t, body["urls"], 2)
	assert.Contains(t, body["message"], "Invalid file type.")
	assert.NotContains(t, body["message"], "c.bmp")
}

func TestProductImages(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")
	category := decode[model.Category](t, s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Tiles"}, cookie))
	created := decode[map[string]interface{}](t, s.do(http.MethodPost, "/api/products", echo.Map{
		"name": "Tile", "price": 5, "category_id": category.ID, "image_url": "https://old/1.png",
	}, cookie))
	path := fmt.Sprintf("/api/products/%v/images", created["id"])

	rec := s.upload(path, []upload{{"file", "new.png", "image/png", pngBytes}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]interface{}](t, rec)
	urls := body["urls"].([]interface{})
	require.Len(t, urls, 1)
	product := body["product"].(map[string]interface{})
	assert.Equal(t, "https://old/1.png,"+urls[0].(string), product["image_url"])

	rec = s.do(http.MethodDelete, path, echo.Map{"url": "https://old/1.png"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, urls[0], decode[map[string]interface{}](t, rec)["image_url"])

	rec = s.do(http.MethodDelete, path+"?url="+url.QueryEscape(urls[0].(string)), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[map[string]interface{}](t, rec)["image_url"])

	rec = s.upload("/api/products/999/images", []upload{{"file", "new.png", "image/png", pngBytes}}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("a@b.com", "secret123")

	rec := s.do(http.MethodPost, "/api/auth/register", echo.Map{"email": "a@b.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", echo.Map{"email": "c@d.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", echo.Map{"email": "a@b.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", decode[map[string]interface{}](t, rec)["email"])

	rec = s.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, "", cleared[0].Value)

	rec = s.do(http.MethodPost, "/api/categories", echo.Map{"name": "Cement"}, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "not_configured", decode[map[string]interface{}](t, rec)["storage"])
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheckStorage(t *testing.T) {
	db := testutil.NewDB(t)

	cases := []struct {
		name    string
		ping    error
		status  string
		storage string
	}{
		{"reachable", nil, "healthy", "ok"},
		{"unreachable", errors.New("bucket gone"), "degraded", "unreachable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(db, pingFunc(func(context.Context) error { return tc.ping }), "catalog-test")
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			require.NoError(t, h.HealthCheck(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			body := decode[map[string]interface{}](t, rec)
			assert.Equal(t, tc.status, body["status"])
			assert.Equal(t, "ok", body["database"])
			assert.Equal(t, tc.storage, body["storage"])
		})
	}
}
