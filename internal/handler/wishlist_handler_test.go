package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infrarepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func newWishlistEcho(t *testing.T) *echo.Echo {
	t.Helper()

	uc := usecase.NewWishlistUsecase(infrarepo.NewWishlistGormRepository(newTestDB(t)))

	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	handler.NewWishlistHandler(uc).RegisterRoutes(e.Group("/api"))
	return e
}

func doRequest(e *echo.Echo, method string, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestWishlistHandler_CreateThenAlreadyExists(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Added to wishlist", body["message"])
	item := body["item"].(map[string]any)
	assert.Equal(t, "u1", item["userId"])
	assert.Equal(t, "p1", item["productId"])
	firstID := item["id"]

	rec = doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Already in wishlist", body["message"])
	assert.Equal(t, firstID, body["item"].(map[string]any)["id"])
	// Createdは外に出さない
	_, hasCreated := body["created"]
	assert.False(t, hasCreated)

	rec = doRequest(e, http.MethodGet, "/api/wishlist/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestWishlistHandler_CreateValidation(t *testing.T) {
	e := newWishlistEcho(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest, message: "userId and productId are required"},
		{name: "missing product", body: `{"userId":"u1"}`, status: http.StatusBadRequest, message: "userId and productId are required"},
		{name: "blank user", body: `{"userId":"  ","productId":"p1"}`, status: http.StatusBadRequest, message: "userId and productId are required"},
		{name: "number id", body: `{"userId":"u1","productId":42}`, status: http.StatusBadRequest, message: "Invalid ids"},
		{name: "object id", body: `{"userId":{"a":1},"productId":"p1"}`, status: http.StatusBadRequest, message: "Invalid ids"},
		{name: "too long", body: `{"userId":"` + strings.Repeat("x", 65) + `","productId":"p1"}`, status: http.StatusBadRequest, message: "Invalid ids"},
		{name: "broken json", body: `{"userId":`, status: http.StatusBadRequest, message: "invalid body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/api/wishlist", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}

func TestWishlistHandler_GetOne(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodGet, "/api/wishlist/u1/p1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not in wishlist", decodeBody(t, rec)["message"])

	doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p1"}`)

	rec = doRequest(e, http.MethodGet, "/api/wishlist/u1/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "p1", body["productId"])
	assert.NotZero(t, body["id"])
}

func TestWishlistHandler_ListNewestFirst(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodGet, "/api/wishlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	// 空でもnullではなく[]
	assert.JSONEq(t, `[]`, rec.Body.String())

	doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p1"}`)
	doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p2"}`)
	doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u2","productId":"p1"}`)

	rec = doRequest(e, http.MethodGet, "/api/wishlist", "")
	var all []usecase.WishlistRowOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "u2", all[0].UserID)

	rec = doRequest(e, http.MethodGet, "/api/wishlist/u1", "")
	var mine []usecase.WishlistRowOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 2)
	assert.Equal(t, "p2", mine[0].ProductID)
	assert.Equal(t, "p1", mine[1].ProductID)
}

func TestWishlistHandler_Delete(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodDelete, "/api/wishlist/u1/p1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found in wishlist", decodeBody(t, rec)["error"])

	doRequest(e, http.MethodPost, "/api/wishlist", `{"userId":"u1","productId":"p1"}`)

	rec = doRequest(e, http.MethodDelete, "/api/wishlist/u1/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Removed from wishlist", decodeBody(t, rec)["message"])

	// 2回目は404
	rec = doRequest(e, http.MethodDelete, "/api/wishlist/u1/p1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWishlistHandler_DeleteTooLongIDs(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodDelete, "/api/wishlist/"+strings.Repeat("u", 65)+"/p1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid ids", decodeBody(t, rec)["error"])
}

func TestHTTPErrorHandler_UnknownRoute(t *testing.T) {
	e := newWishlistEcho(t)

	rec := doRequest(e, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeBody(t, rec)["error"])
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		ping   func(ctx context.Context) error
		status int
		want   string
	}{
		{name: "ok", ping: func(context.Context) error { return nil }, status: http.StatusOK, want: "ok"},
		{name: "down", ping: func(context.Context) error { return assert.AnError }, status: http.StatusServiceUnavailable, want: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler.NewHealthHandler(tt.ping).RegisterRoutes(e)

			rec := doRequest(e, http.MethodGet, "/healthz", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["status"])
		})
	}
}
