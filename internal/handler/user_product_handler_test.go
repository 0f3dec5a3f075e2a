package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/handler"
	infrarepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signSession(t *testing.T, email string, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "session-1",
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newUserEcho(t *testing.T) (*echo.Echo, model.User) {
	t.Helper()

	gdb := newTestDB(t)
	users := infrarepo.NewUserGormRepository(gdb)
	u := model.User{Email: "alice@example.com", Role: model.RoleUser}
	require.NoError(t, users.Create(context.Background(), &u))

	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	handler.NewUserHandler(usecase.NewUserUsecase(users)).RegisterRoutes(e.Group("/api"), testSecret)
	return e, u
}

func getWithToken(e *echo.Echo, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_FindByEmail(t *testing.T) {
	e, u := newUserEcho(t)

	rec := getWithToken(e, "/api/users/email/alice@example.com", signSession(t, "Alice@Example.com", testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, u.ID, body["id"])
	assert.Equal(t, "alice@example.com", body["email"])
}

func TestUserHandler_Auth(t *testing.T) {
	e, _ := newUserEcho(t)

	tests := []struct {
		name   string
		token  string
		path   string
		status int
		errMsg string
	}{
		{name: "no token", path: "/api/users/email/alice@example.com", status: http.StatusUnauthorized, errMsg: "unauthorized"},
		{name: "bad signature", token: signSession(t, "alice@example.com", "other"), path: "/api/users/email/alice@example.com", status: http.StatusUnauthorized, errMsg: "unauthorized"},
		{name: "no email claim", token: signSession(t, "", testSecret), path: "/api/users/email/alice@example.com", status: http.StatusUnauthorized, errMsg: "unauthorized"},
		{name: "other user", token: signSession(t, "bob@example.com", testSecret), path: "/api/users/email/alice@example.com", status: http.StatusForbidden, errMsg: "forbidden"},
		{name: "unknown user", token: signSession(t, "carol@example.com", testSecret), path: "/api/users/email/carol@example.com", status: http.StatusNotFound, errMsg: "user not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getWithToken(e, tt.path, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, decodeBody(t, rec)["error"])
		})
	}
}

func TestProductHandler_Detail(t *testing.T) {
	gdb := newTestDB(t)
	products := infrarepo.NewProductGormRepository(gdb)
	p, err := products.Create(context.Background(), model.Product{
		Title:     "Mug",
		Slug:      "mug",
		Price:     1200,
		MainImage: "https://img.example.com/mug.png",
		InStock:   3,
	})
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	handler.NewProductHandler(usecase.NewProductUsecase(products, nil)).RegisterRoutes(e.Group("/api"))

	rec := doRequest(e, http.MethodGet, "/api/products/"+p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, p.ID, body["id"])
	assert.Equal(t, "Mug", body["title"])
	assert.Equal(t, float64(1200), body["price"])
	assert.Equal(t, "https://img.example.com/mug.png", body["mainImage"])
	assert.Equal(t, float64(3), body["inStock"])

	rec = doRequest(e, http.MethodGet, "/api/products/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeBody(t, rec)["error"])
}
