package auth

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testCfg = JWTConfig{
	Issuer:     "trackboard-test",
	Audience:   "trackboard",
	SigningKey: []byte("test-secret-key-for-unit-tests-only"),
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := JWTMiddleware(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	return rec, c, err
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != want {
		t.Errorf("code = %d, want %d", httpErr.Code, want)
	}
}

func TestJWTMiddleware_RejectsMalformedHeaders(t *testing.T) {
	for _, header := range []string{"", "Token abc", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz"} {
		t.Run(header, func(t *testing.T) {
			_, _, err := runJWT(t, testCfg, header)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := IssueToken(testCfg, "dr-lee", []string{RolePhysician}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rec, c, err := runJWT(t, testCfg, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "dr-lee" {
		t.Errorf("user = %q", UserIDFromContext(ctx))
	}
	if !slices.Equal(RolesFromContext(ctx), []string{RolePhysician}) {
		t.Errorf("roles = %v", RolesFromContext(ctx))
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token, err := IssueToken(testCfg, "dr-lee", nil, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = runJWT(t, testCfg, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	other := testCfg
	other.SigningKey = []byte("a-different-key")
	token, _ := IssueToken(other, "mallory", []string{RoleAdmin}, time.Hour)

	_, _, err := runJWT(t, testCfg, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongIssuerOrAudience(t *testing.T) {
	badIssuer := testCfg
	badIssuer.Issuer = "someone-else"
	badAudience := testCfg
	badAudience.Audience = "billing"

	for name, cfg := range map[string]JWTConfig{"issuer": badIssuer, "audience": badAudience} {
		t.Run(name, func(t *testing.T) {
			token, _ := IssueToken(cfg, "dr-lee", nil, time.Hour)
			_, _, err := runJWT(t, testCfg, "Bearer "+token)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: testCfg.Issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = runJWT(t, testCfg, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestIssueToken_RequiresKey(t *testing.T) {
	if _, err := IssueToken(JWTConfig{}, "x", nil, time.Hour); err == nil {
		t.Fatal("expected error without signing key")
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var roles []string
	var user string
	err := DevAuthMiddleware()(func(c echo.Context) error {
		user = UserIDFromContext(c.Request().Context())
		roles = RolesFromContext(c.Request().Context())
		return nil
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	if user != "dev-user" || !slices.Contains(roles, RoleAdmin) {
		t.Errorf("user=%q roles=%v", user, roles)
	}
}

func TestBearerToken_WebSocketQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?access_token=abc", nil)
	if _, ok := bearerToken(req); ok {
		t.Error("query token must be ignored on plain requests")
	}

	req.Header.Set("Upgrade", "websocket")
	token, ok := bearerToken(req)
	if !ok || token != "abc" {
		t.Errorf("got %q, %v", token, ok)
	}

	req.Header.Set("Authorization", "Bearer xyz")
	if token, _ := bearerToken(req); token != "xyz" {
		t.Errorf("header should win, got %q", token)
	}
}
