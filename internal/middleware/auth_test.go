package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pitchside/pitchside/internal/utils"
)

const testSecret = "unit-test-secret"

func runJWT(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestJWTAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		if rec := runJWT(t, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		if rec := runJWT(t, "Token abc"); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if rec := runJWT(t, "Bearer not.a.jwt"); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", 1, "PLAYER", 5)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		if rec := runJWT(t, "Bearer "+at.Token); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token passes and sets claims", func(t *testing.T) {
		at, err := utils.NewAccessToken(testSecret, 7, "ADMIN", 5)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var gotRole interface{}
		h := JWTAuth(testSecret)(func(c echo.Context) error {
			gotRole = c.Get("role")
			return c.String(http.StatusOK, "ok")
		})
		if err := h(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if gotRole != "ADMIN" {
			t.Errorf("role = %v, want ADMIN", gotRole)
		}
	})
}

func TestRequireRole(t *testing.T) {
	run := func(role interface{}, allowed ...string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		if err := h(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		return rec
	}

	t.Run("allowed role passes", func(t *testing.T) {
		if rec := run("PLAYER", "PLAYER", "ADMIN"); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
	t.Run("admin-only rejects players", func(t *testing.T) {
		if rec := run("PLAYER", "ADMIN"); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
	t.Run("missing role rejected", func(t *testing.T) {
		if rec := run(nil, "PLAYER", "ADMIN"); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
	t.Run("non-string role rejected", func(t *testing.T) {
		if rec := run(42, "PLAYER"); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}
