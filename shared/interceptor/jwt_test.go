package interceptor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/shared/auth"
)

func newTestMiddleware() (auth.JWTAuthenticator, func(http.Handler) http.Handler) {
	jwtAuth := auth.NewJWTAuthenticator("provisioning-api", "skillpassport")
	logger := zerolog.Nop()
	mw := NewJWTMiddleware(jwtAuth, "secret", &logger, func(w http.ResponseWriter, message string) {
		http.Error(w, message, http.StatusUnauthorized)
	})
	return jwtAuth, mw
}

func TestJWTMiddlewarePassesClaims(t *testing.T) {
	jwtAuth, mw := newTestMiddleware()
	token, err := jwtAuth.IssueCallerToken("admin-1", "college_admin", "org-9", "secret", time.Minute)
	if err != nil {
		t.Fatalf("IssueCallerToken: %v", err)
	}

	var got *auth.CallerClaims
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/create-member", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.Subject != "admin-1" || got.OrganizationID != "org-9" {
		t.Fatalf("claims not propagated: %+v", got)
	}
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	_, mw := newTestMiddleware()

	called := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	for _, header := range []string{"", "Basic abc", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodPost, "/admin/create-member", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d", header, rec.Code)
		}
	}
	if called {
		t.Fatal("next handler must not run")
	}
}
