package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/uplift-stats/uplift/tests/testutil"
)

func tokenCookie(token string) *http.Cookie {
	return &http.Cookie{Name: "uplift_token", Value: token}
}

func extractTokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "uplift_token" {
			return c
		}
	}
	t.Fatal("no uplift_token cookie set on response")
	return nil
}

func TestDashboard_RequiresToken(t *testing.T) {
	srv, _ := setup(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401 without a token", rec.Code)
	}
}

func TestDashboard_RejectsWrongToken(t *testing.T) {
	srv, _ := setup(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?token=wrong", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401 for a wrong query token", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(tokenCookie("wrong"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401 for a wrong cookie", rec.Code)
	}
}

func TestDashboard_QueryTokenSetsCookieAndRedirects(t *testing.T) {
	srv, _ := setup(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?token="+srv.Token(), nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, want 302", rec.Code)
	}
	location := rec.Header().Get("Location")
	if strings.Contains(location, "token=") {
		t.Errorf("redirect %q still carries the token", location)
	}

	cookie := extractTokenCookie(t, rec)
	if cookie.Value != srv.Token() {
		t.Error("cookie does not carry the session token")
	}
	if !cookie.HttpOnly {
		t.Error("token cookie should be HttpOnly")
	}
}

func TestDashboard_CookieGrantsAccess(t *testing.T) {
	srv, s := setup(t)
	if _, err := s.CreateExperiment(context.Background(), "signup", []string{"control", "variant"}, "", ""); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(tokenCookie(srv.Token()))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "signup") {
		t.Error("dashboard page does not list the experiment")
	}
}

func TestDashboard_ExperimentDetailPage(t *testing.T) {
	srv, s := setup(t)
	testutil.SeedExperiment(t, s, "signup", 5, 500, 50, 60)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/experiment/signup", nil)
	req.AddCookie(tokenCookie(srv.Token()))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{"signup", "control", "variant"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestDashboard_ExperimentDetailNotFound(t *testing.T) {
	srv, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/experiment/ghost", nil)
	req.AddCookie(tokenCookie(srv.Token()))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}
