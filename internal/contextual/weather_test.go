package contextual

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenMeteoCurrent(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current": {"temperature_2m": -1.5, "wind_speed_10m": 34.2, "relative_humidity_2m": 81, "weather_code": 73},
			"daily": {"sunrise": ["2026-01-10T08:42"], "sunset": ["2026-01-10T16:03"]}
		}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource()
	src.BaseURL = srv.URL

	cond, err := src.Current(context.Background(), 57.05, 9.92)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cond.TempC != -1.5 || cond.WindKph != 34.2 || cond.Humidity != 81 {
		t.Fatalf("unexpected conditions %+v", cond)
	}
	if cond.Text != "Snow" {
		t.Fatalf("code 73 mapped to %q, want Snow", cond.Text)
	}
	if cond.Sunrise.IsZero() || cond.Sunset.IsZero() {
		t.Fatal("sunrise/sunset not parsed")
	}
	if gotQuery == "" || !containsParam(gotQuery, "latitude=57.0500") {
		t.Fatalf("latitude missing from query %q", gotQuery)
	}
}

func containsParam(query, param string) bool {
	for _, part := range strings.Split(query, "&") {
		if part == param {
			return true
		}
	}
	return false
}

func TestOpenMeteoHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewOpenMeteoSource()
	src.BaseURL = srv.URL

	if _, err := src.Current(context.Background(), 0, 0); err == nil {
		t.Fatal("HTTP error did not surface")
	}
}
