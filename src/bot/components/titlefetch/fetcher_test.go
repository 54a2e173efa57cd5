package titlefetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchExtractsTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><TITLE> My &amp; Doc </TITLE></head><body></body></html>`))
	}))
	defer srv.Close()

	f := New(nil, time.Second)
	got := f.Fetch(context.Background(), srv.URL)
	if got != "My & Doc" {
		t.Fatalf("title = %q", got)
	}
}

func TestFetchStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<title>hello <script>alert(1)</script><b>world</b></title>`))
	}))
	defer srv.Close()

	f := New(nil, time.Second)
	got := f.Fetch(context.Background(), srv.URL)
	if got != "hello world" {
		t.Fatalf("title = %q", got)
	}
}

func TestFetchDegradesToEmpty(t *testing.T) {
	f := New(nil, 100*time.Millisecond)

	if got := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable"); got != "" {
		t.Fatalf("unreachable host: title = %q", got)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	if got := f.Fetch(context.Background(), srv.URL); got != "" {
		t.Fatalf("404 page: title = %q", got)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`<title>too late</title>`))
	}))
	defer slow.Close()
	if got := f.Fetch(context.Background(), slow.URL); got != "" {
		t.Fatalf("slow page: title = %q", got)
	}
}
