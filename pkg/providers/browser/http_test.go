package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPPool_NavigateAndHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	pool := NewHTTPPool(0)
	var got string
	err := pool.WithPage(context.Background(), func(p Page) error {
		if err := p.Navigate(context.Background(), srv.URL); err != nil {
			return err
		}
		html, err := p.HTML(context.Background())
		got = html
		return err
	})
	if err != nil {
		t.Fatalf("WithPage: %v", err)
	}
	if got != "<html><body>hello</body></html>" {
		t.Fatalf("got %q", got)
	}
}

func TestHTTPPool_NavigateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pool := NewHTTPPool(0)
	err := pool.WithPage(context.Background(), func(p Page) error {
		return p.Navigate(context.Background(), srv.URL)
	})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestHTTPPool_NavigateBadURL(t *testing.T) {
	pool := NewHTTPPool(0)
	err := pool.WithPage(context.Background(), func(p Page) error {
		return p.Navigate(context.Background(), "://not-a-url")
	})
	if err == nil {
		t.Fatal("expected error for malformed url")
	}
}
