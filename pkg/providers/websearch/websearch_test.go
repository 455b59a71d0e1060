package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Results: []struct {
			URL string `json:"url"`
		}{{URL: "https://example.test/docs"}, {URL: "https://example.test/blog"}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	results, err := c.Search(context.Background(), "widget documentation main page", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].URL != "https://example.test/docs" {
		t.Fatalf("got %q", results[0].URL)
	}
}

func TestClient_Search_MaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Results: []struct {
			URL string `json:"url"`
		}{{URL: "a"}, {URL: "b"}, {URL: "c"}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	results, err := c.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}
