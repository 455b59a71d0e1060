package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{{Embedding: []float32{1, 2, 3}}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	vec, err := c.Embed(context.Background(), "text-embedding-3-small", "hi")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("got %d dims", len(vec))
	}
}

func TestClient_Dim(t *testing.T) {
	c := New("", "key")
	if c.Dim("text-embedding-3-large") != 3072 {
		t.Fatalf("got %d, want 3072", c.Dim("text-embedding-3-large"))
	}
}
