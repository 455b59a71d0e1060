package google

import (
	"encoding/json"
	"testing"
)

func TestClient_Dim(t *testing.T) {
	c := New("key")
	if c.Dim("text-embedding-004") != 768 {
		t.Fatalf("got %d, want 768", c.Dim("text-embedding-004"))
	}
}

func TestEmbedResponse_Decode(t *testing.T) {
	raw := []byte(`{"embedding":{"values":[0.1,0.2]}}`)
	var resp embedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Embedding.Values) != 2 {
		t.Fatalf("got %d values", len(resp.Embedding.Values))
	}
}
