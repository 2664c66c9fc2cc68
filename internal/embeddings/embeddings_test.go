package embeddings

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenHashEmbedderDeterministic(t *testing.T) {
	e := NewTokenHashEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "1341 SPRING CREEK DRIVE PROVO UT 84606")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := e.Embed(ctx, "1341 SPRING CREEK DRIVE PROVO UT 84606")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed() not deterministic at dim %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestTokenHashEmbedderUnitNorm(t *testing.T) {
	e := NewTokenHashEmbedder(128)

	vector, err := e.Embed(context.Background(), "920 MAIN STREET OREM UT 84057")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	var norm float64
	for _, val := range vector {
		norm += float64(val) * float64(val)
	}
	norm = math.Sqrt(norm)

	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("Embed() norm = %v, want 1.0", norm)
	}
}

func TestTokenHashEmbedderSimilarity(t *testing.T) {
	e := NewTokenHashEmbedder(384)
	ctx := context.Background()

	base, _ := e.Embed(ctx, "1341 SPRING CREEK DRIVE PROVO UT 84606")
	typo, _ := e.Embed(ctx, "1341 SPRNG CREEK DRIVE PROVO UT 84606")
	unrelated, _ := e.Embed(ctx, "88 OCEANVIEW TERRACE SAN DIEGO CA 92101")

	simTypo := Dot(base, typo)
	simUnrelated := Dot(base, unrelated)

	if simTypo <= simUnrelated {
		t.Errorf("typo similarity %v not greater than unrelated %v", simTypo, simUnrelated)
	}
	if simTypo < 0.7 {
		t.Errorf("typo similarity %v too low for a one-token difference", simTypo)
	}
	if simUnrelated > 0.4 {
		t.Errorf("unrelated similarity %v too high", simUnrelated)
	}
}

func TestTokenHashEmbedderEmptyText(t *testing.T) {
	e := NewTokenHashEmbedder(64)

	vector, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	for _, val := range vector {
		if val != 0 {
			t.Fatalf("Embed(\"\") should produce the zero vector, got %v", val)
		}
	}
}

func TestClientEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings": [[3, 4], [0, 2]]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2)

	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}

	// Vectors must come back re-normalized
	if math.Abs(float64(vectors[0][0])-0.6) > 1e-5 || math.Abs(float64(vectors[0][1])-0.8) > 1e-5 {
		t.Errorf("EmbedBatch() vector = %v, want [0.6 0.8]", vectors[0])
	}
	if vectors[1][1] != 1.0 {
		t.Errorf("EmbedBatch() vector = %v, want [0 1]", vectors[1])
	}
}

func TestClientModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2)
	_, err := client.Embed(context.Background(), "a")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Embed() error = %v, want ErrModelUnavailable", err)
	}

	server.Close()
	_, err = client.Embed(context.Background(), "a")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Embed() after close error = %v, want ErrModelUnavailable", err)
	}
}

func TestClientDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[1, 2, 3]]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2)
	_, err := client.Embed(context.Background(), "a")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Embed() error = %v, want ErrModelUnavailable", err)
	}
}
