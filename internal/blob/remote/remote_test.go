package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteStore(t *testing.T) {
	blobs := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.URL.Path[len("/blobs/"):]
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			blobs[key] = body
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			v, ok := blobs[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(v)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := New(srv.URL, "secret", 5*time.Second)

	if v, err := s.Retrieve(ctx, "rules"); err != nil || v != nil {
		t.Fatalf("missing key: %v, %v", v, err)
	}
	if err := s.Store(ctx, "rules", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	v, err := s.Retrieve(ctx, "rules")
	if err != nil || string(v) != `[]` {
		t.Fatalf("got %q, %v", v, err)
	}

	t.Run("bad token is surfaced", func(t *testing.T) {
		bad := New(srv.URL, "wrong", 5*time.Second)
		if err := bad.Store(ctx, "rules", []byte(`[]`)); err == nil {
			t.Error("unauthorized store succeeded")
		}
	})
}
