// Package remote is the HTTP blob store backend, for deployments where the
// dataset lives behind a small file service. Requests carry a bearer token.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spendreport/internal/blob"
)

type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ blob.Store = (*Store)(nil)

func New(baseURL, token string, timeout time.Duration) *Store {
	return &Store{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *Store) blobURL(key string) string {
	return s.baseURL + "/blobs/" + url.PathEscape(key)
}

func (s *Store) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.client.Do(req)
}

func (s *Store) Store(ctx context.Context, key string, value []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.blobURL(key), bytes.NewReader(value))
	if err != nil {
		return fmt.Errorf("build store request for %q: %w", key, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("store blob %q: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store blob %q: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

func (s *Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.blobURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("build retrieve request for %q: %w", key, err)
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve blob %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieve blob %q: unexpected status %d", key, resp.StatusCode)
	}
	value, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %q body: %w", key, err)
	}
	return value, nil
}
