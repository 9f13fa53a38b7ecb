package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kalambet/askorg/internal/api"
	"github.com/kalambet/askorg/internal/config"
	"github.com/kalambet/askorg/internal/format"
	"github.com/kalambet/askorg/internal/mediator"
	"github.com/kalambet/askorg/internal/storage"
)

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &apiClient{
		baseURL:    serverURL(cfg),
		token:      cfg.Server.APIToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is askorg running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func askRemote(ctx context.Context, c *apiClient, question string) (format.Response, error) {
	var out format.Response
	resp, err := c.post(ctx, "/query", api.QueryRequest{Question: question})
	if err != nil {
		return out, err
	}
	err = decodeJSON(resp, &out)
	return out, err
}

func fetchStats(ctx context.Context, c *apiClient) (mediator.Stats, error) {
	var out mediator.Stats
	resp, err := c.get(ctx, "/stats")
	if err != nil {
		return out, err
	}
	err = decodeJSON(resp, &out)
	return out, err
}

func fetchHistory(ctx context.Context, c *apiClient, limit int) ([]storage.QueryRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	resp, err := c.get(ctx, "/history?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var out []storage.QueryRecord
	err = decodeJSON(resp, &out)
	return out, err
}
