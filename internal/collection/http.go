package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/familydo/internal/metrics"
)

// Config holds the remote store connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPStore talks to a json-server style REST store. It does not retry; a
// failed call is reported once as a TransportError.
type HTTPStore struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPStore(cfg Config, logger *slog.Logger) *HTTPStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPStore{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (s *HTTPStore) List(ctx context.Context, coll Name, filter Filter, out any) error {
	q := url.Values{}
	for k, v := range filter {
		q.Set(k, v)
	}
	return s.do(ctx, "list", coll, 0, http.MethodGet, q, nil, out)
}

func (s *HTTPStore) Get(ctx context.Context, coll Name, id int64, out any) error {
	return s.do(ctx, "get", coll, id, http.MethodGet, nil, nil, out)
}

func (s *HTTPStore) Create(ctx context.Context, coll Name, record any, out any) error {
	return s.do(ctx, "create", coll, 0, http.MethodPost, nil, record, out)
}

func (s *HTTPStore) Update(ctx context.Context, coll Name, id int64, patch any, out any) error {
	return s.do(ctx, "update", coll, id, http.MethodPatch, nil, patch, out)
}

func (s *HTTPStore) Delete(ctx context.Context, coll Name, id int64) error {
	return s.do(ctx, "delete", coll, id, http.MethodDelete, nil, nil, nil)
}

func (s *HTTPStore) do(ctx context.Context, op string, coll Name, id int64, method string, query url.Values, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStore(op, string(coll), start, err)
	}()

	fail := func(status int, cause error) error {
		return &TransportError{Op: op, Collection: coll, ID: id, StatusCode: status, Err: cause}
	}

	u := s.cfg.BaseURL + "/" + url.PathEscape(string(coll))
	if id != 0 {
		u += "/" + strconv.FormatInt(id, 10)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("marshal request: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("store request", "method", method, "url", u)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("store request failed", "method", method, "url", u, "error", err)
		return fail(0, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("store response", "status", resp.StatusCode, "url", u, "duration", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return fail(resp.StatusCode, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("store response error", "status", resp.StatusCode, "url", u, "body", string(snippet))
		return fail(resp.StatusCode, fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
