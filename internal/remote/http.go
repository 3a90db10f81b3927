package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HTTPBackend talks to the SyncTeam API server over REST, with change
// events streamed over a websocket.
type HTTPBackend struct {
	baseURL *url.URL
	client  *http.Client
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu    sync.RWMutex
	token string

	reconnectMin time.Duration
	reconnectMax time.Duration
}

// HTTPOption configures an HTTPBackend.
type HTTPOption func(*HTTPBackend)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(b *HTTPBackend) { b.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(b *HTTPBackend) { b.logger = l }
}

// WithToken starts the backend with an existing session token.
func WithToken(token string) HTTPOption {
	return func(b *HTTPBackend) { b.token = token }
}

// WithReconnect sets the websocket reconnect backoff bounds.
func WithReconnect(lo, hi time.Duration) HTTPOption {
	return func(b *HTTPBackend) {
		b.reconnectMin = lo
		b.reconnectMax = hi
	}
}

// NewHTTPBackend creates a backend for the API at baseURL.
func NewHTTPBackend(baseURL string, opts ...HTTPOption) (*HTTPBackend, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	b := &HTTPBackend{
		baseURL:      u,
		client:       &http.Client{Timeout: 15 * time.Second},
		dialer:       websocket.DefaultDialer,
		logger:       slog.Default(),
		reconnectMin: time.Second,
		reconnectMax: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Token returns the current session token.
func (b *HTTPBackend) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// SetToken replaces the session token used for requests.
func (b *HTTPBackend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *HTTPBackend) endpoint(path string, query url.Values) string {
	u := *b.baseURL
	u.Path = b.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	contentType := ""
	switch v := body.(type) {
	case nil:
	case *multipartBody:
		reader = v.buf
		contentType = v.contentType
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, b.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := b.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e errorEnvelope
		if json.Unmarshal(payload, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeData(env dataEnvelope, out any) error {
	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// Select reads rows from table.
func (b *HTTPBackend) Select(ctx context.Context, table string, f Filter) ([]Row, error) {
	q := url.Values{}
	for col, v := range f.Eq {
		q.Set("eq."+col, v)
	}
	if f.Order != "" {
		order := f.Order
		if f.Desc {
			order += ".desc"
		}
		q.Set("order", order)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var env dataEnvelope
	if err := b.do(ctx, http.MethodGet, "/api/data/"+url.PathEscape(table), q, nil, &env); err != nil {
		return nil, err
	}
	var rows []Row
	if err := decodeData(env, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates a row and returns it with server-generated fields.
func (b *HTTPBackend) Insert(ctx context.Context, table string, row Row) (Row, error) {
	var env dataEnvelope
	if err := b.do(ctx, http.MethodPost, "/api/data/"+url.PathEscape(table), nil, row, &env); err != nil {
		return nil, err
	}
	var out Row
	return out, decodeData(env, &out)
}

// Update patches a row and returns the stored result.
func (b *HTTPBackend) Update(ctx context.Context, table, id string, patch Row) (Row, error) {
	var env dataEnvelope
	path := "/api/data/" + url.PathEscape(table) + "/" + url.PathEscape(id)
	if err := b.do(ctx, http.MethodPatch, path, nil, patch, &env); err != nil {
		return nil, err
	}
	var out Row
	return out, decodeData(env, &out)
}

// Delete removes a row.
func (b *HTTPBackend) Delete(ctx context.Context, table, id string) error {
	return b.do(ctx, http.MethodDelete, "/api/data/"+url.PathEscape(table)+"/"+url.PathEscape(id), nil, nil, nil)
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Row       `json:"user"`
}

func (b *HTTPBackend) session(resp authResponse) (Session, error) {
	s := Session{Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	if resp.User != nil {
		m, err := DecodeMember(resp.User)
		if err != nil {
			return Session{}, err
		}
		s.User = m
	}
	if s.Token != "" {
		b.SetToken(s.Token)
	}
	return s, nil
}

// Authenticate logs in and keeps the returned token for later requests.
func (b *HTTPBackend) Authenticate(ctx context.Context, email, password string) (Session, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := b.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return Session{}, err
	}
	return b.session(resp)
}

// Signup registers a new account and signs in.
func (b *HTTPBackend) Signup(ctx context.Context, email, password, name, role string) (Session, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password, "full_name": name, "role": role}
	if err := b.do(ctx, http.MethodPost, "/api/auth/signup", nil, body, &resp); err != nil {
		return Session{}, err
	}
	return b.session(resp)
}

// CurrentSession validates the held token and returns the session owner.
func (b *HTTPBackend) CurrentSession(ctx context.Context) (Session, error) {
	var resp authResponse
	if err := b.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &resp); err != nil {
		return Session{}, err
	}
	resp.Token = b.Token()
	return b.session(resp)
}

// Profile returns the profile row of the session owner.
func (b *HTTPBackend) Profile(ctx context.Context) (Row, error) {
	var env dataEnvelope
	if err := b.do(ctx, http.MethodGet, "/api/auth/profile", nil, nil, &env); err != nil {
		return nil, err
	}
	var out Row
	return out, decodeData(env, &out)
}

type multipartBody struct {
	buf         *bytes.Buffer
	contentType string
}

// Upload stores a file and returns its files row, including the download URL.
func (b *HTTPBackend) Upload(ctx context.Context, f FileUpload) (Row, error) {
	if f.Body == nil {
		return nil, fmt.Errorf("upload %q: empty body", f.Name)
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	_ = w.WriteField("entity_type", f.EntityType)
	_ = w.WriteField("entity_id", f.EntityID)
	_ = w.WriteField("mime_type", f.MIMEType)
	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	var env dataEnvelope
	body := &multipartBody{buf: buf, contentType: w.FormDataContentType()}
	if err := b.do(ctx, http.MethodPost, "/api/files", nil, body, &env); err != nil {
		return nil, err
	}
	var out Row
	return out, decodeData(env, &out)
}

// Health reports the server's health status string.
func (b *HTTPBackend) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := b.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
