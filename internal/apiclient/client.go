package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/lachlan2k/rta-portal/internal/session"
)

// Observer receives a callback for every backend call. Implemented by the metrics package.
type Observer interface {
	BackendCall(method string, status int)
	ForcedLogout()
}

type nopObserver struct{}

func (nopObserver) BackendCall(string, int) {}
func (nopObserver) ForcedLogout()           {}

// Request carries the caller supplied options of a call
type Request struct {
	Method string
	Header http.Header
	Body   io.Reader
}

type Options struct {
	BaseURL string
	Store   session.Store
	// Zero means no deadline
	Timeout  time.Duration
	Observer Observer
	Logger   *slog.Logger
	// Base transport, http.DefaultTransport when nil
	Transport http.RoundTripper
}

// Client talks to the backend. Authenticated calls read the token from the
// session store on every request, so a logout anywhere takes effect on the
// next call.
type Client struct {
	baseURL string
	store   session.Store
	timeout time.Duration
	base    http.RoundTripper

	authed *http.Client
	public *http.Client

	observer Observer
	logger   *slog.Logger
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	c := &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		store:    opts.Store,
		timeout:  opts.Timeout,
		base:     opts.Transport,
		observer: opts.Observer,
		logger:   opts.Logger,
	}
	if c.base == nil {
		c.base = http.DefaultTransport
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.public = &http.Client{Transport: c.base, Timeout: c.timeout}
	c.authed = &http.Client{
		Transport: &oauth2.Transport{Source: storeTokenSource{c.store}, Base: c.base},
		Timeout:   c.timeout,
	}

	return c, nil
}

func (c *Client) Store() session.Store {
	return c.store
}

// storeTokenSource never caches: the store is the only source of truth
type storeTokenSource struct {
	store session.Store
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	token := s.store.Get().Token
	if token == "" {
		return nil, ErrUnauthorized
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func newRequest(ctx context.Context, url string, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Fetch sends an authenticated request. The caller's headers are kept, except
// Authorization which always carries the session token.
//
// A 401 clears the session and returns ErrUnauthorized; no retry is attempted.
// Every other status is returned as is and the caller owns the body.
func (c *Client) Fetch(ctx context.Context, path string, r Request) (*http.Response, error) {
	req, err := newRequest(ctx, c.url(path), r)
	if err != nil {
		return nil, err
	}

	if c.store.Get().Token == "" {
		return nil, c.forceLogout(req, "no token")
	}

	res, err := c.authed.Do(req)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			// Token disappeared between the check above and the transport reading it
			return nil, c.forceLogout(req, "no token")
		}
		c.observer.BackendCall(req.Method, 0)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrBackendUnavailable, req.Method, path, err)
	}

	c.observer.BackendCall(req.Method, res.StatusCode)
	c.logger.Debug("backend call", "method", req.Method, "path", path, "status", res.StatusCode)

	if res.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
		res.Body.Close()
		return nil, c.forceLogout(req, "backend returned 401")
	}

	return res, nil
}

func (c *Client) forceLogout(req *http.Request, reason string) error {
	c.observer.ForcedLogout()
	if err := c.store.Clear(); err != nil {
		c.logger.Error("could not clear session after authorization failure", "error", err)
	}
	c.logger.Warn("session cleared", "reason", reason, "method", req.Method, "path", req.URL.Path)
	return ErrUnauthorized
}

// FetchPublic sends a request without credentials, for login and registration
func (c *Client) FetchPublic(ctx context.Context, path string, r Request) (*http.Response, error) {
	req, err := newRequest(ctx, c.url(path), r)
	if err != nil {
		return nil, err
	}

	res, err := c.public.Do(req)
	if err != nil {
		c.observer.BackendCall(req.Method, 0)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrBackendUnavailable, req.Method, path, err)
	}
	c.observer.BackendCall(req.Method, res.StatusCode)
	return res, nil
}

// GetJSONWithToken fetches path using a token that isn't in the store yet.
// A 401 here is an ordinary *APIError and leaves the store untouched.
func (c *Client) GetJSONWithToken(ctx context.Context, path string, token *oauth2.Token, out any) error {
	hc := &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(token), Base: c.base},
		Timeout:   c.timeout,
	}

	req, err := newRequest(ctx, c.url(path), Request{Method: http.MethodGet})
	if err != nil {
		return err
	}
	res, err := hc.Do(req)
	if err != nil {
		c.observer.BackendCall(req.Method, 0)
		return fmt.Errorf("%w: GET %s: %v", ErrBackendUnavailable, path, err)
	}
	c.observer.BackendCall(req.Method, res.StatusCode)
	return parseResponse(res, out)
}

func jsonRequest(method string, in any) (Request, error) {
	r := Request{Method: method, Header: http.Header{}}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r.Body = bytes.NewReader(b)
		r.Header.Set("Content-Type", "application/json")
	}
	return r, nil
}

// parseResponse decodes a 2xx body into out, or the error body into an *APIError
func parseResponse(res *http.Response, out any) error {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return DecodeError(res)
	}
	defer res.Body.Close()

	if out == nil || res.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetJSON fetches path and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	res, err := c.Fetch(ctx, path, Request{Method: http.MethodGet})
	if err != nil {
		return err
	}
	return parseResponse(res, out)
}

// SendJSON sends in as a JSON body and decodes the response into out. Either may be nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	r, err := jsonRequest(method, in)
	if err != nil {
		return err
	}
	res, err := c.Fetch(ctx, path, r)
	if err != nil {
		return err
	}
	return parseResponse(res, out)
}

// PostPublic is SendJSON without credentials
func (c *Client) PostPublic(ctx context.Context, path string, in, out any) error {
	r, err := jsonRequest(http.MethodPost, in)
	if err != nil {
		return err
	}
	res, err := c.FetchPublic(ctx, path, r)
	if err != nil {
		return err
	}
	return parseResponse(res, out)
}

// Delete treats 204 (or any 2xx) as success
func (c *Client) Delete(ctx context.Context, path string) error {
	res, err := c.Fetch(ctx, path, Request{Method: http.MethodDelete})
	if err != nil {
		return err
	}
	return parseResponse(res, nil)
}

// Upload sends a single file plus plain form fields as multipart form data
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	res, err := c.Fetch(ctx, path, Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{mw.FormDataContentType()}},
		Body:   &buf,
	})
	if err != nil {
		return err
	}
	return parseResponse(res, out)
}
