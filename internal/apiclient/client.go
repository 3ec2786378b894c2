package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_api_requests_total",
			Help: "Requests sent to the portfolio API",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_api_request_duration_seconds",
			Help:    "Latency of requests sent to the portfolio API",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method"},
	)
)

const userAgent = "portfolio-admin/1.0"

type tokenKey struct{}

// WithToken returns a context whose API calls carry token as bearer credentials.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token WithToken stored, if any.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client is the single configured HTTP client every dashboard page goes through.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) (client *Client, err error) {
	var u *url.URL
	u, err = url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		err = errors.Wrapf(err, "invalid API base URL: %s", baseURL)
		return client, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		err = errors.Errorf("API base URL must be http or https: %s", baseURL)
		return client, err
	}

	client = &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}
	return client, err
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// do sends req, decodes a 2xx JSON body into out (when out is non-nil) and turns anything
// else into *Error.
func (c *Client) do(req *http.Request, out any) (err error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if token := TokenFrom(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	begin := time.Now()
	var resp *http.Response
	resp, err = c.http.Do(req)
	requestDuration.WithLabelValues(req.Method).Observe(time.Since(begin).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		err = errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
		return err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	var body []byte
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrapf(err, "failed to read response of %s %s", req.Method, req.URL.Path)
		return err
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(begin)).
		Msg("portfolio API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &Error{
			Method:  req.Method,
			Path:    req.URL.Path,
			Status:  resp.StatusCode,
			Message: parseErrorMessage(body),
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return err
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		err = errors.Wrapf(err, "failed to decode response of %s %s", req.Method, req.URL.Path)
		return err
	}
	return err
}

// GetJSON reads path into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) (err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return err
	}
	return c.do(req, out)
}

// SendJSON writes body to path with method; the response is decoded into out when non-nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, body, out any) (err error) {
	var payload []byte
	payload, err = json.Marshal(body)
	if err != nil {
		err = errors.Wrapf(err, "failed to encode body for %s %s", method, path)
		return err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, method, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Delete removes the record at path.
func (c *Client) Delete(ctx context.Context, path string) (err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint(path), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return err
	}
	return c.do(req, nil)
}

// UploadResult is the media endpoint's answer; only URL is bound into forms.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
}

// Upload posts file as the multipart field "file" to path.
func (c *Client) Upload(ctx context.Context, path, filename string, file io.Reader) (result UploadResult, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	var part io.Writer
	part, err = mw.CreateFormFile("file", filename)
	if err != nil {
		err = errors.Wrap(err, "failed to create multipart field")
		return result, err
	}
	_, err = io.Copy(part, file)
	if err != nil {
		err = errors.Wrapf(err, "failed to buffer upload: %s", filename)
		return result, err
	}
	err = mw.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to finish multipart body")
		return result, err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &buf)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return result, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	err = c.do(req, &result)
	if err != nil {
		return result, err
	}
	if result.URL == "" {
		err = errors.Errorf("upload to %s returned no url", path)
		return result, err
	}
	return result, err
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges operator credentials for an API session token.
func (c *Client) Login(ctx context.Context, email, password string) (token string, err error) {
	var resp loginResponse
	err = c.SendJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return token, err
	}
	if resp.Token == "" {
		err = errors.New("login succeeded without a token")
		return token, err
	}
	token = resp.Token
	return token, err
}

// Me returns the user the context's token belongs to.
func (c *Client) Me(ctx context.Context) (user content.User, err error) {
	err = c.GetJSON(ctx, "/auth/me", &user)
	return user, err
}
