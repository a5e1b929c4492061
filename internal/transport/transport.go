package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	APIPrefix = "/api/v1"

	DefaultJSONTimeout      = 15 * time.Second
	DefaultMultipartTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

var ErrNoBaseURL = errors.New("transport: no backend base URL configured")

// LatencyObserver receives the duration of every round trip that produced a
// response or a transport failure.
type LatencyObserver interface {
	ObserveBackendLatency(method, endpoint string, d time.Duration)
}

type Options struct {
	// PublicBaseURL is preferred when set; ServerBaseURL is the server-only
	// fallback.
	PublicBaseURL    string
	ServerBaseURL    string
	JSONTimeout      time.Duration
	MultipartTimeout time.Duration
	// RoundTripper defaults to http.DefaultTransport. It is always wrapped
	// for trace propagation.
	RoundTripper http.RoundTripper
	Observer     LatencyObserver
}

// Response is any HTTP response from the backend. Status codes are not
// interpreted here.
type Response struct {
	Method      string
	Endpoint    string
	URL         string
	StatusCode  int
	ContentType string
	JSON        bool
	Body        []byte
}

// Error is a failure that happened before a response was received.
type Error struct {
	Op       string
	Method   string
	Endpoint string
	URL      string
	Timeout  bool
	Err      error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timeout: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Part is one field of a multipart request. A part with a Filename is sent as
// a file.
type Part struct {
	Name        string
	Value       string
	Filename    string
	ContentType string
	Data        []byte
}

type Transport struct {
	baseURL      string
	hasAPIPrefix bool
	jsonClient   *http.Client
	uploadClient *http.Client
	observer     LatencyObserver
	log          *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) (*Transport, error) {
	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = strings.TrimSpace(opts.ServerBaseURL)
	}
	if base == "" {
		return nil, ErrNoBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("transport: invalid base URL %q", base)
	}
	base = strings.TrimRight(base, "/")

	jsonTimeout := opts.JSONTimeout
	if jsonTimeout <= 0 {
		jsonTimeout = DefaultJSONTimeout
	}
	uploadTimeout := opts.MultipartTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultMultipartTimeout
	}
	rt := opts.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}
	rt = otelhttp.NewTransport(rt)

	t := &Transport{
		baseURL:      base,
		hasAPIPrefix: strings.Contains(base, APIPrefix),
		jsonClient:   &http.Client{Timeout: jsonTimeout, Transport: rt},
		uploadClient: &http.Client{Timeout: uploadTimeout, Transport: rt},
		observer:     opts.Observer,
		log:          logger,
	}
	logger.Infof("Transport: backend base URL %s (includes %s: %t)", base, APIPrefix, t.hasAPIPrefix)
	return t, nil
}

func (t *Transport) BaseURL() string { return t.baseURL }

// RoundTripper is the instrumented transport shared by the JSON and upload
// clients.
func (t *Transport) RoundTripper() http.RoundTripper { return t.jsonClient.Transport }

// URL resolves an endpoint written relative to "/" or to "/api/v1" against
// the base URL without doubling the API prefix.
func (t *Transport) URL(endpoint string) string {
	path := endpoint
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == APIPrefix || strings.HasPrefix(path, APIPrefix+"/") || strings.HasPrefix(path, APIPrefix+"?") {
		path = strings.TrimPrefix(path, APIPrefix)
		if path == "" {
			path = "/"
		}
	}
	if t.hasAPIPrefix {
		return t.baseURL + path
	}
	return t.baseURL + APIPrefix + path
}

func (t *Transport) GetJSON(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	target := t.URL(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Op: "build request", Method: http.MethodGet, Endpoint: endpoint, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return t.do(t.jsonClient, req, endpoint)
}

func (t *Transport) PostJSON(ctx context.Context, endpoint string, body any) (*Response, error) {
	target := t.URL(endpoint)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Op: "encode body", Method: http.MethodPost, Endpoint: endpoint, URL: target, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: "build request", Method: http.MethodPost, Endpoint: endpoint, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return t.do(t.jsonClient, req, endpoint)
}

func (t *Transport) PostMultipart(ctx context.Context, endpoint string, parts []Part) (*Response, error) {
	target := t.URL(endpoint)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if err := writePart(w, p); err != nil {
			return nil, &Error{Op: "encode multipart", Method: http.MethodPost, Endpoint: endpoint, URL: target, Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Op: "encode multipart", Method: http.MethodPost, Endpoint: endpoint, URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return nil, &Error{Op: "build request", Method: http.MethodPost, Endpoint: endpoint, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return t.do(t.uploadClient, req, endpoint)
}

func writePart(w *multipart.Writer, p Part) error {
	if p.Filename == "" {
		return w.WriteField(p.Name, p.Value)
	}
	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{mime.FormatMediaType("form-data", map[string]string{
		"name":     p.Name,
		"filename": p.Filename,
	})}
	h["Content-Type"] = []string{contentType}
	fw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = fw.Write(p.Data)
	return err
}

func (t *Transport) do(client *http.Client, req *http.Request, endpoint string) (*Response, error) {
	started := time.Now()
	resp, err := client.Do(req)
	if t.observer != nil {
		t.observer.ObserveBackendLatency(req.Method, endpoint, time.Since(started))
	}
	if err != nil {
		t.log.Debugf("Transport: %s %s failed: %v", req.Method, req.URL.String(), err)
		return nil, &Error{
			Op:       "send request",
			Method:   req.Method,
			Endpoint: endpoint,
			URL:      req.URL.String(),
			Timeout:  isTimeout(err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{
			Op:       "read response",
			Method:   req.Method,
			Endpoint: endpoint,
			URL:      req.URL.String(),
			Timeout:  isTimeout(err),
			Err:      err,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return &Response{
		Method:      req.Method,
		Endpoint:    endpoint,
		URL:         req.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		JSON:        mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"),
		Body:        body,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
