// Package httpclient is a small fasthttp wrapper for JSON upstream APIs with a fixed base URL.
package httpclient

import (
	"context"
	"encoding/json"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/valyala/fasthttp"
)

type Config struct {
	// Debug logs every request with its timing.
	Debug bool

	// Headers are sent with every request. Per-request headers override them.
	Headers map[string]string

	// Timeout applies when the context has no deadline. Zero waits forever.
	Timeout time.Duration

	// Dial replaces the network dialer, tests pass an in-memory listener here.
	Dial fasthttp.DialFunc
}

type Client struct {
	Config
	baseURL *url.URL
	client  *fasthttp.Client
}

func New(baseURL string, config ...Config) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse base url")
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	var conf Config
	if len(config) > 0 {
		conf = config[0]
	}
	if conf.Headers == nil {
		conf.Headers = make(map[string]string)
	}
	return &Client{
		Config:  conf,
		baseURL: base,
		client: &fasthttp.Client{
			Dial:                     conf.Dial,
			NoDefaultUserAgentHeader: true,
		},
	}, nil
}

type RequestOptions struct {
	Query  url.Values
	Header map[string]string
	// Body is sent as application/json.
	Body []byte
}

type HttpResponse struct {
	URL string
	fasthttp.Response
}

// UnmarshalBody decodes a JSON body. Any other content type is an error carrying the body.
func (r *HttpResponse) UnmarshalBody(out any) error {
	body, err := r.BodyUncompressed()
	if err != nil {
		return errors.Wrapf(err, "can't uncompress body from %s", r.URL)
	}
	mediaType, _, _ := mime.ParseMediaType(string(r.Header.ContentType()))
	if mediaType != "application/json" {
		return errors.Errorf("unexpected content type %q from %s: %q", mediaType, r.URL, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "can't unmarshal json body from %s: %q", r.URL, string(body))
	}
	return nil
}

// BaseURL returns a copy of the client's base URL.
func (h *Client) BaseURL() *url.URL {
	u := *h.baseURL
	return &u
}

func (h *Client) Get(ctx context.Context, path string, opts RequestOptions) (*HttpResponse, error) {
	return h.Do(ctx, fasthttp.MethodGet, path, opts)
}

// Do sends one request to path, joined onto the base URL path.
func (h *Client) Do(ctx context.Context, method, reqPath string, opts RequestOptions) (*HttpResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	target := h.BaseURL()
	target.Path = path.Join(target.Path, reqPath)
	query := target.Query()
	for k, values := range opts.Query {
		for _, v := range values {
			query.Add(k, v)
		}
	}
	target.RawQuery = query.Encode()
	requestURL := target.String()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Header {
		req.Header.Set(k, v)
	}
	if opts.Body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(opts.Body)
	}

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = h.client.DoDeadline(req, resp, deadline)
	} else if h.Timeout > 0 {
		err = h.client.DoTimeout(req, resp, h.Timeout)
	} else {
		err = h.client.Do(req, resp)
	}
	if h.Debug {
		logger.InfoContext(ctx, "Finished upstream request",
			slogx.String("package", "httpclient"),
			slogx.String("method", method),
			slogx.String("url", requestURL),
			slogx.Duration("latency", time.Since(start)),
			slogx.Int("status", resp.StatusCode()),
			slogx.Int("length", len(resp.Body())),
			slogx.Error(err),
		)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s", method, requestURL)
	}

	out := &HttpResponse{URL: requestURL}
	resp.CopyTo(&out.Response)
	return out, nil
}
