// Package serverless runs the HTTP router behind API Gateway proxy events.
package serverless

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	appErrors "github.com/majorjayant/siteconfig/pkg/errors"
	"github.com/majorjayant/siteconfig/pkg/logger"
	"github.com/majorjayant/siteconfig/pkg/response"
)

// Adapter translates API Gateway events into requests against an http.Handler.
// It never returns an error to the Lambda runtime; failures become JSON 500s.
type Adapter struct {
	handler http.Handler
	log     *zap.Logger
}

// NewAdapter wraps handler, normally the gin engine.
func NewAdapter(handler http.Handler) *Adapter {
	return &Adapter{handler: handler, log: logger.WithModule("serverless")}
}

type payloadVersion struct {
	Version string `json:"version"`
}

// Handle accepts either REST (v1) or HTTP API (v2) proxy payloads.
func (a *Adapter) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var envelope payloadVersion
	_ = json.Unmarshal(raw, &envelope)

	if envelope.Version == "2.0" {
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			return v2Error(a.fail("decode v2 event", err)), nil
		}
		return a.ProxyV2(ctx, event)
	}

	var event events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &event); err != nil {
		return v1Error(a.fail("decode v1 event", err)), nil
	}
	return a.ProxyV1(ctx, event)
}

// ProxyV1 serves a REST API proxy event.
func (a *Adapter) ProxyV1(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body, err := decodeBody(event.Body, event.IsBase64Encoded)
	if err != nil {
		return v1Error(a.fail("decode body", err)), nil
	}

	query := url.Values{}
	for key, value := range event.QueryStringParameters {
		query.Set(key, value)
	}
	for key, values := range event.MultiValueQueryStringParameters {
		query[key] = values
	}

	req, err := newRequest(ctx, event.HTTPMethod, event.Path, query.Encode(), body)
	if err != nil {
		return v1Error(a.fail("build request", err)), nil
	}
	for key, value := range event.Headers {
		req.Header.Set(key, value)
	}
	for key, values := range event.MultiValueHeaders {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	setRemoteAddr(req, event.RequestContext.Identity.SourceIP)

	rec := a.serve(req)
	out, encoded := rec.encodedBody()
	return events.APIGatewayProxyResponse{
		StatusCode:        rec.status,
		Headers:           flatten(rec.header),
		MultiValueHeaders: rec.header,
		Body:              out,
		IsBase64Encoded:   encoded,
	}, nil
}

// ProxyV2 serves an HTTP API proxy event.
func (a *Adapter) ProxyV2(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := decodeBody(event.Body, event.IsBase64Encoded)
	if err != nil {
		return v2Error(a.fail("decode body", err)), nil
	}

	path := event.RawPath
	if path == "" {
		path = "/"
	}

	req, err := newRequest(ctx, event.RequestContext.HTTP.Method, path, event.RawQueryString, body)
	if err != nil {
		return v2Error(a.fail("build request", err)), nil
	}
	for key, value := range event.Headers {
		req.Header.Set(key, value)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	setRemoteAddr(req, event.RequestContext.HTTP.SourceIP)

	rec := a.serve(req)
	out, encoded := rec.encodedBody()
	return events.APIGatewayV2HTTPResponse{
		StatusCode:        rec.status,
		Headers:           flatten(rec.header),
		MultiValueHeaders: rec.header,
		Body:              out,
		IsBase64Encoded:   encoded,
	}, nil
}

func (a *Adapter) serve(req *http.Request) (rec *recorder) {
	rec = newRecorder()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("handler panicked", zap.Any("error", r))
			rec = errorRecorder(appErrors.ErrInternalServer)
		}
	}()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *Adapter) fail(stage string, err error) *recorder {
	a.log.Warn("rejecting proxy event", zap.String("stage", stage), zap.Error(err))
	return errorRecorder(appErrors.NewInvalidPayload("Malformed proxy event"))
}

func newRequest(ctx context.Context, method, path, rawQuery string, body []byte) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	if path == "" {
		path = "/"
	}
	target := path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("serverless: %w", err)
	}
	return req, nil
}

func setRemoteAddr(req *http.Request, sourceIP string) {
	if sourceIP != "" {
		req.RemoteAddr = sourceIP + ":0"
	}
}

func decodeBody(body string, encoded bool) ([]byte, error) {
	if !encoded {
		return []byte(body), nil
	}
	return base64.StdEncoding.DecodeString(body)
}

func flatten(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		out[key] = strings.Join(values, ",")
	}
	return out
}

func v1Error(rec *recorder) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: rec.status,
		Headers:    flatten(rec.header),
		Body:       rec.body.String(),
	}
}

func v2Error(rec *recorder) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: rec.status,
		Headers:    flatten(rec.header),
		Body:       rec.body.String(),
	}
}

// recorder is a minimal http.ResponseWriter that buffers the response.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func errorRecorder(err error) *recorder {
	rec := newRecorder()
	status, body := response.NewError(err)
	payload, _ := json.Marshal(body)
	rec.header.Set("Content-Type", "application/json; charset=utf-8")
	rec.header.Set("Access-Control-Allow-Origin", "*")
	rec.WriteHeader(status)
	_, _ = rec.Write(payload)
	return rec
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(p)
}

func (r *recorder) encodedBody() (string, bool) {
	if utf8.Valid(r.body.Bytes()) {
		return r.body.String(), false
	}
	return base64.StdEncoding.EncodeToString(r.body.Bytes()), true
}
