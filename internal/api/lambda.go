package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// LambdaHandler adapts API Gateway proxy events to an http.Handler.
func LambdaHandler(h http.Handler, logger *slog.Logger) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger = log.OrDefault(logger)
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		httpReq, err := createHTTPRequest(ctx, req)
		if err != nil {
			logger.Error("error creating HTTP request", "error", err)
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Headers: map[string]string{
					"Content-Type":                "application/json",
					"Access-Control-Allow-Origin": "*",
				},
				Body: `{"message":"Internal Server Error"}`,
			}, nil
		}

		// For REQUEST authorizers the context is directly in the Authorizer map.
		if tenantID, ok := req.RequestContext.Authorizer["tenant_id"].(string); ok && tenantID != "" {
			httpReq = httpReq.WithContext(WithTenantID(httpReq.Context(), tenantID))
		}

		rec := newResponseRecorder()
		h.ServeHTTP(rec, httpReq)
		return rec.toProxyResponse(), nil
	}
}

// createHTTPRequest creates an http.Request from an API Gateway event.
func createHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if req.Body != "" {
		if req.IsBase64Encoded {
			raw, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return nil, fmt.Errorf("decode request body: %w", err)
			}
			body = bytes.NewReader(raw)
		} else {
			body = strings.NewReader(req.Body)
		}
	}

	path := req.Path
	for param, value := range req.PathParameters {
		path = strings.ReplaceAll(path, "{"+param+"}", value)
	}
	if path == "" {
		path = "/"
	}

	query := url.Values{}
	for param, values := range req.MultiValueQueryStringParameters {
		for _, v := range values {
			query.Add(param, v)
		}
	}
	for param, value := range req.QueryStringParameters {
		if _, ok := query[param]; !ok {
			query.Set(param, value)
		}
	}

	u := &url.URL{Path: path, RawQuery: query.Encode()}
	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, u.String(), body)
	if err != nil {
		return nil, err
	}

	for key, values := range req.MultiValueHeaders {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, value := range req.Headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}
	httpReq.RemoteAddr = req.RequestContext.Identity.SourceIP
	httpReq.Host = httpReq.Header.Get("Host")

	return httpReq, nil
}

// responseRecorder captures the router's response for API Gateway.
type responseRecorder struct {
	header      http.Header
	body        bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header:     http.Header{},
		statusCode: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
}

func (r *responseRecorder) toProxyResponse() events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(r.header))
	for key := range r.header {
		headers[key] = r.header.Get(key)
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        r.statusCode,
		Headers:           headers,
		MultiValueHeaders: map[string][]string(r.header.Clone()),
		Body:              r.body.String(),
	}
}
