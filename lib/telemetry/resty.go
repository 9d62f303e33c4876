package telemetry

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// tracedHeaders are the response headers that tell a block page or a cdn
// error apart from a real listing page. Cookies and the like stay out of spans.
var tracedHeaders = []string{
	"Content-Type",
	"Retry-After",
	"Server",
	"Cf-Ray",
	"Cf-Mitigated",
	"X-Cache",
}

// TraceResty starts a span for every attempt made by the client, named after
// the host being fetched.
func TraceResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(
			req.Context(),
			spanName(req.Method, req.URL),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.Int("http.attempt", req.Attempt)),
		)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(endResponseSpan)
	client.OnError(endErrorSpan)
}

func spanName(method, link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return method
	}
	return method + " " + parsed.Host
}

func responseHeaderAttributes(headers http.Header) []attribute.KeyValue {
	var out []attribute.KeyValue
	for _, name := range tracedHeaders {
		value := headers.Get(name)
		if value == "" {
			continue
		}
		out = append(out, attribute.String("http.response.header."+strings.ToLower(name), value))
	}
	return out
}

func endResponseSpan(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// the raw request only exists once the request was sent
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	span.SetAttributes(responseHeaderAttributes(res.Header())...)
	// page bodies are too large to be kept as an attribute
	span.SetAttributes(attribute.Int("http.response.body_bytes", len(res.Body())))

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func endErrorSpan(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
