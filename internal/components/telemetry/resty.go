package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_http_attempt  = "http.attempt"
	report_http_response = "http.response"
	report_http_error    = "http.error"
)

// InstrumentResty reports every attempt a client makes. Retries of the same
// request share its sequence number so a flaky page reads as one story in the
// logs.
func InstrumentResty(client *resty.Client, tel API) {
	h := &httpHooks{tel: tel}
	client.OnBeforeRequest(h.before)
	client.OnAfterResponse(h.after)
	client.OnError(h.failed)
}

type httpHooks struct {
	tel API
	seq atomic.Uint64
}

type attemptKey struct{}

type attempt struct {
	seq uint64
	// a monotonic reading is all that is needed here, chrono is for wall time
	started time.Time
}

func attemptOf(ctx context.Context) (attempt, bool) {
	a, ok := ctx.Value(attemptKey{}).(attempt)
	return a, ok
}

func (h *httpHooks) before(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	a, ok := attemptOf(ctx)
	if !ok {
		a.seq = h.seq.Add(1)
	}
	a.started = time.Now()
	req.SetContext(context.WithValue(ctx, attemptKey{}, a))

	h.tel.ReportDebug(report_http_attempt, a.seq, req.Attempt, req.Method, req.URL)
	return nil
}

func (h *httpHooks) after(_ *resty.Client, res *resty.Response) error {
	a, ok := attemptOf(res.Request.Context())
	if !ok {
		return nil
	}
	h.tel.ReportDebug(
		report_http_response,
		a.seq,
		res.StatusCode(),
		len(res.Body()),
		time.Since(a.started).Round(time.Millisecond).String(),
	)
	return nil
}

// failed runs once the client gives up, after every retry was spent.
func (h *httpHooks) failed(req *resty.Request, err error) {
	var took time.Duration
	a, ok := attemptOf(req.Context())
	if ok {
		took = time.Since(a.started)
	}
	h.tel.ReportWarning(
		report_http_error,
		err,
		req.Method,
		req.URL,
		req.Attempt,
		took.Round(time.Millisecond).String(),
	)
}
