package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPINests(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("validate", NewScopedAPI("pipeline", rec))

	tel.ReportBroken("detail.fetch", errors.New("timeout"))
	tel.ReportCount("items", 3)

	reports := rec.Reports()
	require.Len(t, reports, 2)
	require.Equal(t, "pipeline.validate: detail.fetch", reports[0].ID)
	require.Equal(t, LevelBroken, reports[0].Level)
	require.Equal(t, "pipeline.validate: items", reports[1].ID)
	require.EqualValues(t, 3, reports[1].Count)
}

func TestInstrumentResty(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	rec := NewRecorder()
	client := resty.New().
		SetRetryCount(1).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r.StatusCode() == http.StatusServiceUnavailable
		})
	InstrumentResty(client, rec)

	_, err := client.R().Get(srv.URL)
	require.NoError(t, err)

	attempts := rec.Find(LevelDebug, report_http_attempt)
	require.Len(t, attempts, 2)
	// retries keep the sequence number of the first attempt
	require.Equal(t, attempts[0].Params[0], attempts[1].Params[0])

	responses := rec.Find(LevelDebug, report_http_response)
	require.NotEmpty(t, responses)
	last := responses[len(responses)-1]
	require.Equal(t, http.StatusOK, last.Params[1])
	require.Equal(t, len("<html>ok</html>"), last.Params[2])
}

func TestInstrumentRestyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, rec.Find(LevelWarning, report_http_error), 1)
}

func TestSlogAPI(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tel := NewScopedAPI("fetcher", NewSlogAPI(logger))

	tel.ReportBroken("client.fetch", errors.New("blocked"), "https://www.target.com")
	out := buf.String()
	require.Contains(t, out, `id="fetcher: client.fetch"`)
	require.Contains(t, out, "err=blocked")
	require.Contains(t, out, "p1=https://www.target.com")
}
