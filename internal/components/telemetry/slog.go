package telemetry

import (
	"log/slog"
	"strconv"
)

// SlogAPI implements API on top of log/slog.
type SlogAPI struct {
	logger *slog.Logger
}

// NewSlogAPI creates a SlogAPI writing to the given logger, a nil logger means slog.Default().
func NewSlogAPI(logger *slog.Logger) SlogAPI {
	return SlogAPI{logger: logger}
}

func (s SlogAPI) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// attrs turns report params into key/value pairs, errors are logged under
// "err" and everything else under its position.
func attrs(id string, params []any) []any {
	out := make([]any, 0, 2*len(params)+2)
	if id != "" {
		out = append(out, "id", id)
	}
	for i, p := range params {
		if err, ok := p.(error); ok {
			out = append(out, "err", err)
			continue
		}
		out = append(out, "p"+strconv.Itoa(i), p)
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.log().Error("broken", attrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.log().Warn("warning", attrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.log().Debug(message, attrs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.log().Info("count", "id", id, "n", count)
}
