package telemetry

import "strings"

// API is what every component reports through instead of logging directly,
// tests swap it for a Recorder to assert on what was reported.
type API interface {
	// ReportBroken reports something an operator has to act on: a retailer
	// whose markup stopped matching, a history database that rejects writes,
	// an email setup that cannot send.
	//
	// `id` names the component and operation, `<component>.<operation>`
	// ("fetcher.fetch", "snapshot.write"), lowercase with dashes inside a
	// segment. It says where, params say what: pass the error first, then the
	// url or retailer it concerns.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is expected to happen now and then,
	// a blocked page or a listing whose detail page disagrees with it.
	ReportWarning(id string, params ...any)

	// ReportDebug is for tracing a run by hand, it is dropped unless -v is set.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge, ex. the number of items a retailer yielded
	// on the last run. Counts are points over time, never summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, each package scopes the API
// it is given to its own name so ids stay short at the call site.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	// scoping a scoped api nests the namespaces
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{namespace: scoped.qualify(namespace), inner: scoped.inner}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) qualify(id string) string {
	var b strings.Builder
	b.Grow(len(s.namespace) + len(id) + 2)
	b.WriteString(s.namespace)
	b.WriteString(": ")
	b.WriteString(id)
	return b.String()
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.qualify(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.qualify(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.qualify(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.qualify(id), count)
}
