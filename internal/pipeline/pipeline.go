// Package pipeline runs every retailer through fetch, extract, classify,
// filter, validate and authenticity checks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"tcgwatch/internal/authenticity"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/classify"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/extract"
	"tcgwatch/internal/fetcher"
	"tcgwatch/internal/filter"
	"tcgwatch/internal/validate"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

const (
	report_pipeline_retailer = "pipeline.retailer"
	report_pipeline_listing  = "pipeline.listing"
	report_pipeline_metrics  = "pipeline.metrics"
)

var (
	tracer = otel.Tracer("tcgwatch.pipeline")
	meter  = otel.Meter("tcgwatch.pipeline")
)

type Options struct {
	// Concurrency is how many retailers are checked at once, defaults to 1.
	Concurrency int
	// RunTimeout bounds a whole run, defaults to 10 minutes.
	RunTimeout time.Duration
	// RetailerTimeout bounds the check of a single retailer, defaults to 3 minutes.
	RetailerTimeout time.Duration
	// Profiles overrides the builtin profiles, keyed by retailer.
	Profiles map[catalog.Retailer]extract.Profile
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 10 * time.Minute
	}
	if o.RetailerTimeout <= 0 {
		o.RetailerTimeout = 3 * time.Minute
	}
	profiles := extract.BuiltinProfiles()
	for r, p := range o.Profiles {
		profiles[r] = p
	}
	o.Profiles = profiles
	return o
}

type Request struct {
	Retailers  []catalog.Retailer
	Thresholds catalog.Thresholds
}

type counters struct {
	extracted metric.Int64Counter
	dropped   metric.Int64Counter
	accepted  metric.Int64Counter
}

// Screen decides whether a validated item is a genuine sealed product,
// authenticity.Filter is the implementation used outside of tests.
type Screen interface {
	Check(item catalog.ValidatedItem) (authenticity.Gate, string)
}

type Pipeline struct {
	fetcher      fetcher.API
	validator    validate.Validator
	authenticity Screen
	opts         Options
	time         chrono.TimeAPI
	tel          telemetry.API
	counters     counters
}

func NewPipeline(
	f fetcher.API,
	auth Screen,
	opts Options,
	time chrono.TimeAPI,
	tel telemetry.API,
) *Pipeline {
	assert.NotNil(f)
	assert.NotNil(auth)
	assert.NotNil(time)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("pipeline", tel)
	return &Pipeline{
		fetcher:      f,
		validator:    validate.NewValidator(f, tel),
		authenticity: auth,
		opts:         opts.withDefaults(),
		time:         time,
		tel:          tel,
		counters:     newCounters(tel),
	}
}

func newCounters(tel telemetry.API) counters {
	c := counters{}
	var err error
	var noopMeter noop.Meter

	c.extracted, err = meter.Int64Counter(
		"tcgwatch.listings.extracted",
		metric.WithDescription("Listings extracted off retailer pages."),
	)
	if err != nil {
		tel.ReportBroken(report_pipeline_metrics, err)
		c.extracted, _ = noopMeter.Int64Counter("")
	}
	c.dropped, err = meter.Int64Counter(
		"tcgwatch.listings.dropped",
		metric.WithDescription("Listings dropped by any stage of the pipeline."),
	)
	if err != nil {
		tel.ReportBroken(report_pipeline_metrics, err)
		c.dropped, _ = noopMeter.Int64Counter("")
	}
	c.accepted, err = meter.Int64Counter(
		"tcgwatch.items.accepted",
		metric.WithDescription("Items in stock at retail price that passed every check."),
	)
	if err != nil {
		tel.ReportBroken(report_pipeline_metrics, err)
		c.accepted, _ = noopMeter.Int64Counter("")
	}
	return c
}

func (p *Pipeline) validateRequest(req Request) error {
	if len(req.Retailers) == 0 {
		return fmt.Errorf("no retailers to check")
	}
	for _, r := range req.Retailers {
		profile, ok := p.opts.Profiles[r]
		if !ok {
			return fmt.Errorf("no profile for retailer %q", r)
		}
		err := profile.Validate()
		if err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}
	}
	return nil
}

// Run checks every retailer of the request. A retailer that fails only ever
// contributes zero items, the returned error is reserved for requests that
// cannot be run at all. Items are returned in the order of req.Retailers.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	err := p.validateRequest(req)
	if err != nil {
		return Result{}, err
	}

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, p.opts.RunTimeout)
	defer cancel()

	result := Result{StartedAt: p.time.Now()}

	type retailerResult struct {
		items      []catalog.ValidatedItem
		rejections []authenticity.Rejection
		report     RetailerReport
	}
	slots := make([]retailerResult, len(req.Retailers))

	group := errgroup.Group{}
	group.SetLimit(p.opts.Concurrency)
	for i, retailer := range req.Retailers {
		group.Go(func() error {
			items, rejections, report := p.checkRetailer(ctx, retailer, req.Thresholds)
			slots[i] = retailerResult{items: items, rejections: rejections, report: report}
			return nil
		})
	}
	// every retailer isolates its own failures
	_ = group.Wait()

	for _, slot := range slots {
		result.Items = append(result.Items, slot.items...)
		result.Rejections = append(result.Rejections, slot.rejections...)
		result.Reports = append(result.Reports, slot.report)
	}
	result.FinishedAt = p.time.Now()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.tel.ReportWarning(report_pipeline_retailer, fmt.Errorf("run exceeded %s", p.opts.RunTimeout))
	}
	return result, nil
}

func (p *Pipeline) checkRetailer(
	ctx context.Context,
	retailer catalog.Retailer,
	thresholds catalog.Thresholds,
) ([]catalog.ValidatedItem, []authenticity.Rejection, RetailerReport) {
	start := time.Now()
	profile := p.opts.Profiles[retailer]
	report := RetailerReport{Retailer: retailer}
	attrs := metric.WithAttributes(attribute.String("retailer", string(retailer)))

	ctx, span := tracer.Start(ctx, "CheckRetailer")
	defer span.End()
	span.SetAttributes(attribute.String("retailer", string(retailer)))

	ctx, cancel := context.WithTimeout(ctx, p.opts.RetailerTimeout)
	defer cancel()

	p.tel.ReportDebug("checking retailer", retailer.StoreName(), profile.ListingURL)

	markup, ok := p.fetcher.Fetch(ctx, profile.ListingURL)
	if !ok {
		p.tel.ReportWarning(
			report_pipeline_retailer,
			fmt.Errorf("listing page unavailable, zero listings this run"),
			retailer,
		)
		report.Duration = time.Since(start)
		return nil, nil, report
	}
	report.Fetched = true

	var kept []catalog.ValidatedItem
	var rejections []authenticity.Rejection
	for extracted := range extract.Extract(markup, profile) {
		if extracted.Skipped() {
			report.Dropped = append(report.Dropped, Outcome{Stage: StageExtract, Reason: extracted.Skip})
			p.counters.dropped.Add(ctx, 1, attrs)
			continue
		}
		report.Extracted++
		p.counters.extracted.Add(ctx, 1, attrs)

		res := p.processListing(ctx, extracted.Listing, profile, thresholds)
		if res.rejection != nil {
			rejections = append(rejections, *res.rejection)
		}
		if !res.ok {
			report.Dropped = append(report.Dropped, res.outcome)
			p.counters.dropped.Add(ctx, 1, attrs)
			continue
		}
		kept = append(kept, res.item)
	}

	report.Accepted = len(kept)
	report.Duration = time.Since(start)
	p.counters.accepted.Add(ctx, int64(len(kept)), attrs)
	span.SetAttributes(
		attribute.Int("extracted", report.Extracted),
		attribute.Int("accepted", report.Accepted),
	)

	p.tel.ReportDebug(
		"retailer checked",
		retailer.StoreName(),
		fmt.Sprintf("%d extracted", report.Extracted),
		fmt.Sprintf("%d accepted", report.Accepted),
		report.Duration.String(),
	)
	return kept, rejections, report
}

// Normalize turns a raw listing into a candidate.
func Normalize(listing catalog.RawListing, rule catalog.StockRule) (catalog.Candidate, error) {
	price, ok := catalog.ParsePrice(listing.PriceText)
	if !ok {
		return catalog.Candidate{}, fmt.Errorf("unparseable price %q", listing.PriceText)
	}
	return catalog.Candidate{
		Name:     listing.Name,
		Price:    price,
		URL:      listing.URL,
		Retailer: listing.Retailer,
		Category: classify.Classify(listing.Name),
		InStock:  filter.InStock(rule, listing.StockText),
	}, nil
}

type listingResult struct {
	item    catalog.ValidatedItem
	outcome Outcome
	// rejection is set when the authenticity screen turned the item down.
	rejection *authenticity.Rejection
	ok        bool
}

// processListing takes a single listing through every stage after
// extraction. A panic in any of them only drops this listing.
func (p *Pipeline) processListing(
	ctx context.Context,
	listing catalog.RawListing,
	profile extract.Profile,
	thresholds catalog.Thresholds,
) (res listingResult) {
	res.outcome = Outcome{Name: listing.Name, URL: listing.URL}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p.tel.ReportBroken(
			report_pipeline_listing,
			fmt.Errorf("panic: %v", r),
			listing.Name,
			listing.URL,
			string(debug.Stack()),
		)
		res = listingResult{
			outcome: Outcome{
				Name:   listing.Name,
				URL:    listing.URL,
				Stage:  StagePanic,
				Reason: fmt.Sprint(r),
			},
		}
	}()

	candidate, err := Normalize(listing, profile.Stock)
	if err != nil {
		res.outcome.Stage = StageNormalize
		res.outcome.Reason = err.Error()
		return res
	}

	reason := filter.Explain(candidate, thresholds)
	if reason != "" {
		p.tel.ReportDebug("listing filtered", candidate.Name, reason)
		res.outcome.Stage = StageFilter
		res.outcome.Reason = reason
		return res
	}

	verdict := p.validator.Validate(ctx, candidate, profile.Title)
	if !verdict.OK {
		res.outcome.Stage = StageValidate
		res.outcome.Reason = verdict.Reason
		return res
	}

	item := catalog.ValidatedItem{Candidate: candidate, Validated: true}
	gate, reason := p.authenticity.Check(item)
	if gate != authenticity.GateNone {
		p.tel.ReportDebug("listing not authentic", item.Name, gate.String(), reason)
		res.outcome.Stage = StageAuthenticity
		res.outcome.Reason = fmt.Sprintf("%s: %s", gate, reason)
		res.rejection = &authenticity.Rejection{Item: item, Gate: gate, Reason: reason}
		return res
	}

	res.item = item
	res.ok = true
	return res
}
