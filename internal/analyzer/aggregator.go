// Package analyzer folds validated access records into summary statistics.
package analyzer

import (
	"errors"
	"iter"

	"github.com/access-log-analyzer/backend/internal/models"
)

// ErrNoValidRecords is returned by Result when no record was added. The
// accompanying stats are the all-zero value with empty tables.
var ErrNoValidRecords = errors.New("no valid records to analyze")

// DefaultTopN is the number of error IPs reported when Config leaves it unset.
const DefaultTopN = 5

// Config holds the aggregation settings.
type Config struct {
	// TopN bounds the top error IP table. Zero means DefaultTopN; a negative
	// value disables the table.
	TopN int
}

func (c Config) topN() int {
	if c.TopN == 0 {
		return DefaultTopN
	}
	return c.TopN
}

// Aggregator accumulates records incrementally. Records are not retained;
// memory grows with the number of distinct keys only.
// It is not safe for concurrent use.
type Aggregator struct {
	cfg Config

	total  int
	errors int

	statusCodes *Counter[int]
	errorCodes  *Counter[int]
	methods     *Counter[string]
	errorByReq  *Counter[string]
	ips         *Counter[string]
	errorIPs    *Counter[string]
}

// New creates an empty aggregator.
func New(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:         cfg,
		statusCodes: NewCounter[int](),
		errorCodes:  NewCounter[int](),
		methods:     NewCounter[string](),
		errorByReq:  NewCounter[string](),
		ips:         NewCounter[string](),
		errorIPs:    NewCounter[string](),
	}
}

// Add folds one record into the running totals.
func (a *Aggregator) Add(rec models.AccessRecord) {
	a.total++
	a.statusCodes.Add(rec.ErrorCode)
	a.methods.Add(rec.RequestType)
	a.ips.Add(rec.IPAddress)

	if !rec.IsError {
		return
	}
	a.errors++
	a.errorCodes.Add(rec.ErrorCode)
	a.errorByReq.Add(rec.RequestType)
	a.errorIPs.Add(rec.IPAddress)
}

// Merge folds other into a. Merging aggregators built over consecutive
// chunks, in chunk order, gives the same result as one sequential pass.
func (a *Aggregator) Merge(other *Aggregator) {
	a.total += other.total
	a.errors += other.errors
	a.statusCodes.Merge(other.statusCodes)
	a.errorCodes.Merge(other.errorCodes)
	a.methods.Merge(other.methods)
	a.errorByReq.Merge(other.errorByReq)
	a.ips.Merge(other.ips)
	a.errorIPs.Merge(other.errorIPs)
}

// Total returns the number of records added so far.
func (a *Aggregator) Total() int {
	return a.total
}

// Result builds the statistics. With no records it returns the empty stats
// together with ErrNoValidRecords.
func (a *Aggregator) Result() (models.AnalysisStats, error) {
	if a.total == 0 {
		return models.EmptyAnalysisStats(), ErrNoValidRecords
	}

	return models.AnalysisStats{
		TotalRequests:           a.total,
		ErrorRequests:           a.errors,
		SuccessRequests:         a.total - a.errors,
		ErrorPercentage:         percentage(a.errors, a.total),
		StatusCodeDistribution:  codeCounts(Ranked(a.statusCodes.Entries())),
		ErrorCodeDistribution:   codeCounts(Ranked(a.errorCodes.Entries())),
		TopErrorIPs:             keyCounts(TopN(a.errorIPs.Entries(), a.cfg.topN())),
		RequestTypeDistribution: keyCounts(Ranked(a.methods.Entries())),
		ErrorByRequest:          keyCounts(Ranked(a.errorByReq.Entries())),
		UniqueIPs:               a.ips.Len(),
		UniqueErrorIPs:          a.errorIPs.Len(),
	}, nil
}

// Analyze aggregates every record of seq in one pass.
func Analyze(cfg Config, seq iter.Seq[models.AccessRecord]) (models.AnalysisStats, error) {
	agg := New(cfg)
	for rec := range seq {
		agg.Add(rec)
	}
	return agg.Result()
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func codeCounts(entries []Entry[int]) []models.CodeCount {
	out := make([]models.CodeCount, len(entries))
	for i, e := range entries {
		out[i] = models.CodeCount{Code: e.Key, Count: e.Count}
	}
	return out
}

func keyCounts(entries []Entry[string]) []models.KeyCount {
	out := make([]models.KeyCount, len(entries))
	for i, e := range entries {
		out[i] = models.KeyCount{Key: e.Key, Count: e.Count}
	}
	return out
}
