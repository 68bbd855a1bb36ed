package analysis

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"kotvukai/internal/adapter"
	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
)

// Extractor requests AI analyses per symbol and caches the settled result.
// At most one request per symbol is outstanding at any time.
type Extractor struct {
	ai   domain.AIService
	lang Lang
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup

	mu      sync.RWMutex
	epoch   uint64
	records map[string]domain.AnalysisRecord
	pending map[string]struct{}
}

// flight identifies one in-flight request. Results of flights started before
// the last Reset are returned to their callers but never stored.
type flight struct {
	symbol string
	epoch  uint64
}

func (f flight) key() string {
	return strconv.FormatUint(f.epoch, 10) + "/" + f.symbol
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithTTL lets cached records expire. Zero keeps them for the process lifetime.
func WithTTL(ttl time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

func WithLang(lang Lang) ExtractorOption {
	return func(e *Extractor) {
		e.lang = lang
	}
}

func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor creates an empty analysis cache backed by ai
func NewExtractor(ai domain.AIService, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ai:      ai,
		lang:    LangRU,
		now:     time.Now,
		records: make(map[string]domain.AnalysisRecord),
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// freshLocked reports whether a usable record is cached for symbol
func (e *Extractor) freshLocked(symbol string) (domain.AnalysisRecord, bool) {
	rec, ok := e.records[symbol]
	if !ok {
		return rec, false
	}
	if e.ttl > 0 && e.now().Sub(rec.CompletedAt) >= e.ttl {
		return rec, false
	}
	return rec, true
}

// RequestAnalysis starts a background analysis for the ticker's symbol. It is
// a no-op, returning false, when a record is cached or a request is in flight.
func (e *Extractor) RequestAnalysis(ctx context.Context, ticker domain.Ticker, fearGreed *int) bool {
	symbol := normalizeSymbol(ticker.Symbol)
	ticker.Symbol = symbol

	e.mu.Lock()
	if _, ok := e.freshLocked(symbol); ok {
		e.mu.Unlock()
		return false
	}
	if _, ok := e.pending[symbol]; ok {
		e.mu.Unlock()
		return false
	}
	e.pending[symbol] = struct{}{}
	f := flight{symbol: symbol, epoch: e.epoch}
	e.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	e.wg.Add(1)
	ch := e.group.DoChan(f.key(), func() (any, error) {
		return e.run(bg, f, ticker, fearGreed), nil
	})
	go func() {
		defer e.wg.Done()
		<-ch
	}()
	return true
}

// Analyze returns the cached record for the symbol, or performs the request
// and waits for it. Concurrent callers share one in-flight request.
func (e *Extractor) Analyze(ctx context.Context, ticker domain.Ticker, fearGreed *int) domain.AnalysisRecord {
	symbol := normalizeSymbol(ticker.Symbol)
	ticker.Symbol = symbol

	e.mu.Lock()
	if rec, ok := e.freshLocked(symbol); ok {
		e.mu.Unlock()
		return rec
	}
	e.pending[symbol] = struct{}{}
	f := flight{symbol: symbol, epoch: e.epoch}
	e.mu.Unlock()

	v, _, _ := e.group.Do(f.key(), func() (any, error) {
		return e.run(context.WithoutCancel(ctx), f, ticker, fearGreed), nil
	})
	return v.(domain.AnalysisRecord)
}

func (e *Extractor) run(ctx context.Context, f flight, ticker domain.Ticker, fearGreed *int) domain.AnalysisRecord {
	symbol := f.symbol

	// A request that settled just before this flight started already filled the cache
	e.mu.RLock()
	rec, ok := e.freshLocked(symbol)
	e.mu.RUnlock()
	if ok {
		e.clearPending(f)
		return rec
	}

	requestedAt := e.now()
	prompt := BuildPrompt(SnapshotFromTicker(ticker, fearGreed), e.lang)
	text, err := e.ai.Complete(ctx, AnalysisSystemPrompt(e.lang), prompt)

	rec = domain.AnalysisRecord{
		Symbol:      symbol,
		RequestedAt: requestedAt,
	}
	if err != nil {
		rec.RawText = e.failureText(err)
		rec.Direction = domain.DirectionUnknown
		rec.Failed = true
		logger.Warn(ctx, "Analysis request failed", "symbol", symbol, "error", err)
	} else {
		rec.RawText = text
		rec.Direction = Classify(text)
		logger.Info(ctx, "Analysis stored", "symbol", symbol, "direction", rec.Direction)
	}
	rec.CompletedAt = e.now()

	e.mu.Lock()
	if f.epoch == e.epoch {
		e.records[symbol] = rec
		delete(e.pending, symbol)
	} else {
		logger.Debug(ctx, "Discarding analysis settled after reset", "symbol", symbol)
	}
	e.mu.Unlock()

	return rec
}

func (e *Extractor) clearPending(f flight) {
	e.mu.Lock()
	if f.epoch == e.epoch {
		delete(e.pending, f.symbol)
	}
	e.mu.Unlock()
}

func (e *Extractor) failureText(err error) string {
	t := textsFor(e.lang)

	var apiErr *adapter.APIError
	switch {
	case errors.As(err, &apiErr):
		return t.apiError + apiErr.Message
	case errors.Is(err, adapter.ErrEmptyCompletion):
		return t.emptyReply
	default:
		return t.connError + err.Error()
	}
}

// Lookup returns the cached record for symbol, ignoring expired ones
func (e *Extractor) Lookup(symbol string) (domain.AnalysisRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.freshLocked(normalizeSymbol(symbol))
}

// Pending reports whether a request for symbol is in flight
func (e *Extractor) Pending(symbol string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pending[normalizeSymbol(symbol)]
	return ok
}

// PendingSymbols lists symbols with a request in flight, sorted
func (e *Extractor) PendingSymbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.pending))
	for s := range e.pending {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Records returns all usable records, oldest first
func (e *Extractor) Records() []domain.AnalysisRecord {
	e.mu.RLock()
	out := make([]domain.AnalysisRecord, 0, len(e.records))
	for symbol := range e.records {
		if rec, ok := e.freshLocked(symbol); ok {
			out = append(out, rec)
		}
	}
	e.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.AnalysisRecord) int {
		if c := a.CompletedAt.Compare(b.CompletedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return out
}

// Count is the number of analyzed symbols
func (e *Extractor) Count() int {
	return len(e.Records())
}

// Reset starts a new session: cached records and the pending set are
// dropped, and requests still in flight settle without being stored.
func (e *Extractor) Reset() {
	e.mu.Lock()
	e.epoch++
	clear(e.records)
	clear(e.pending)
	e.mu.Unlock()
}

// Wait blocks until every background request has settled
func (e *Extractor) Wait() {
	e.wg.Wait()
}
