package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SettingsStore persists the user's display currency and the cached rate
// table. Implemented by the storage package.
type SettingsStore interface {
	DisplayCurrency(ctx context.Context) (string, error)
	SetDisplayCurrency(ctx context.Context, code string) error
	Rates(ctx context.Context) (map[string]float64, error)
	SetRates(ctx context.Context, rates map[string]float64) error
	RatesUpdatedAt(ctx context.Context) (time.Time, error)
	SetRatesUpdatedAt(ctx context.Context, t time.Time) error
}

// EventKind identifies a currency service change notification.
type EventKind int

const (
	// CurrencyChanged fires when the selected display currency changes.
	CurrencyChanged EventKind = iota
	// RatesUpdated fires after a refresh that applied remote rates.
	RatesUpdated
	// RatesFallback fires after a refresh that fell back to the static table.
	RatesFallback
)

// Event is delivered to subscribers on every service state change.
type Event struct {
	Kind     EventKind
	Currency string // selected code for CurrencyChanged, empty otherwise
}

// Outcome reports how a refresh concluded.
type Outcome int

const (
	OutcomeLive Outcome = iota
	OutcomeFallback
)

var ErrUnknownCurrency = errors.New("unknown currency code")

// Service tracks the selected display currency and the rate table. It is
// explicitly constructed and passed to its consumers; persisted state is
// loaded at construction and changes are pushed through a subscriber list.
type Service struct {
	store   SettingsStore
	httpc   *http.Client
	url     string
	logger  *slog.Logger
	group   singleflight.Group
	defCode string

	mu        sync.RWMutex
	current   string
	rates     map[string]float64
	updatedAt time.Time
	subs      []func(Event)
}

// Options configures a Service. Zero values get sensible defaults.
type Options struct {
	RatesURL        string
	DefaultCurrency string
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// NewService loads persisted state from store, defaulting to the static
// fallback table and the configured default currency when nothing is stored.
func NewService(ctx context.Context, store SettingsStore, opts Options) (*Service, error) {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = Pivot
	}
	if !Known(opts.DefaultCurrency) {
		return nil, fmt.Errorf("default currency %q: %w", opts.DefaultCurrency, ErrUnknownCurrency)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		store:   store,
		httpc:   opts.HTTPClient,
		url:     opts.RatesURL,
		logger:  opts.Logger,
		defCode: opts.DefaultCurrency,
	}

	current, err := store.DisplayCurrency(ctx)
	if err != nil {
		return nil, fmt.Errorf("load display currency: %w", err)
	}
	if !Known(current) {
		current = opts.DefaultCurrency
	}
	s.current = current

	rates, err := store.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cached rates: %w", err)
	}
	if len(rates) == 0 {
		rates = FallbackRates()
	}
	s.rates = rates

	ts, err := store.RatesUpdatedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates timestamp: %w", err)
	}
	s.updatedAt = ts

	return s, nil
}

// Subscribe registers fn for change notifications. Delivery is synchronous
// and in registration order; subscribers must not block.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Service) notify(ev Event) {
	s.mu.RLock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Current returns the selected display currency code.
func (s *Service) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrency selects and persists the display currency and notifies
// subscribers.
func (s *Service) SetCurrency(ctx context.Context, code string) error {
	if !Known(code) {
		return fmt.Errorf("set currency %q: %w", code, ErrUnknownCurrency)
	}
	s.mu.Lock()
	if s.current == code {
		s.mu.Unlock()
		return nil
	}
	s.current = code
	s.mu.Unlock()

	if err := s.store.SetDisplayCurrency(ctx, code); err != nil {
		return fmt.Errorf("persist display currency: %w", err)
	}
	s.notify(Event{Kind: CurrencyChanged, Currency: code})
	return nil
}

// Rate returns the units-per-USD rate for code.
func (s *Service) Rate(code string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rates[code]
	return r, ok
}

// LastUpdate returns when the rate table was last replaced, whether by a
// live fetch or by the fallback.
func (s *Service) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// rateDocument is the shape of the remote rate source response. Codes
// outside the catalog are ignored.
type rateDocument struct {
	Rates map[string]float64 `json:"rates"`
}

// Refresh fetches the remote rate document once. On success the fetched
// rates are merged over a complete fallback table, so a code missing from
// the response still has a usable rate. On any failure the fallback table is
// applied wholesale and OutcomeFallback is returned together with the cause.
// Concurrent callers are coalesced into a single fetch.
func (s *Service) Refresh(ctx context.Context) (Outcome, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		return s.refreshOnce(ctx), nil
	})
	if err != nil {
		return OutcomeFallback, err
	}
	res := v.(refreshResult)
	return res.outcome, res.err
}

// RefreshAsync runs Refresh on its own goroutine; callers are never blocked.
// The result is reported to subscribers and the log only.
func (s *Service) RefreshAsync(ctx context.Context) {
	go func() {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Warn("rate refresh fell back to static table", "error", err)
		}
	}()
}

type refreshResult struct {
	outcome Outcome
	err     error
}

func (s *Service) refreshOnce(ctx context.Context) refreshResult {
	table := FallbackRates()

	doc, err := s.fetch(ctx)
	outcome := OutcomeLive
	if err != nil {
		outcome = OutcomeFallback
	} else {
		merged := 0
		for code, rate := range doc.Rates {
			if _, ok := table[code]; ok && rate > 0 {
				table[code] = rate
				merged++
			}
		}
		s.logger.Info("exchange rates refreshed", "merged", merged)
	}

	now := time.Now()
	s.mu.Lock()
	s.rates = table
	s.updatedAt = now
	s.mu.Unlock()

	if perr := s.store.SetRates(ctx, table); perr != nil {
		s.logger.Warn("persist rate table failed", "error", perr)
	}
	if perr := s.store.SetRatesUpdatedAt(ctx, now); perr != nil {
		s.logger.Warn("persist rate timestamp failed", "error", perr)
	}

	if outcome == OutcomeLive {
		s.notify(Event{Kind: RatesUpdated})
		return refreshResult{outcome: OutcomeLive}
	}
	s.notify(Event{Kind: RatesFallback})
	return refreshResult{outcome: OutcomeFallback, err: err}
}

func (s *Service) fetch(ctx context.Context) (*rateDocument, error) {
	if s.url == "" {
		return nil, errors.New("no rates URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rates response: %w", err)
	}
	var doc rateDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(doc.Rates) == 0 {
		return nil, errors.New("rates response missing rates map")
	}
	return &doc, nil
}
