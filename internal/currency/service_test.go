package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// memStore is an in-memory SettingsStore for tests.
type memStore struct {
	currency   string
	rates      map[string]float64
	updated    time.Time
	updatedErr error
}

func (m *memStore) DisplayCurrency(context.Context) (string, error) { return m.currency, nil }
func (m *memStore) SetDisplayCurrency(_ context.Context, code string) error {
	m.currency = code
	return nil
}
func (m *memStore) Rates(context.Context) (map[string]float64, error) { return m.rates, nil }
func (m *memStore) SetRates(_ context.Context, rates map[string]float64) error {
	m.rates = rates
	return nil
}
func (m *memStore) RatesUpdatedAt(context.Context) (time.Time, error) {
	return m.updated, m.updatedErr
}
func (m *memStore) SetRatesUpdatedAt(_ context.Context, t time.Time) error {
	m.updated = t
	return nil
}

func newTestService(t *testing.T, store *memStore, url string) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), store, Options{
		RatesURL:        url,
		DefaultCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceDefaults(t *testing.T) {
	svc := newTestService(t, &memStore{}, "")
	if got := svc.Current(); got != "USD" {
		t.Fatalf("default currency = %q, want USD", got)
	}
	for _, c := range Catalog() {
		if _, ok := svc.Rate(c.Code); !ok {
			t.Fatalf("no rate for catalog currency %s", c.Code)
		}
	}
}

func TestNewServiceLoadsPersistedState(t *testing.T) {
	store := &memStore{currency: "EUR", rates: map[string]float64{"USD": 1, "EUR": 0.5}}
	svc := newTestService(t, store, "")
	if got := svc.Current(); got != "EUR" {
		t.Fatalf("currency = %q, want persisted EUR", got)
	}
	if r, ok := svc.Rate("EUR"); !ok || r != 0.5 {
		t.Fatalf("EUR rate = %v %v, want cached 0.5", r, ok)
	}
}

func TestNewServiceTimestampLoadError(t *testing.T) {
	store := &memStore{updatedErr: errors.New("kv read failed")}
	_, err := NewService(context.Background(), store, Options{DefaultCurrency: "USD"})
	if err == nil {
		t.Fatal("NewService should fail when the rates timestamp cannot be read")
	}
	if !errors.Is(err, store.updatedErr) {
		t.Fatalf("NewService error = %v, want wrapped %v", err, store.updatedErr)
	}
}

func TestSetCurrency(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "")

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := svc.SetCurrency(context.Background(), "EUR"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}
	if store.currency != "EUR" {
		t.Fatalf("persisted currency = %q, want EUR", store.currency)
	}
	if len(events) != 1 || events[0].Kind != CurrencyChanged || events[0].Currency != "EUR" {
		t.Fatalf("events = %+v, want one CurrencyChanged(EUR)", events)
	}

	// selecting the current code again is a no-op
	if err := svc.SetCurrency(context.Background(), "EUR"); err != nil {
		t.Fatalf("repeat SetCurrency: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("no-op selection still notified: %+v", events)
	}

	if err := svc.SetCurrency(context.Background(), "XYZ"); err == nil {
		t.Fatalf("expected error for unknown code")
	}
}

func TestRefreshMergesOverFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// EUR overridden, JPY missing, XXX outside the catalog.
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.5,"XXX":9.9,"USD":1}}`))
	}))
	defer srv.Close()

	store := &memStore{}
	svc := newTestService(t, store, srv.URL)

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	outcome, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if outcome != OutcomeLive {
		t.Fatalf("outcome = %v, want OutcomeLive", outcome)
	}
	if r, _ := svc.Rate("EUR"); r != 0.5 {
		t.Fatalf("EUR = %v, want fetched 0.5", r)
	}
	if r, ok := svc.Rate("JPY"); !ok || r != FallbackRates()["JPY"] {
		t.Fatalf("JPY = %v %v, want fallback value", r, ok)
	}
	if _, ok := svc.Rate("XXX"); ok {
		t.Fatalf("non-catalog code XXX must be ignored")
	}
	if len(events) != 1 || events[0].Kind != RatesUpdated {
		t.Fatalf("events = %+v, want one RatesUpdated", events)
	}
	if store.rates == nil || store.updated.IsZero() {
		t.Fatalf("refresh result not persisted")
	}
	if svc.LastUpdate().IsZero() {
		t.Fatalf("LastUpdate not set")
	}
}

func TestRefreshFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{"empty rates", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"rates":{}}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			store := &memStore{}
			svc := newTestService(t, store, srv.URL)

			var events []Event
			svc.Subscribe(func(ev Event) { events = append(events, ev) })

			outcome, err := svc.Refresh(context.Background())
			if outcome != OutcomeFallback {
				t.Fatalf("outcome = %v, want OutcomeFallback", outcome)
			}
			if err == nil {
				t.Fatalf("expected the failure cause")
			}
			if r, _ := svc.Rate("EUR"); r != FallbackRates()["EUR"] {
				t.Fatalf("EUR = %v, want fallback applied wholesale", r)
			}
			if len(events) != 1 || events[0].Kind != RatesFallback {
				t.Fatalf("events = %+v, want one RatesFallback", events)
			}
			if svc.LastUpdate().IsZero() {
				t.Fatalf("fallback update must still stamp LastUpdate")
			}
		})
	}
}

func TestRefreshNoURLConfigured(t *testing.T) {
	svc := newTestService(t, &memStore{}, "")
	outcome, err := svc.Refresh(context.Background())
	if outcome != OutcomeFallback || err == nil {
		t.Fatalf("outcome=%v err=%v, want fallback with cause", outcome, err)
	}
}
