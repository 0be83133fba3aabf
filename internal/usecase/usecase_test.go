package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/history"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/util"
)

type fakeArchive struct {
	mu     sync.Mutex
	stored []models.DaySnapshot
	ranged []models.DaySnapshot
	failOn string
}

func (f *fakeArchive) Store(_ context.Context, day models.DaySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && day.Date == f.failOn {
		return context.DeadlineExceeded
	}
	f.stored = append(f.stored, day)
	return nil
}

func (f *fakeArchive) LoadRange(_ context.Context, from, to string) ([]models.DaySnapshot, error) {
	out := make([]models.DaySnapshot, 0, len(f.ranged))
	for _, d := range f.ranged {
		if d.Date >= from && d.Date <= to {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []models.DaySnapshot
}

func (f *fakePublisher) Publish(_ context.Context, day models.DaySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, day)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu        sync.Mutex
	snapshots map[string]int
	errors    map[string]int
	composite int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{snapshots: make(map[string]int), errors: make(map[string]int)}
}

func (f *fakeMetrics) RecordSnapshot(path string) {
	f.mu.Lock()
	f.snapshots[path]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordComposite(score int) {
	f.mu.Lock()
	f.composite = score
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordLatency(string, float64) {}

type fakeNotifier struct {
	mu   sync.Mutex
	seen []models.DaySnapshot
}

func (f *fakeNotifier) NotifySnapshot(day models.DaySnapshot) {
	f.mu.Lock()
	f.seen = append(f.seen, day)
	f.mu.Unlock()
}

func fptr(v float64) *float64 { return &v }

func newRecorder(t *testing.T) (*SnapshotRecorder, *history.Store, *fakeArchive, *fakePublisher, *fakeMetrics) {
	t.Helper()
	loc, err := util.LoadLocation("")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	store := history.NewStore()
	arch := &fakeArchive{}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	return NewSnapshotRecorder(store, arch, pub, m, loc), store, arch, pub, m
}

func TestRecordLiveFansOut(t *testing.T) {
	rec, store, arch, pub, m := newRecorder(t)
	notif := &fakeNotifier{}
	rec.SetNotifier(notif)

	day, err := rec.RecordLive(context.Background(), models.RecordRequest{
		Date:      "2026-03-02",
		Sentiment: fptr(70),
	})
	if err != nil {
		t.Fatalf("record live: %v", err)
	}
	if day.Composite != 70 {
		t.Fatalf("composite = %d, want 70", day.Composite)
	}

	if got, ok := store.Get("2026-03-02"); !ok || got.Composite != 70 {
		t.Fatalf("store entry = %+v ok=%v", got, ok)
	}
	if len(arch.stored) != 1 || arch.stored[0].Date != "2026-03-02" {
		t.Fatalf("archive stored = %+v", arch.stored)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(pub.published))
	}
	if len(notif.seen) != 1 {
		t.Fatalf("notified = %d snapshots, want 1", len(notif.seen))
	}
	if m.snapshots["live"] != 1 || m.composite != 70 {
		t.Fatalf("metrics = %+v composite=%d", m.snapshots, m.composite)
	}
}

func TestRecordLiveDefaultsDate(t *testing.T) {
	rec, store, _, _, _ := newRecorder(t)

	day, err := rec.RecordLive(context.Background(), models.RecordRequest{Sentiment: fptr(50)})
	if err != nil {
		t.Fatalf("record live: %v", err)
	}
	loc, _ := util.LoadLocation("")
	want := util.DateKey(time.Now(), loc)
	if day.Date != want {
		t.Fatalf("date = %q, want today %q", day.Date, want)
	}
	if _, ok := store.Get(want); !ok {
		t.Fatalf("today missing from store")
	}
}

func TestRecordLiveRejectsBadDate(t *testing.T) {
	rec, _, _, _, m := newRecorder(t)

	if _, err := rec.RecordLive(context.Background(), models.RecordRequest{Date: "03/02/2026"}); err == nil {
		t.Fatalf("expected error for malformed date")
	}
	if m.errors["record_live"] != 1 {
		t.Fatalf("errors = %+v", m.errors)
	}
}

func TestRecordLiveDerivesChangesFromSeries(t *testing.T) {
	rec, _, _, _, _ := newRecorder(t)

	day, err := rec.RecordLive(context.Background(), models.RecordRequest{
		Date: "2026-03-02",
		LongRateSeries: []models.PricePoint{
			{Timestamp: 1, Price: fptr(4.0)},
			{Timestamp: 2, Price: fptr(4.12)},
		},
	})
	if err != nil {
		t.Fatalf("record live: %v", err)
	}
	if day.LongRateChange == nil || *day.LongRateChange != 3.0 {
		t.Fatalf("longRateChange = %v, want 3.0", day.LongRateChange)
	}
}

func TestRecordLiveDirectChangeWinsOverSeries(t *testing.T) {
	rec, _, _, _, _ := newRecorder(t)

	day, err := rec.RecordLive(context.Background(), models.RecordRequest{
		Date:           "2026-03-02",
		DollarChange:   fptr(-0.5),
		DollarSeries:   []models.PricePoint{{Timestamp: 1, Price: fptr(100)}, {Timestamp: 2, Price: fptr(110)}},
		LongRateChange: fptr(0),
	})
	if err != nil {
		t.Fatalf("record live: %v", err)
	}
	if day.DollarChange == nil || *day.DollarChange != -0.5 {
		t.Fatalf("dollarChange = %v, want -0.5 (direct field wins)", day.DollarChange)
	}
}

func TestRecordLiveSurvivesArchiveFailure(t *testing.T) {
	rec, store, arch, _, m := newRecorder(t)
	arch.failOn = "2026-03-02"

	if _, err := rec.RecordLive(context.Background(), models.RecordRequest{Date: "2026-03-02", Sentiment: fptr(60)}); err != nil {
		t.Fatalf("record live should not fail on archive error: %v", err)
	}
	if _, ok := store.Get("2026-03-02"); !ok {
		t.Fatalf("store write must survive archive failure")
	}
	if m.errors["archive_store"] != 1 {
		t.Fatalf("errors = %+v", m.errors)
	}
}

func TestBackfillInsertsOnlyMissing(t *testing.T) {
	loc, _ := util.LoadLocation("")
	store := history.NewStore()
	arch := &fakeArchive{}
	m := newFakeMetrics()
	store.RecordLive("2026-03-02", models.SignalInputs{Sentiment: fptr(80)})

	bf := NewBackfiller(store, arch, m, loc, 120)
	inserted, err := bf.Backfill(context.Background(), []models.DaySnapshot{
		{Date: "2026-03-01", Composite: 44, MarketOpen: true},
		{Date: "2026-03-02", Composite: 10, MarketOpen: true}, // live entry must win
	})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}
	if day, _ := store.Get("2026-03-02"); day.Composite != 80 {
		t.Fatalf("live entry overwritten by backfill: %+v", day)
	}
	if len(arch.stored) != 1 || arch.stored[0].Date != "2026-03-01" {
		t.Fatalf("archive should only see inserted days: %+v", arch.stored)
	}
	if m.snapshots["backfill"] != 1 || m.snapshots["backfill_skipped"] != 1 {
		t.Fatalf("metrics = %+v", m.snapshots)
	}
}

func TestBackfillNormalizesClosedDays(t *testing.T) {
	loc, _ := util.LoadLocation("")
	store := history.NewStore()
	bf := NewBackfiller(store, nil, newFakeMetrics(), loc, 120)

	_, err := bf.Backfill(context.Background(), []models.DaySnapshot{
		{Date: "2026-03-01", Composite: 77, Sentiment: fptr(90), MarketOpen: false},
	})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	day, _ := store.Get("2026-03-01")
	if day.Composite != models.NeutralComposite || day.Sentiment != nil {
		t.Fatalf("closed day not normalized: %+v", day)
	}
}

func TestBackfillRejectsBadDate(t *testing.T) {
	loc, _ := util.LoadLocation("")
	bf := NewBackfiller(history.NewStore(), nil, newFakeMetrics(), loc, 120)

	if _, err := bf.Backfill(context.Background(), []models.DaySnapshot{{Date: "yesterday"}}); err == nil {
		t.Fatalf("expected error for malformed date key")
	}
}

func TestWarmFromArchive(t *testing.T) {
	loc, _ := util.LoadLocation("")
	store := history.NewStore()
	m := newFakeMetrics()

	today := util.DateKey(time.Now(), loc)
	yesterday := util.AddDays(today, -1)
	arch := &fakeArchive{ranged: []models.DaySnapshot{
		{Date: yesterday, Composite: 61, MarketOpen: true},
		{Date: today, Composite: 55, MarketOpen: true},
	}}
	store.RecordLive(today, models.SignalInputs{Sentiment: fptr(90)})

	bf := NewBackfiller(store, arch, m, loc, 120)
	if err := bf.WarmFromArchive(context.Background()); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if day, _ := store.Get(yesterday); day.Composite != 61 {
		t.Fatalf("yesterday not warmed: %+v", day)
	}
	if day, _ := store.Get(today); day.Composite != 90 {
		t.Fatalf("live today must not be replaced by archive: %+v", day)
	}
	if m.snapshots["warm"] != 1 {
		t.Fatalf("metrics = %+v", m.snapshots)
	}
}

func TestRetentionPrune(t *testing.T) {
	loc, _ := util.LoadLocation("")
	store := history.NewStore()
	today := util.DateKey(time.Now(), loc)

	store.RecordLive(util.AddDays(today, -500), models.SignalInputs{})
	store.RecordLive(util.AddDays(today, -10), models.SignalInputs{})
	store.RecordLive(today, models.SignalInputs{})

	ret := NewRetention(store, newFakeMetrics(), loc, 400)
	if removed := ret.Prune(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if store.Len() != 2 {
		t.Fatalf("len = %d, want 2", store.Len())
	}
	if _, ok := store.Get(util.AddDays(today, -500)); ok {
		t.Fatalf("stale entry survived prune")
	}
}

func TestSignalsHandlerLive(t *testing.T) {
	rec, store, _, _, _ := newRecorder(t)
	loc, _ := util.LoadLocation("")
	bf := NewBackfiller(store, nil, newFakeMetrics(), loc, 120)
	reader := NewHistoryReader(store, nil, time.Hour, newFakeMetrics())
	h := NewSignalsHandler("marketpulse.signals", rec, bf, reader)

	if h.Topic() != "marketpulse.signals" {
		t.Fatalf("topic = %q", h.Topic())
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"kind": "live",
		"live": map[string]interface{}{"date": "2026-03-02", "sentiment": 70},
	})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle live: %v", err)
	}
	if day, ok := store.Get("2026-03-02"); !ok || day.Composite != 70 {
		t.Fatalf("live signal not recorded: %+v", day)
	}
}

func TestSignalsHandlerBackfill(t *testing.T) {
	rec, store, _, _, _ := newRecorder(t)
	loc, _ := util.LoadLocation("")
	bf := NewBackfiller(store, nil, newFakeMetrics(), loc, 120)
	reader := NewHistoryReader(store, nil, time.Hour, newFakeMetrics())
	h := NewSignalsHandler("marketpulse.signals", rec, bf, reader)

	payload, _ := json.Marshal(map[string]interface{}{
		"kind": "backfill",
		"days": []map[string]interface{}{
			{"date": "2026-02-27", "composite": 48, "marketOpen": true},
		},
	})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle backfill: %v", err)
	}
	if day, ok := store.Get("2026-02-27"); !ok || day.Composite != 48 {
		t.Fatalf("backfill signal not applied: %+v", day)
	}
}

func TestSignalsHandlerRejectsGarbage(t *testing.T) {
	rec, store, _, _, _ := newRecorder(t)
	loc, _ := util.LoadLocation("")
	bf := NewBackfiller(store, nil, newFakeMetrics(), loc, 120)
	reader := NewHistoryReader(store, nil, time.Hour, newFakeMetrics())
	h := NewSignalsHandler("marketpulse.signals", rec, bf, reader)

	for _, payload := range []string{`not json`, `{"kind":"unknown"}`, `{"kind":"live"}`, `{"kind":"backfill"}`} {
		if err := h.Handle(context.Background(), []byte(payload)); err == nil {
			t.Fatalf("expected error for payload %s", payload)
		}
	}
}

func TestHistoryReaderRange(t *testing.T) {
	store := history.NewStore()
	store.RecordLive("2026-03-02", models.SignalInputs{Sentiment: fptr(70)})
	reader := NewHistoryReader(store, nil, time.Hour, newFakeMetrics())

	days, err := reader.Range(context.Background(), "2026-03-01", "2026-03-03")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3", len(days))
	}
	if days[0].MarketOpen || days[2].MarketOpen {
		t.Fatalf("missing days must be closed placeholders: %+v", days)
	}
	if days[1].Composite != 70 {
		t.Fatalf("recorded day = %+v", days[1])
	}

	if _, err := reader.Range(context.Background(), "2026-03-03", "2026-03-01"); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestHistoryReaderServesCachedRangeUntilInvalidated(t *testing.T) {
	store := history.NewStore()
	store.RecordLive("2026-03-02", models.SignalInputs{Sentiment: fptr(70)})
	reader := NewHistoryReader(store, cache.NewMemoryCache(), time.Hour, newFakeMetrics())

	ctx := context.Background()
	first, err := reader.Range(ctx, "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if first[0].Composite != 70 {
		t.Fatalf("first read = %+v", first[0])
	}

	// A write that bypasses invalidation must not show up yet.
	store.RecordLive("2026-03-02", models.SignalInputs{Sentiment: fptr(10)})
	cached, err := reader.Range(ctx, "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if cached[0].Composite != 70 {
		t.Fatalf("expected cached composite 70, got %d", cached[0].Composite)
	}

	reader.Invalidate(ctx)
	fresh, err := reader.Range(ctx, "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if fresh[0].Composite != 10 {
		t.Fatalf("expected fresh composite 10 after invalidate, got %d", fresh[0].Composite)
	}
}
