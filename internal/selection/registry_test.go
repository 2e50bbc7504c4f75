package selection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"capital-risk/internal/config"
	"capital-risk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, store Store) *Registry {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	r, err := NewRegistry(context.Background(), store, DefaultLimits(), nil)
	require.NoError(t, err)
	return r
}

func ild(id int) model.SelectedItem      { return model.SelectedItem{ID: id, Type: model.ItemILD} }
func scenario(id int) model.SelectedItem { return model.SelectedItem{ID: id, Type: model.ItemScenario} }

func TestSelectToggles(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	on, err := r.Select(ctx, ild(3))
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, r.IsSelected(3))

	on, err = r.Select(ctx, ild(3))
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, r.IsSelected(3))
	assert.Empty(t, r.Items())
}

func TestSelectRejectsTenthILD(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)
	for i := 1; i <= 9; i++ {
		_, err := r.Select(ctx, ild(i))
		require.NoError(t, err)
	}
	before := r.Items()

	_, err := r.Select(ctx, ild(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapReached))
	var capErr *CapError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 9, capErr.Limit)
	assert.Equal(t, "You can only select up to 9 ILD items", capErr.Error())
	assert.Equal(t, before, r.Items())

	// scenarios have their own cap
	_, err = r.Select(ctx, scenario(101))
	assert.NoError(t, err)

	// deselecting at the cap still works
	on, err := r.Select(ctx, ild(4))
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 8, r.Count(model.ItemILD))
}

func TestScenarioCap(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)
	for i := 0; i < 37; i++ {
		_, err := r.Select(ctx, scenario(101+i))
		require.NoError(t, err)
	}
	_, err := r.Select(ctx, scenario(200))
	assert.ErrorIs(t, err, ErrCapReached)
	assert.Equal(t, 37, r.Count(model.ItemScenario))
}

func TestSelectInvalidType(t *testing.T) {
	r := newTestRegistry(t, nil)
	_, err := r.Select(context.Background(), model.SelectedItem{ID: 1, Type: "Other"})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestDeselectMissingIsNoop(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.NoError(t, r.Deselect(context.Background(), 42))
}

func TestSetMetricForPlotKeepsOnePerPlot(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)
	three, seven, two := 3, 7, 2

	require.NoError(t, r.SetMetricForPlot(ctx, 5, &three))
	require.NoError(t, r.SetMetricForPlot(ctx, 1, &two))
	require.NoError(t, r.SetMetricForPlot(ctx, 5, &seven))

	metrics := r.Metrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, model.SelectedMetric{ILDID: 1, MetricID: 2}, metrics[0])
	assert.Equal(t, model.SelectedMetric{ILDID: 5, MetricID: 7}, metrics[1])

	id, ok := r.MetricForPlot(5)
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	require.NoError(t, r.SetMetricForPlot(ctx, 5, nil))
	_, ok = r.MetricForPlot(5)
	assert.False(t, ok)
	assert.Len(t, r.Metrics(), 1)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newTestRegistry(t, store)
	one := 1
	_, _ = r.Select(ctx, ild(1))
	require.NoError(t, r.SetMetricForPlot(ctx, 1, &one))

	require.NoError(t, r.ClearAll(ctx))
	assert.Empty(t, r.Items())
	assert.Empty(t, r.Metrics())

	raw, err := store.Load(ctx, KeySelectedMetrics)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestPersistedAsFlatList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newTestRegistry(t, store)
	four := 4
	require.NoError(t, r.SetMetricForPlot(ctx, 2, &four))

	raw, err := store.Load(ctx, KeySelectedMetrics)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ildId":2,"metricId":4}]`, string(raw))
}

func TestCorruptStateTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, KeySelectedMetrics, []byte("{not json")))
	require.NoError(t, store.Save(ctx, KeySelectedItems, []byte(`[{"id":1,"type":"ILD"}]`)))

	r := newTestRegistry(t, store)
	assert.Empty(t, r.Metrics())
	assert.Len(t, r.Items(), 1)
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "selection.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	r := newTestRegistry(t, NewFileStore(path))
	assert.Empty(t, r.Items())

	selected, err := r.Select(ctx, ild(4))
	require.NoError(t, err)
	assert.True(t, selected)
	require.NoError(t, r.ClearAll(ctx))

	reloaded := newTestRegistry(t, NewFileStore(path))
	assert.Empty(t, reloaded.Items())
}

func TestDuplicatePlotEntriesCollapseOnLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, KeySelectedMetrics, []byte(`[{"ildId":1,"metricId":2},{"ildId":1,"metricId":9}]`)))
	r := newTestRegistry(t, store)
	assert.Equal(t, []model.SelectedMetric{{ILDID: 1, MetricID: 9}}, r.Metrics())
}

func TestSubscribersSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)
	events, cancel := r.Subscribe()
	defer cancel()

	_, err := r.Select(ctx, ild(1))
	require.NoError(t, err)
	six := 6
	require.NoError(t, r.SetMetricForPlot(ctx, 1, &six))

	ev := receive(t, events)
	assert.Equal(t, EventItems, ev.Kind)
	assert.Equal(t, []model.SelectedItem{ild(1)}, ev.Items)

	ev = receive(t, events)
	assert.Equal(t, EventMetrics, ev.Kind)
	assert.Equal(t, []model.SelectedMetric{{ILDID: 1, MetricID: 6}}, ev.Metrics)
}

func TestRejectedSelectionDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	r, err := NewRegistry(ctx, NewMemoryStore(), Limits{ILD: 1, Scenario: 1}, nil)
	require.NoError(t, err)
	_, err = r.Select(ctx, ild(1))
	require.NoError(t, err)

	events, cancel := r.Subscribe()
	defer cancel()
	_, err = r.Select(ctx, ild(2))
	require.ErrorIs(t, err, ErrCapReached)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	r := newTestRegistry(t, nil)
	events, cancel := r.Subscribe()
	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok)
}

type failingStore struct{ *MemoryStore }

func (failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestFailedWriteLeavesStateUntouched(t *testing.T) {
	r := newTestRegistry(t, failingStore{NewMemoryStore()})
	_, err := r.Select(context.Background(), ild(1))
	require.Error(t, err)
	assert.Empty(t, r.Items())
}

// removeFailingStore cannot remove the metrics key.
type removeFailingStore struct{ *MemoryStore }

func (s removeFailingStore) Remove(ctx context.Context, key string) error {
	if key == KeySelectedMetrics {
		return errors.New("boom")
	}
	return s.MemoryStore.Remove(ctx, key)
}

func TestFailedClearLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := removeFailingStore{NewMemoryStore()}
	r := newTestRegistry(t, store)
	_, err := r.Select(ctx, ild(1))
	require.NoError(t, err)

	require.ErrorContains(t, r.ClearAll(ctx), "boom")
	assert.Equal(t, []model.SelectedItem{ild(1)}, r.Items())

	raw, err := store.Load(ctx, KeySelectedItems)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"type":"ILD"}]`, string(raw))
}

func TestRegistriesSharingAFileSeeEachOther(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "selections.json")
	cli := newTestRegistry(t, NewFileStore(path))
	server := newTestRegistry(t, NewFileStore(path))

	_, err := cli.Select(ctx, ild(1))
	require.NoError(t, err)
	assert.True(t, server.IsSelected(1))

	_, err = server.Select(ctx, ild(2))
	require.NoError(t, err)
	assert.Equal(t, []model.SelectedItem{ild(1), ild(2)}, newTestRegistry(t, NewFileStore(path)).Items())
	assert.Equal(t, []model.SelectedItem{ild(1), ild(2)}, cli.Items())
}

func TestSharedFileRespectsCapAcrossRegistries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "selections.json")
	a, err := NewRegistry(ctx, NewFileStore(path), Limits{ILD: 2, Scenario: 1}, nil)
	require.NoError(t, err)
	b, err := NewRegistry(ctx, NewFileStore(path), Limits{ILD: 2, Scenario: 1}, nil)
	require.NoError(t, err)

	_, err = a.Select(ctx, ild(1))
	require.NoError(t, err)
	_, err = b.Select(ctx, ild(2))
	require.NoError(t, err)
	_, err = a.Select(ctx, ild(3))
	assert.ErrorIs(t, err, ErrCapReached)
}

func TestWatchPollsFileStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "selections.json")
	writer := newTestRegistry(t, NewFileStore(path))
	reader := newTestRegistry(t, NewFileStore(path))
	reader.pollEvery = 10 * time.Millisecond
	events, stop := reader.Subscribe()
	defer stop()

	done := make(chan error, 1)
	go func() { done <- reader.Watch(ctx) }()

	_, err := writer.Select(ctx, scenario(104))
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Equal(t, EventReloaded, ev.Kind)
	assert.Equal(t, []model.SelectedItem{scenario(104)}, ev.Items)

	cancel()
	assert.NoError(t, <-done)
}

func TestSnapshotIsConsistent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)
	_, _ = r.Select(ctx, ild(1))
	_, _ = r.Select(ctx, scenario(101))
	seven := 7
	require.NoError(t, r.SetMetricForPlot(ctx, 1, &seven))

	snap := r.Snapshot()
	assert.Equal(t, 1, snap.Count(model.ItemILD))
	assert.Equal(t, 1, snap.Count(model.ItemScenario))
	assert.True(t, snap.IsSelected(101))
	id, ok := snap.MetricForPlot(1)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, DefaultLimits(), snap.Limits)

	// Later changes do not leak into an earlier snapshot.
	_, _ = r.Select(ctx, ild(2))
	assert.Len(t, snap.Items, 2)
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "selection.json")

	r := newTestRegistry(t, NewFileStore(path))
	_, err := r.Select(ctx, scenario(110))
	require.NoError(t, err)
	eight := 8
	require.NoError(t, r.SetMetricForPlot(ctx, 3, &eight))

	again := newTestRegistry(t, NewFileStore(path))
	assert.Equal(t, []model.SelectedItem{scenario(110)}, again.Items())
	id, ok := again.MetricForPlot(3)
	assert.True(t, ok)
	assert.Equal(t, 8, id)

	require.NoError(t, again.ClearAll(ctx))
	assert.Empty(t, newTestRegistry(t, NewFileStore(path)).Items())
}

func TestWatchIsNoopForLocalStores(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.NoError(t, r.Watch(context.Background()))
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// hubStore shares one MemoryStore between registries and fans notices out
// in-process, standing in for Redis.
type hubStore struct {
	*MemoryStore
	mu        sync.Mutex
	listeners []func(Notice)
	ready     chan struct{}
}

func (h *hubStore) Publish(_ context.Context, n Notice) error {
	h.mu.Lock()
	ls := append([]func(Notice){}, h.listeners...)
	h.mu.Unlock()
	for _, l := range ls {
		l(n)
	}
	return nil
}

func (h *hubStore) Listen(ctx context.Context, onNotice func(Notice)) error {
	h.mu.Lock()
	h.listeners = append(h.listeners, onNotice)
	h.mu.Unlock()
	close(h.ready)
	<-ctx.Done()
	return nil
}

func TestWatchReloadsRemoteChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := &hubStore{MemoryStore: NewMemoryStore(), ready: make(chan struct{})}

	writer := newTestRegistry(t, hub)
	reader := newTestRegistry(t, hub)
	events, stop := reader.Subscribe()
	defer stop()

	go func() { _ = reader.Watch(ctx) }()
	<-hub.ready

	_, err := writer.Select(ctx, ild(2))
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Equal(t, EventReloaded, ev.Kind)
	assert.Equal(t, []model.SelectedItem{ild(2)}, ev.Items)
	assert.True(t, reader.IsSelected(2))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := Open(ctx, config.SelectionConfig{Backend: "file", File: filepath.Join(t.TempDir(), "sel.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.NoError(t, closeFn())

	store, _, err = Open(ctx, config.SelectionConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, closeFn, err = Open(ctx, config.SelectionConfig{Backend: "etcd"})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestLimitsFrom(t *testing.T) {
	assert.Equal(t, DefaultLimits(), LimitsFrom(config.SelectionConfig{}))
	assert.Equal(t, Limits{ILD: 3, Scenario: 37}, LimitsFrom(config.SelectionConfig{MaxILD: 3}))
}
