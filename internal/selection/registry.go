// Package selection keeps the user's dashboard selections: which items of
// the selection table are chosen, and which metric represents each ILD plot.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"capital-risk/internal/logger"
	"capital-risk/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrCapReached is matched by every *CapError.
	ErrCapReached  = errors.New("selection limit reached")
	ErrInvalidItem = errors.New("invalid item")
)

// CapError reports a rejected selection because Type already has Limit items.
type CapError struct {
	Type  model.ItemType
	Limit int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("You can only select up to %d %s items", e.Limit, e.Type)
}

func (e *CapError) Is(target error) bool { return target == ErrCapReached }

// Limits caps how many items of each type may be selected at once.
type Limits struct {
	ILD      int `yaml:"max_ild" json:"ild"`
	Scenario int `yaml:"max_scenario" json:"scenario"`
}

func DefaultLimits() Limits {
	return Limits{ILD: 9, Scenario: 37}
}

func (l Limits) For(t model.ItemType) int {
	switch t {
	case model.ItemILD:
		return l.ILD
	case model.ItemScenario:
		return l.Scenario
	}
	return 0
}

// EventKind describes what changed.
type EventKind string

const (
	EventItems    EventKind = "items"
	EventMetrics  EventKind = "metrics"
	EventCleared  EventKind = "cleared"
	EventReloaded EventKind = "reloaded"
)

// Event is broadcast to subscribers after every change, carrying the full
// state so a listener never needs to re-read.
type Event struct {
	Kind    EventKind              `json:"kind"`
	Items   []model.SelectedItem   `json:"items"`
	Metrics []model.SelectedMetric `json:"metrics"`
}

// State is a consistent view of every selection, read under one lock.
type State struct {
	Items   []model.SelectedItem
	Metrics []model.SelectedMetric
	Limits  Limits
}

// Count returns how many items of type t are selected.
func (s State) Count(t model.ItemType) int { return countType(s.Items, t) }

func (s State) IsSelected(id int) bool { return indexItem(s.Items, id) >= 0 }

// MetricForPlot returns the metric chosen for an ILD plot.
func (s State) MetricForPlot(ildID int) (int, bool) {
	for _, m := range s.Metrics {
		if m.ILDID == ildID {
			return m.MetricID, true
		}
	}
	return 0, false
}

// Registry is the observable selection state. All mutations persist to the
// store before subscribers are notified; a failed write leaves the state
// untouched.
//
// Stores that do not broadcast changes may still be written by other
// processes (the CLI and the server share the selection file), so the
// registry re-reads them before every read and mutation.
type Registry struct {
	mu        sync.Mutex
	store     Store
	log       *logger.Logger
	limits    Limits
	origin    string
	items     []model.SelectedItem
	metrics   []model.SelectedMetric
	stamp     string
	stamped   bool
	pollEvery time.Duration

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewRegistry loads the persisted selections from store.
func NewRegistry(ctx context.Context, store Store, limits Limits, log *logger.Logger) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{
		store:     store,
		log:       log.With("component", "SelectionRegistry"),
		limits:    limits,
		origin:    uuid.NewString(),
		subs:      make(map[int]chan Event),
		pollEvery: 2 * time.Second,
	}
	load := r.refresh
	if _, ok := store.(Broadcaster); ok {
		load = r.reload
	}
	if err := load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Limits() Limits { return r.limits }

// Select toggles item: an already-selected item is removed, otherwise it is
// added unless its type is at its cap. It reports whether the item is
// selected afterwards.
func (r *Registry) Select(ctx context.Context, item model.SelectedItem) (bool, error) {
	if !item.Type.Valid() {
		return false, fmt.Errorf("%w: unknown type %q", ErrInvalidItem, item.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(ctx); err != nil {
		return false, err
	}

	if idx := indexItem(r.items, item.ID); idx >= 0 {
		next := removeItemAt(r.items, idx)
		if err := r.commitItems(ctx, next); err != nil {
			return true, err
		}
		return false, nil
	}

	limit := r.limits.For(item.Type)
	if countType(r.items, item.Type) >= limit {
		return false, &CapError{Type: item.Type, Limit: limit}
	}
	next := append(cloneItems(r.items), item)
	if err := r.commitItems(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Deselect removes an item; it is a no-op if the item is not selected.
func (r *Registry) Deselect(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(ctx); err != nil {
		return err
	}
	idx := indexItem(r.items, id)
	if idx < 0 {
		return nil
	}
	return r.commitItems(ctx, removeItemAt(r.items, idx))
}

// SetMetricForPlot replaces the metric chosen for an ILD plot, or clears it
// when metricID is nil. At most one metric per plot is kept.
func (r *Registry) SetMetricForPlot(ctx context.Context, ildID int, metricID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(ctx); err != nil {
		return err
	}

	next := make([]model.SelectedMetric, 0, len(r.metrics)+1)
	for _, m := range r.metrics {
		if m.ILDID != ildID {
			next = append(next, m)
		}
	}
	if metricID != nil {
		next = append(next, model.SelectedMetric{ILDID: ildID, MetricID: *metricID})
	}
	return r.commitMetrics(ctx, next)
}

// RemoveMetricForPlot clears the selection of one plot.
func (r *Registry) RemoveMetricForPlot(ctx context.Context, ildID int) error {
	return r.SetMetricForPlot(ctx, ildID, nil)
}

// ClearAll empties both lists. If the second key cannot be removed the
// first is written back, so a failure leaves both lists as they were.
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(ctx); err != nil {
		return err
	}

	if err := r.store.Remove(ctx, KeySelectedItems); err != nil {
		return fmt.Errorf("failed to clear selected items: %w", err)
	}
	if err := r.store.Remove(ctx, KeySelectedMetrics); err != nil {
		if rerr := r.save(ctx, KeySelectedItems, cloneItems(r.items)); rerr != nil {
			r.log.Error("Failed to restore selected items after partial clear", "error", rerr)
		}
		return fmt.Errorf("failed to clear selected metrics: %w", err)
	}
	r.items = nil
	r.metrics = nil
	r.announce(ctx, EventCleared, KeySelectedItems, KeySelectedMetrics)
	return nil
}

// Snapshot returns items, metrics and limits as of a single moment.
func (r *Registry) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshForRead()
	return State{
		Items:   cloneItems(r.items),
		Metrics: append([]model.SelectedMetric{}, r.metrics...),
		Limits:  r.limits,
	}
}

// MetricForPlot returns the metric chosen for an ILD plot.
func (r *Registry) MetricForPlot(ildID int) (int, bool) {
	return r.Snapshot().MetricForPlot(ildID)
}

func (r *Registry) IsSelected(id int) bool {
	return r.Snapshot().IsSelected(id)
}

// Items returns the selected items in selection order.
func (r *Registry) Items() []model.SelectedItem {
	return r.Snapshot().Items
}

// Metrics returns the plot → metric associations in save order.
func (r *Registry) Metrics() []model.SelectedMetric {
	return r.Snapshot().Metrics
}

// Count returns how many items of type t are selected.
func (r *Registry) Count(t model.ItemType) int {
	return r.Snapshot().Count(t)
}

// Subscribe returns a channel receiving every change event and a function
// that stops the subscription. Slow subscribers miss events rather than
// blocking writers.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextID
	r.nextID++
	ch := make(chan Event, 16)
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			defer r.subMu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

// Watch follows changes written by other processes sharing the store and
// reloads on each. Broadcasting stores push notices; stamped stores such as
// FileStore are polled. It returns immediately for any other store.
func (r *Registry) Watch(ctx context.Context) error {
	b, ok := r.store.(Broadcaster)
	if !ok {
		if _, stamped := r.store.(Stamper); stamped {
			return r.poll(ctx)
		}
		return nil
	}
	return b.Listen(ctx, func(n Notice) {
		if n.Origin == r.origin {
			return
		}
		r.mu.Lock()
		err := r.reload(ctx)
		r.mu.Unlock()
		if err != nil {
			r.log.Warn("Failed to reload selections after remote change", "key", n.Key, "error", err)
			return
		}
		r.notify(EventReloaded)
	})
}

func (r *Registry) poll(ctx context.Context) error {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.mu.Lock()
			err := r.refresh(ctx)
			r.mu.Unlock()
			if err != nil {
				r.log.Warn("Failed to reload selections", "error", err)
			}
		}
	}
}

// refresh re-reads a store that other processes may write without telling
// us, announcing a "reloaded" event when the state changed. Broadcasting
// stores are kept current by Watch instead. Must be called with r.mu held.
func (r *Registry) refresh(ctx context.Context) error {
	if _, ok := r.store.(Broadcaster); ok {
		return nil
	}
	var (
		stamp   string
		stamped bool
	)
	if s, ok := r.store.(Stamper); ok {
		if st, err := s.Stamp(); err == nil {
			if r.stamped && st == r.stamp {
				return nil
			}
			stamp, stamped = st, true
		}
	}

	prevItems, prevMetrics := r.items, r.metrics
	if err := r.reload(ctx); err != nil {
		return err
	}
	r.stamp, r.stamped = stamp, stamped
	if !slices.Equal(prevItems, r.items) || !slices.Equal(prevMetrics, r.metrics) {
		r.notifyLocked(EventReloaded)
	}
	return nil
}

// refreshForRead keeps the cached state when the store cannot be read.
func (r *Registry) refreshForRead() {
	if err := r.refresh(context.Background()); err != nil {
		r.log.Warn("Serving cached selections; reload failed", "error", err)
	}
}

func (r *Registry) commitItems(ctx context.Context, next []model.SelectedItem) error {
	if err := r.save(ctx, KeySelectedItems, next); err != nil {
		return err
	}
	r.items = next
	r.announce(ctx, EventItems, KeySelectedItems)
	return nil
}

func (r *Registry) commitMetrics(ctx context.Context, next []model.SelectedMetric) error {
	if err := r.save(ctx, KeySelectedMetrics, next); err != nil {
		return err
	}
	r.metrics = next
	r.announce(ctx, EventMetrics, KeySelectedMetrics)
	return nil
}

func (r *Registry) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// announce must be called with r.mu held.
func (r *Registry) announce(ctx context.Context, kind EventKind, keys ...string) {
	r.notifyLocked(kind)
	b, ok := r.store.(Broadcaster)
	if !ok {
		return
	}
	for _, key := range keys {
		if err := b.Publish(ctx, Notice{Origin: r.origin, Key: key}); err != nil {
			r.log.Warn("Failed to publish selection change", "key", key, "error", err)
		}
	}
}

func (r *Registry) notify(kind EventKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyLocked(kind)
}

func (r *Registry) notifyLocked(kind EventKind) {
	ev := Event{
		Kind:    kind,
		Items:   cloneItems(r.items),
		Metrics: append([]model.SelectedMetric{}, r.metrics...),
	}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- ev:
		default:
			r.log.Warn("Dropping selection event; subscriber buffer full", "subscriber", id)
		}
	}
}

// reload must be called with r.mu held (or before r is shared).
// Unparseable state is logged and treated as no selection.
func (r *Registry) reload(ctx context.Context) error {
	items, err := loadList[model.SelectedItem](ctx, r, KeySelectedItems)
	if err != nil {
		return err
	}
	metrics, err := loadList[model.SelectedMetric](ctx, r, KeySelectedMetrics)
	if err != nil {
		return err
	}
	r.items = items
	r.metrics = dedupeMetrics(metrics)
	return nil
}

func loadList[T any](ctx context.Context, r *Registry, key string) ([]T, error) {
	raw, err := r.store.Load(ctx, key)
	if errors.Is(err, ErrCorruptState) {
		r.log.Error("Failed to parse persisted selections", "key", key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		r.log.Error("Failed to parse persisted selections", "key", key, "error", err)
		return nil, nil
	}
	return out, nil
}

// dedupeMetrics keeps the last entry per plot, preserving order.
func dedupeMetrics(in []model.SelectedMetric) []model.SelectedMetric {
	last := map[int]int{}
	for i, m := range in {
		last[m.ILDID] = i
	}
	out := make([]model.SelectedMetric, 0, len(last))
	for i, m := range in {
		if last[m.ILDID] == i {
			out = append(out, m)
		}
	}
	return out
}

func indexItem(items []model.SelectedItem, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func removeItemAt(items []model.SelectedItem, idx int) []model.SelectedItem {
	out := make([]model.SelectedItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func cloneItems(items []model.SelectedItem) []model.SelectedItem {
	return append([]model.SelectedItem{}, items...)
}

func countType(items []model.SelectedItem, t model.ItemType) int {
	n := 0
	for _, it := range items {
		if it.Type == t {
			n++
		}
	}
	return n
}
