package refresher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/cache"
	"github.com/BearBump/FlightBoard/internal/fetcher"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
	"github.com/BearBump/FlightBoard/internal/services/board"
	"github.com/pkg/errors"
)

// Loader is the board service as seen by the refresher.
type Loader interface {
	LocationBoard(ctx context.Context, id models.ID) (board.Board, error)
	MovementPage(ctx context.Context, uiPage, knownTotal int) (board.MovementPage, error)
}

type Producer interface {
	PublishBoardUpdated(ctx context.Context, topic string, msg messages.BoardUpdated) error
}

type RateLimiter interface {
	Allow(ctx context.Context, limit int64, window time.Duration) (bool, int64, error)
}

type Metrics interface {
	fetcher.Observer
	ObservePublish(result string)
}

// Publish results reported to Metrics.
const (
	ResultPublished   = "published"
	ResultUnchanged   = "unchanged"
	ResultRateLimited = "rate_limited"
	ResultFailed      = "failed"
)

// Refresher keeps a fixed set of views (location boards and the first movement pages) fresh and
// publishes every changed snapshot to Kafka.
type Refresher struct {
	loader   Loader
	producer Producer
	rl       RateLimiter
	digests  cache.BytesCache
	metrics  Metrics
	log      logger.Logger

	topic   string
	planner *Planner

	pollInterval       time.Duration
	concurrency        int
	rateLimitPerMinute int64
	digestTTL          time.Duration
	publishAttempts    int
	publishBackoff     time.Duration

	watches []*watch

	triggerCh chan struct{}
	forceAll  atomic.Bool

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalRefreshed      atomic.Int64
	totalPublished      atomic.Int64
	totalUnchanged      atomic.Int64
	totalRateLimited    atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

type snapshot struct {
	Movements  []messages.MovementSnapshot
	TotalPages int
}

type watch struct {
	key        string
	view       string
	locationID models.ID
	pageIndex  int

	v *fetcher.View[snapshot]

	mu         sync.Mutex
	nextAt     time.Time
	failCount  int
	totalPages int
}

func New(loader Loader, producer Producer, rl RateLimiter, digests cache.BytesCache, topic string, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.Nop()
	}
	return &Refresher{
		loader: loader, producer: producer, rl: rl, digests: digests, topic: topic, log: log,
		planner:            NewPlanner(DefaultPlannerConfig()),
		pollInterval:       5 * time.Second,
		concurrency:        4,
		rateLimitPerMinute: 60,
		digestTTL:          24 * time.Hour,
		publishAttempts:    10,
		publishBackoff:     150 * time.Millisecond,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (r *Refresher) WithSettings(pollInterval time.Duration, concurrency int, rlPerMin int64, digestTTL time.Duration) *Refresher {
	if pollInterval > 0 {
		r.pollInterval = pollInterval
	}
	if concurrency > 0 {
		r.concurrency = concurrency
	}
	if rlPerMin > 0 {
		r.rateLimitPerMinute = rlPerMin
	}
	if digestTTL > 0 {
		r.digestTTL = digestTTL
	}
	return r
}

func (r *Refresher) WithPlanner(cfg PlannerConfig) *Refresher {
	r.planner = NewPlanner(cfg)
	return r
}

func (r *Refresher) WithMetrics(m Metrics) *Refresher {
	r.metrics = m
	return r
}

// Watch registers the boards of locationIDs and the first movementPages movement pages.
// Duplicate ids are ignored.
func (r *Refresher) Watch(locationIDs []models.ID, movementPages int) *Refresher {
	seen := make(map[string]struct{}, len(r.watches))
	for _, w := range r.watches {
		seen[w.key] = struct{}{}
	}
	add := func(w *watch) {
		if _, dup := seen[w.key]; dup {
			return
		}
		seen[w.key] = struct{}{}
		w.v = fetcher.NewView[snapshot](w.view, r.observer())
		w.totalPages = paging.UnknownTotal
		r.watches = append(r.watches, w)
	}
	for _, id := range locationIDs {
		if id == "" {
			continue
		}
		add(&watch{key: BoardKey(id), view: messages.ViewBoard, locationID: id})
	}
	for i := 0; i < movementPages; i++ {
		add(&watch{key: MovementsKey(i), view: messages.ViewMovements, pageIndex: i})
	}
	return r
}

func BoardKey(id models.ID) string { return "board:" + string(id) }

func MovementsKey(pageIndex int) string { return fmt.Sprintf("movements:%d", pageIndex) }

// Trigger forces an immediate refresh of every watched view (best-effort, non-blocking).
func (r *Refresher) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	r.forceAll.Store(true)
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

type WatchStatus struct {
	Key         string     `json:"key"`
	View        string     `json:"view"`
	Loading     bool       `json:"loading"`
	Error       *string    `json:"error"`
	NextCheckAt *time.Time `json:"nextCheckAt,omitempty"`
	FailCount   int        `json:"failCount"`
}

type Stats struct {
	StartedAt        time.Time     `json:"startedAt"`
	LastCycleAt      *time.Time    `json:"lastCycleAt,omitempty"`
	LastTriggerAt    *time.Time    `json:"lastTriggerAt,omitempty"`
	TotalRefreshed   int64         `json:"totalRefreshed"`
	TotalPublished   int64         `json:"totalPublished"`
	TotalUnchanged   int64         `json:"totalUnchanged"`
	TotalRateLimited int64         `json:"totalRateLimited"`
	TotalErrors      int64         `json:"totalErrors"`
	InFlight         int64         `json:"inFlight"`
	LastError        string        `json:"lastError,omitempty"`
	Watches          []WatchStatus `json:"watches"`
}

func (r *Refresher) Stats() Stats {
	st := Stats{
		StartedAt:        time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalRefreshed:   r.totalRefreshed.Load(),
		TotalPublished:   r.totalPublished.Load(),
		TotalUnchanged:   r.totalUnchanged.Load(),
		TotalRateLimited: r.totalRateLimited.Load(),
		TotalErrors:      r.totalErrors.Load(),
		InFlight:         r.inFlight.Load(),
		Watches:          make([]WatchStatus, 0, len(r.watches)),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()

	for _, w := range r.watches {
		vs := w.v.State()
		ws := WatchStatus{Key: w.key, View: w.view, Loading: vs.Loading, Error: vs.Error}
		w.mu.Lock()
		if !w.nextAt.IsZero() {
			t := w.nextAt
			ws.NextCheckAt = &t
		}
		ws.FailCount = w.failCount
		w.mu.Unlock()
		st.Watches = append(st.Watches, ws)
	}
	return st
}

func (r *Refresher) Run(ctx context.Context) error {
	defer r.close()

	t := time.NewTicker(r.pollInterval)
	defer t.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) close() {
	for _, w := range r.watches {
		w.v.Close()
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	r.lastCycleUnixNano.Store(now.UnixNano())
	force := r.forceAll.Swap(false)

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, w := range r.watches {
		if !force && !w.due(now) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		r.inFlight.Add(1)
		go func() {
			defer func() {
				r.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := r.processOne(ctx, w); err != nil {
				r.totalErrors.Add(1)
				r.setLastError(err)
				r.log.Error("refresh view", "key", w.key, "error", err)
			}
		}()
	}
	wg.Wait()
}

func (r *Refresher) processOne(ctx context.Context, w *watch) error {
	now := time.Now().UTC()

	if r.rl != nil && r.rateLimitPerMinute > 0 {
		allowed, n, err := r.rl.Allow(ctx, r.rateLimitPerMinute, time.Minute)
		if err != nil {
			return err
		}
		if !allowed {
			r.log.Warn("upstream budget exhausted, postponing refresh", "key", w.key, "count", n)
			r.totalRateLimited.Add(1)
			r.observePublish(ResultRateLimited)
			w.schedule(now.Add(r.pollInterval))
			return nil
		}
	}

	st, res := w.v.Load(ctx, w.key, func(ctx context.Context) (snapshot, error) {
		return r.load(ctx, w)
	})
	if res == fetcher.Superseded {
		return nil
	}
	r.totalRefreshed.Add(1)

	msg := messages.BoardUpdated{
		View:       w.view,
		Key:        w.key,
		CheckedAt:  now,
		LocationID: string(w.locationID),
	}
	if w.view == messages.ViewMovements {
		idx := w.pageIndex
		msg.PageIndex = &idx
	}

	if st.Error != nil {
		msg.Error = st.Error
		msg.NextCheckAt = now.Add(r.planner.BackoffDelay(w.fail()))
		w.schedule(msg.NextCheckAt)
		r.setLastError(errors.New(*st.Error))
		r.log.Warn("refresh failed", "key", w.key, "error", *st.Error)
		return r.publish(ctx, msg)
	}

	snap := *st.Data
	msg.Movements = snap.Movements
	msg.TotalPages = snap.TotalPages
	msg.Digest = digest(snap)
	msg.NextCheckAt = now.Add(r.planner.NextCheckDelay(snap.Movements))
	w.succeed(snap.TotalPages, msg.NextCheckAt)

	if r.unchanged(ctx, w.key, msg.Digest) {
		r.totalUnchanged.Add(1)
		r.observePublish(ResultUnchanged)
		return nil
	}
	if err := r.publish(ctx, msg); err != nil {
		return err
	}
	if r.digests != nil {
		if err := r.digests.Set(ctx, digestKey(w.key), []byte(msg.Digest), r.digestTTL); err != nil {
			r.log.Warn("store digest", "key", w.key, "error", err)
		}
	}
	return nil
}

func (r *Refresher) load(ctx context.Context, w *watch) (snapshot, error) {
	switch w.view {
	case messages.ViewBoard:
		b, err := r.loader.LocationBoard(ctx, w.locationID)
		if err != nil {
			return snapshot{}, err
		}
		return snapshot{Movements: boardSnapshots(b)}, nil
	default:
		w.mu.Lock()
		known := w.totalPages
		w.mu.Unlock()
		p, err := r.loader.MovementPage(ctx, paging.UIPage(w.pageIndex), known)
		if err != nil {
			return snapshot{}, err
		}
		// a page past the end comes back clamped; it is published under its own key anyway
		return snapshot{Movements: snapshots(p.Items), TotalPages: p.TotalPages}, nil
	}
}

func (r *Refresher) unchanged(ctx context.Context, key, d string) bool {
	if r.digests == nil {
		return false
	}
	b, ok, err := r.digests.Get(ctx, digestKey(key))
	if err != nil {
		r.log.Warn("load digest", "key", key, "error", err)
		return false
	}
	return ok && string(b) == d
}

// publish retries because Kafka may not be ready right after the stack starts.
func (r *Refresher) publish(ctx context.Context, msg messages.BoardUpdated) error {
	var pubErr error
	for i := 0; i < r.publishAttempts; i++ {
		if pubErr = r.producer.PublishBoardUpdated(ctx, r.topic, msg); pubErr == nil {
			r.totalPublished.Add(1)
			r.observePublish(ResultPublished)
			return nil
		}
		select {
		case <-ctx.Done():
			r.observePublish(ResultFailed)
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * r.publishBackoff):
		}
	}
	r.observePublish(ResultFailed)
	return pubErr
}

func (r *Refresher) setLastError(err error) {
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
}

func (r *Refresher) observer() fetcher.Observer {
	if r.metrics == nil {
		return nil
	}
	return r.metrics
}

func (r *Refresher) observePublish(result string) {
	if r.metrics != nil {
		r.metrics.ObservePublish(result)
	}
}

func (w *watch) due(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !now.Before(w.nextAt)
}

func (w *watch) schedule(at time.Time) {
	w.mu.Lock()
	w.nextAt = at
	w.mu.Unlock()
}

func (w *watch) fail() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failCount++
	return w.failCount
}

func (w *watch) succeed(totalPages int, next time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failCount = 0
	w.nextAt = next
	if w.view == messages.ViewMovements {
		w.totalPages = totalPages
	}
}

func digestKey(key string) string { return "board:digest:" + key }

func digest(s snapshot) string {
	b, _ := json.Marshal(s)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func boardSnapshots(b board.Board) []messages.MovementSnapshot {
	seen := make(map[models.ID]struct{}, len(b.Departures)+len(b.Arrivals))
	out := make([]messages.MovementSnapshot, 0, len(b.Departures)+len(b.Arrivals))
	for _, list := range [][]board.Movement{b.Departures, b.Arrivals} {
		for _, m := range list {
			if m.ID != "" {
				if _, dup := seen[m.ID]; dup {
					continue
				}
				seen[m.ID] = struct{}{}
			}
			out = append(out, snapshotOf(m))
		}
	}
	return out
}

func snapshots(ms []board.Movement) []messages.MovementSnapshot {
	out := make([]messages.MovementSnapshot, 0, len(ms))
	for _, m := range ms {
		out = append(out, snapshotOf(m))
	}
	return out
}

func snapshotOf(m board.Movement) messages.MovementSnapshot {
	return messages.MovementSnapshot{
		ID:            string(m.ID),
		Number:        m.Number,
		OriginID:      string(m.Origin.ID),
		OriginName:    m.Origin.Name,
		DestinationID: string(m.Destination.ID),
		DestName:      m.Destination.Name,
		DepartureTime: timePtr(m.DepartureTime),
		ArrivalTime:   timePtr(m.ArrivalTime),
		State:         m.State,
		Category:      string(m.Category),
	}
}

func timePtr(t models.Timestamp) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
