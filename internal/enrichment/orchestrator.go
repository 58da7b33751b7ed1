package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/alexandria/internal/book"
	"github.com/lepinkainen/alexandria/internal/catalog"
)

// DefaultTimeout bounds each secondary-source race.
const DefaultTimeout = 3 * time.Second

// DefaultRelatedLimit caps the related-book list.
const DefaultRelatedLimit = 5

// MetadataSource fetches secondary metadata for a book. A (nil, nil) return
// means "checked, nothing found" and is cached as such.
type MetadataSource interface {
	Fetch(ctx context.Context, isbn, title string) (*book.Metadata, error)
}

// RelatedSource fetches related-book suggestions for a record identifier.
// An empty list is a valid, non-error response.
type RelatedSource interface {
	Fetch(ctx context.Context, id string, limit int) ([]book.Record, error)
}

// TrackState is the lifecycle of one enrichment track.
type TrackState int

const (
	// TrackUnfetched means the track has not started.
	TrackUnfetched TrackState = iota
	// TrackFetching means the track is in flight.
	TrackFetching
	// TrackReady means the track has settled, by fetch, cache or fallback.
	TrackReady
)

// Detail is the view state for the currently selected record. The metadata
// and related tracks settle independently; Related is populated with a
// zero-latency local fallback before the network race even starts.
type Detail struct {
	Record   book.Record
	Resolved bool

	Metadata  *book.Metadata
	MetaState TrackState

	Related      []book.Record
	RelatedState TrackState
}

// Orchestrator runs the enrichment protocol for one selection at a time.
// Selecting a new record while a previous selection's fetches are in flight
// is safe: every in-flight request is tagged with the record identity it was
// issued for, and results whose tag no longer matches the active selection
// are discarded.
type Orchestrator struct {
	store   catalog.Store
	meta    MetadataSource
	related RelatedSource
	cache   *SessionCache

	timeout      time.Duration
	relatedLimit int

	mu     sync.Mutex
	active string
	detail Detail
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the secondary-source race timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithRelatedLimit overrides the related-book cap.
func WithRelatedLimit(n int) Option {
	return func(o *Orchestrator) { o.relatedLimit = n }
}

// New creates an Orchestrator over the given collaborators. The cache is
// injected so its lifecycle stays tied to the session scope.
func New(store catalog.Store, meta MetadataSource, related RelatedSource, cache *SessionCache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		meta:         meta,
		related:      related,
		cache:        cache,
		timeout:      DefaultTimeout,
		relatedLimit: DefaultRelatedLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Select makes rec the active selection and starts its enrichment tracks.
// The returned channel closes when both tracks have settled for this
// selection; callers that only want the immediate view can ignore it and
// poll Snapshot.
//
// A placeholder record is resolved against the store before either track
// runs, since both depend on the resolved ISBN and title. Resolution failure
// of a pure placeholder is the one surfaced error (book.ErrUnresolvable);
// every other failure degrades to fallbacks.
func (o *Orchestrator) Select(ctx context.Context, rec book.Record) (<-chan struct{}, error) {
	resolved := true
	if rec.IsPlaceholder() {
		full, err := o.store.GetRecord(ctx, rec.ID)
		if err != nil {
			slog.Warn("Placeholder resolution failed", "id", rec.ID, "error", err)
			resolved = false
		} else if err := rec.ReplaceWith(full); err != nil {
			slog.Warn("Placeholder resolution rejected", "id", rec.ID, "error", err)
			resolved = false
		}
	}

	if !resolved && rec.IsPlaceholder() {
		// No fallback data at all: surface the exhausted-resolution
		// condition instead of silently rendering an empty view.
		done := make(chan struct{})
		close(done)
		o.mu.Lock()
		o.active = rec.ID
		o.detail = Detail{Record: rec}
		o.mu.Unlock()
		return done, fmt.Errorf("%w: id %q", book.ErrUnresolvable, rec.ID)
	}

	fallback := o.localRelated(ctx, rec)

	o.mu.Lock()
	o.active = rec.ID
	o.detail = Detail{
		Record:       rec,
		Resolved:     resolved,
		MetaState:    TrackFetching,
		Related:      fallback,
		RelatedState: TrackFetching,
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.runMetadataTrack(ctx, rec)
	}()
	go func() {
		defer wg.Done()
		o.runRelatedTrack(ctx, rec, fallback)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done, nil
}

// Enrich selects rec and waits for both tracks to settle, returning the
// final view state. Convenience for synchronous callers like the HTTP API.
func (o *Orchestrator) Enrich(ctx context.Context, rec book.Record) (Detail, error) {
	done, err := o.Select(ctx, rec)
	if err != nil {
		return o.Snapshot(), err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}
	return o.Snapshot(), nil
}

// Snapshot returns a copy of the current view state.
func (o *Orchestrator) Snapshot() Detail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.detail
}

// Active returns the identifier of the current selection.
func (o *Orchestrator) Active() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// apply mutates the view state only if id still matches the active
// selection. This is the request fence that keeps a stale completion from
// overwriting a newer selection's state.
func (o *Orchestrator) apply(id string, fn func(*Detail)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != id {
		slog.Debug("Discarding stale enrichment result", "id", id, "active", o.active)
		return
	}
	fn(&o.detail)
}

// runMetadataTrack resolves secondary metadata: cache first, then local
// synthesis from primary fields, then a fetch raced against the timeout.
// Whatever the outcome, it is cached before the view state is updated.
func (o *Orchestrator) runMetadataTrack(ctx context.Context, rec book.Record) {
	key := MetadataKey(rec.ISBN, rec.Title)

	if data, checked := o.cache.Metadata(key); checked {
		slog.Debug("Metadata cache hit", "key", key, "found", data != nil)
		o.apply(rec.ID, func(d *Detail) {
			d.Metadata = data
			d.MetaState = TrackReady
		})
		return
	}

	// Never call the secondary source when the primary record already
	// answers the question.
	if rec.Pages > 0 && rec.Language != "" {
		data := &book.Metadata{
			PageCount:    rec.Pages,
			Language:     rec.Language,
			RatingsCount: rec.RatingsCount,
			Categories:   rec.Genres,
		}
		o.cache.StoreMetadata(key, data)
		o.apply(rec.ID, func(d *Detail) {
			d.Metadata = data
			d.MetaState = TrackReady
		})
		return
	}

	data, ok := raceFetch(ctx, o.timeout, func(ctx context.Context) (*book.Metadata, error) {
		return o.meta.Fetch(ctx, rec.ISBN, rec.Title)
	})
	if !ok {
		slog.Debug("Metadata fetch lost the race", "id", rec.ID)
		data = nil
	}

	o.cache.StoreMetadata(key, data)
	o.apply(rec.ID, func(d *Detail) {
		d.Metadata = data
		d.MetaState = TrackReady
	})
}

// runRelatedTrack resolves related books: cache first, otherwise a smart
// fetch raced against the timeout with the local same-category fallback
// already on display. The resolved value, fallback included, is cached so a
// revisit does not re-race.
func (o *Orchestrator) runRelatedTrack(ctx context.Context, rec book.Record, fallback []book.Record) {
	if cached, checked := o.cache.Related(rec.ID); checked {
		slog.Debug("Related cache hit", "id", rec.ID, "count", len(cached))
		o.apply(rec.ID, func(d *Detail) {
			d.Related = cached
			d.RelatedState = TrackReady
		})
		return
	}

	smart, ok := raceFetch(ctx, o.timeout, func(ctx context.Context) ([]book.Record, error) {
		return o.related.Fetch(ctx, rec.ID, o.relatedLimit)
	})

	resolved := fallback
	if ok && len(smart) > 0 {
		resolved = smart
	} else if !ok {
		slog.Debug("Related fetch lost the race, keeping fallback", "id", rec.ID)
	}

	o.cache.StoreRelated(rec.ID, resolved)
	o.apply(rec.ID, func(d *Detail) {
		d.Related = resolved
		d.RelatedState = TrackReady
	})
}

// localRelated computes the zero-latency fallback from the corpus.
func (o *Orchestrator) localRelated(ctx context.Context, rec book.Record) []book.Record {
	if len(rec.Genres) == 0 {
		return nil
	}

	corpus, err := o.store.All(ctx)
	if err != nil {
		slog.Warn("Fallback related lookup failed", "error", err)
		return nil
	}
	return SameCategory(corpus, rec, o.relatedLimit)
}

// SameCategory returns up to limit records sharing a category label with
// rec, excluding rec itself, in corpus order. This is both the zero-latency
// related fallback and the server-side recommender of last resort.
func SameCategory(corpus []book.Record, rec book.Record, limit int) []book.Record {
	if len(rec.Genres) == 0 || limit <= 0 {
		return nil
	}

	want := make(map[string]bool, len(rec.Genres))
	for _, g := range rec.Genres {
		want[strings.ToLower(g)] = true
	}

	var related []book.Record
	for _, candidate := range corpus {
		if candidate.ID == rec.ID {
			continue
		}
		for _, g := range candidate.Genres {
			if want[strings.ToLower(g)] {
				related = append(related, candidate)
				break
			}
		}
		if len(related) == limit {
			break
		}
	}
	return related
}

// raceFetch races fetch against the timeout. The losing branch is abandoned,
// not cancelled: it may complete in the background, its result is simply
// discarded. Fetch errors are treated identically to a timeout.
func raceFetch[T any](ctx context.Context, timeout time.Duration, fetch func(context.Context) (T, error)) (T, bool) {
	type outcome struct {
		value T
		err   error
	}

	// Buffered so the abandoned branch can finish without leaking.
	ch := make(chan outcome, 1)
	go func() {
		value, err := fetch(ctx)
		ch <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-ch:
		if out.err != nil {
			slog.Debug("Secondary fetch failed", "error", out.err)
			return zero, false
		}
		return out.value, true
	case <-timer.C:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
