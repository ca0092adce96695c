// Package status keeps the station list fresh and serves it, filtered or
// whole, as data or as a rendered table.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/randytsao24/pmsstatus/internal/cache"
	"github.com/randytsao24/pmsstatus/internal/models"
	"github.com/randytsao24/pmsstatus/internal/pms"
	"github.com/randytsao24/pmsstatus/internal/render"
)

const (
	DefaultTTL            = 60 * time.Second
	DefaultRefreshTimeout = 30 * time.Second

	refreshKey = "stations"

	// maxImages bounds memoized tables across all queries
	maxImages = 64
)

// Sessions abstracts the shared upstream session for testability.
type Sessions interface {
	Current() (string, bool)
	Login(ctx context.Context) (string, error)
}

// Fetcher abstracts the upstream station listing for testability.
type Fetcher interface {
	GetDevices(ctx context.Context, sessionID string) ([]models.Station, error)
}

// Snapshot is a station list and the time it was fetched
type Snapshot struct {
	Stations  []models.Station
	FetchedAt time.Time
}

// Options tunes a Service. Zero values pick the defaults.
type Options struct {
	TTL            time.Duration
	RefreshTimeout time.Duration
	Layout         render.Layout
	Now            func() time.Time
	Logger         *slog.Logger
	Metrics        *Metrics
}

// Service owns the station snapshot and refreshes it on demand. There is
// no background timer: freshness is checked when a request arrives, and at
// most one refresh runs at a time.
type Service struct {
	sessions Sessions
	fetcher  Fetcher
	renderer render.Renderer

	snapshots *cache.Holder[[]models.Station]
	images    *cache.Cache[[]byte]
	group     singleflight.Group

	refreshTimeout time.Duration
	layout         render.Layout
	now            func() time.Time
	logger         *slog.Logger
	metrics        *Metrics
}

// NewService wires a Service. Call Close when done.
func NewService(sessions Sessions, fetcher Fetcher, renderer render.Renderer, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.Layout.Width <= 0 || opts.Layout.RowHeight <= 0 {
		opts.Layout = render.DefaultLayout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	return &Service{
		sessions:       sessions,
		fetcher:        fetcher,
		renderer:       renderer,
		snapshots:      cache.NewHolder[[]models.Station](opts.TTL, opts.Now),
		images:         cache.New[[]byte](opts.TTL, cache.WithClock(opts.Now), cache.WithMaxEntries(maxImages)),
		refreshTimeout: opts.RefreshTimeout,
		layout:         opts.Layout,
		now:            opts.Now,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
}

// Close releases the image cache
func (s *Service) Close() {
	s.images.Close()
}

// EnsureFresh makes sure the snapshot is younger than the TTL, fetching a
// new one if needed. Concurrent callers share a single refresh. The refresh
// runs detached from ctx, bounded by the refresh timeout, so one caller
// giving up does not fail the others; that caller gets a KindCanceled error.
func (s *Service) EnsureFresh(ctx context.Context) error {
	if !s.snapshots.IsStale(s.now()) {
		return nil
	}

	ch := s.group.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return nil, s.refresh(rctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return &pms.Error{Kind: pms.KindCanceled, Op: "status.EnsureFresh", Err: ctx.Err()}
	}
}

// refresh tries the current session first and logs in again only when that
// fails. The fetch after a fresh login is attempted exactly once.
func (s *Service) refresh(ctx context.Context) error {
	// another flight may have finished between the caller's check and ours
	if !s.snapshots.IsStale(s.now()) {
		return nil
	}

	if token, ok := s.sessions.Current(); ok {
		stations, err := s.fetcher.GetDevices(ctx, token)
		if err == nil {
			s.install(stations, refreshExistingSession)
			return nil
		}
		if pms.IsKind(err, pms.KindCanceled) {
			s.metrics.refreshed(refreshFailure)
			return err
		}
		s.logger.Warn("pms fetch with current session failed, logging in again",
			"error", err,
			"kind", pms.KindOf(err).String(),
		)
	}

	token, err := s.sessions.Login(ctx)
	s.metrics.login(err == nil)
	if err != nil {
		s.metrics.refreshed(refreshFailure)
		s.logger.Error("pms refresh failed", "step", "login", "error", err)
		return classify(err, pms.KindAuth, "status.login")
	}

	stations, err := s.fetcher.GetDevices(ctx, token)
	if err != nil {
		s.metrics.refreshed(refreshFailure)
		s.logger.Error("pms refresh failed", "step", "fetch", "error", err)
		return classify(err, pms.KindFetch, "status.fetch")
	}

	s.install(stations, refreshNewSession)
	return nil
}

func (s *Service) install(stations []models.Station, how string) {
	snap := s.snapshots.Replace(stations)
	s.metrics.refreshed(how)
	s.metrics.snapshot(len(stations), snap.FetchedAt)
	s.logger.Info("pms stations refreshed", "count", len(stations), "session", how)
}

// classify gives errors from stubs or foreign code a kind
func classify(err error, kind pms.Kind, op string) error {
	if pms.KindOf(err) != pms.KindUnknown {
		return err
	}
	return &pms.Error{Kind: kind, Op: op, Err: err}
}

// AllStations returns the full, fresh station list
func (s *Service) AllStations(ctx context.Context) (Snapshot, error) {
	if err := s.EnsureFresh(ctx); err != nil {
		return Snapshot{}, err
	}
	snap, ok := s.snapshots.Get()
	if !ok {
		return Snapshot{}, &pms.Error{Kind: pms.KindFetch, Op: "status.AllStations", Msg: "no snapshot after refresh"}
	}

	stations := make([]models.Station, len(snap.Value))
	copy(stations, snap.Value)
	return Snapshot{Stations: stations, FetchedAt: snap.FetchedAt}, nil
}

// StationsMatching returns the fresh stations whose name contains query.
// A blank query is rejected; use AllStations instead.
func (s *Service) StationsMatching(ctx context.Context, query string) (Snapshot, error) {
	if IsBlankQuery(query) {
		return Snapshot{}, &pms.Error{Kind: pms.KindInvalid, Op: "status.StationsMatching", Msg: "empty query"}
	}

	snap, err := s.AllStations(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Stations = Filter(snap.Stations, query)
	return snap, nil
}

// AllStationsImage renders every station as a PNG table
func (s *Service) AllStationsImage(ctx context.Context) ([]byte, error) {
	snap, err := s.AllStations(ctx)
	if err != nil {
		return nil, err
	}
	return s.image(ctx, snap)
}

// StationsMatchingImage renders the stations matching query as a PNG table
func (s *Service) StationsMatchingImage(ctx context.Context, query string) ([]byte, error) {
	snap, err := s.StationsMatching(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.image(ctx, snap)
}

func (s *Service) image(ctx context.Context, snap Snapshot) ([]byte, error) {
	req := render.Prepare(snap.Stations, snap.FetchedAt, s.now(), s.layout)

	key := imageKey(snap.FetchedAt, req)
	if png, ok := s.images.Get(key); ok {
		s.metrics.renderLookup(true)
		return png, nil
	}
	s.metrics.renderLookup(false)

	png, err := s.renderer.Render(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &pms.Error{Kind: pms.KindCanceled, Op: "status.render", Err: err}
		}
		s.logger.Error("render failed", "rows", len(req.Stations), "error", err)
		return nil, &pms.Error{Kind: pms.KindRender, Op: "status.render", Err: fmt.Errorf("rendering %d rows: %w", len(req.Stations), err)}
	}

	s.images.Set(key, png)
	return png, nil
}

// imageKey identifies a table by its snapshot, the label drawn on it and the
// rows it shows. Queries selecting the same rows share an image, and the
// relative age in the label keeps a cached image from outliving its caption.
func imageKey(fetchedAt time.Time, req render.Request) string {
	d := xxhash.New()
	for _, st := range req.Stations {
		d.WriteString(st.Name)
		d.Write([]byte{0})
	}
	return fmt.Sprintf("%d|%s|%016x", fetchedAt.UnixNano(), req.TimestampLabel, d.Sum64())
}
