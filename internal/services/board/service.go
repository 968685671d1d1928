package board

import (
	"context"

	"github.com/BearBump/FlightBoard/internal/fetcher"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/observability"
	"github.com/BearBump/FlightBoard/internal/paging"
	"github.com/BearBump/FlightBoard/internal/resolver"
	"github.com/BearBump/FlightBoard/internal/status"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultPageSize = 20

// Metrics receives counts of silently degraded records.
type Metrics interface {
	AddUnresolved(view string, n int)
	AddUnclassified(view string, n int)
}

type Options struct {
	PageSize int
	// FullResolution also loads the whole location list for a board so that movements
	// referencing other airports by id get their names.
	FullResolution bool
	Metrics        Metrics
	Logger         logger.Logger
}

// Service assembles display-ready collections from the remote service.
type Service struct {
	client         upstream.Client
	classifier     *status.Classifier
	pageSize       int
	fullResolution bool
	metrics        Metrics
	log            logger.Logger
}

func New(client upstream.Client, classifier *status.Classifier, opts Options) *Service {
	if classifier == nil {
		classifier = status.NewDefault()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Service{
		client:         client,
		classifier:     classifier,
		pageSize:       opts.PageSize,
		fullResolution: opts.FullResolution,
		metrics:        opts.Metrics,
		log:            opts.Logger,
	}
}

func (s *Service) Locations(ctx context.Context) ([]models.Location, error) {
	ctx, span := observability.Tracer().Start(ctx, "board.Locations")
	defer span.End()

	locs, err := s.client.ListLocations(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, "list locations")
	}
	if locs == nil {
		locs = []models.Location{}
	}
	span.SetAttributes(attribute.Int("locations", len(locs)))
	return locs, nil
}

// LocationBoard loads a location with its departures and arrivals. The requests run
// concurrently; any failure fails the whole board.
func (s *Service) LocationBoard(ctx context.Context, id models.ID) (Board, error) {
	ctx, span := observability.Tracer().Start(ctx, "board.LocationBoard")
	defer span.End()
	span.SetAttributes(attribute.String("location.id", string(id)))

	var (
		loc        models.Location
		departures []models.Movement
		arrivals   []models.Movement
		known      []models.Location
	)
	reqs := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			loc, err = s.client.GetLocation(ctx, id)
			return errors.Wrap(err, "get location")
		},
		func(ctx context.Context) (err error) {
			departures, err = s.client.ListDepartures(ctx, id)
			return errors.Wrap(err, "list departures")
		},
		func(ctx context.Context) (err error) {
			arrivals, err = s.client.ListArrivals(ctx, id)
			return errors.Wrap(err, "list arrivals")
		},
	}
	if s.fullResolution {
		reqs = append(reqs, func(ctx context.Context) (err error) {
			known, err = s.client.ListLocations(ctx)
			return errors.Wrap(err, "list locations")
		})
	}
	if err := fetcher.All(ctx, reqs...); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Board{}, err
	}
	if loc.ID == "" {
		loc.ID = id
	}

	ix := resolver.NewIndex(append([]models.Location{loc}, known...))
	b := Board{
		Location:   loc,
		Departures: s.present(ix, departures),
		Arrivals:   s.present(ix, arrivals),
	}
	s.report("board", ix, b.Departures, b.Arrivals)
	span.SetAttributes(attribute.Int("departures", len(b.Departures)), attribute.Int("arrivals", len(b.Arrivals)))
	return b, nil
}

// MovementPage loads one page of movements (uiPage is 1-based) together with the location list
// used to resolve their references. knownTotal is the page count learned from an earlier
// response, or paging.UnknownTotal. A page beyond the server's last page is re-requested once at
// the last valid index.
func (s *Service) MovementPage(ctx context.Context, uiPage, knownTotal int) (MovementPage, error) {
	ctx, span := observability.Tracer().Start(ctx, "board.MovementPage")
	defer span.End()

	index := paging.RequestIndex(uiPage, knownTotal)
	span.SetAttributes(attribute.Int("page.index", index))

	var (
		page  paging.State[models.Movement]
		known []models.Location
	)
	err := fetcher.All(ctx,
		func(ctx context.Context) (err error) {
			known, err = s.client.ListLocations(ctx)
			return errors.Wrap(err, "list locations")
		},
		func(ctx context.Context) (err error) {
			page, err = s.client.ListMovements(ctx, index, s.pageSize)
			return errors.Wrap(err, "list movements")
		},
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return MovementPage{}, err
	}

	if page.TotalPages > 0 && index > page.TotalPages-1 {
		clamped := paging.Clamp(index, page.TotalPages)
		s.log.Debug("movement page out of range, re-requesting", "requested", index, "clamped", clamped, "total_pages", page.TotalPages)
		span.AddEvent("page.clamped", traceInt("page.index", clamped))
		page, err = s.client.ListMovements(ctx, clamped, s.pageSize)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return MovementPage{}, errors.Wrap(err, "list movements")
		}
	}
	page = page.Normalized()

	ix := resolver.NewIndex(known)
	items := s.present(ix, page.Items)
	s.report("movements", ix, items)
	return MovementPage{
		Items:       items,
		CurrentPage: page.CurrentPage,
		Page:        page.UIPage(),
		TotalPages:  page.TotalPages,
	}, nil
}

func (s *Service) present(ix *resolver.Index, ms []models.Movement) []Movement {
	out := make([]Movement, 0, len(ms))
	for _, m := range ms {
		origin, dest := ix.ResolveMovement(m)
		out = append(out, Movement{
			ID:            m.ID,
			Number:        m.Number,
			Origin:        origin,
			Destination:   dest,
			DepartureTime: m.DepartureTime,
			ArrivalTime:   m.ArrivalTime,
			State:         m.State,
			Category:      s.classifier.Classify(m.State),
		})
	}
	return out
}

func (s *Service) report(view string, ix *resolver.Index, lists ...[]Movement) {
	unclassified := 0
	for _, list := range lists {
		for _, m := range list {
			if !s.classifier.Known(m.State) {
				unclassified++
			}
		}
	}
	if n := ix.Unresolved(); n > 0 {
		s.log.Debug("unresolved location references", "view", view, "count", n)
	}
	if s.metrics != nil {
		s.metrics.AddUnresolved(view, ix.Unresolved())
		s.metrics.AddUnclassified(view, unclassified)
	}
}

func traceInt(key string, v int) trace.EventOption {
	return trace.WithAttributes(attribute.Int(key, v))
}
