package board_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/BearBump/FlightBoard/internal/fetcher"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
	"github.com/BearBump/FlightBoard/internal/services/board"
	"github.com/go-chi/chi/v5"
)

type BoardService interface {
	Locations(ctx context.Context) ([]models.Location, error)
	LocationBoard(ctx context.Context, id models.ID) (board.Board, error)
	MovementPage(ctx context.Context, uiPage, knownTotal int) (board.MovementPage, error)
}

type HistoryService interface {
	ListMovementHistory(ctx context.Context, movementID models.ID, limit, offset int) ([]*models.StateChange, error)
	ListViewChecks(ctx context.Context) ([]*models.ViewCheck, error)
}

// BoardAPI serves every collection as the {loading, error, data} triple.
type BoardAPI struct {
	boards  BoardService
	history HistoryService
	obs     fetcher.Observer
	log     logger.Logger
}

// New wires the handlers. history may be nil when no database is configured;
// its routes then answer 503.
func New(boards BoardService, history HistoryService, obs fetcher.Observer, log logger.Logger) *BoardAPI {
	if log == nil {
		log = logger.Nop()
	}
	return &BoardAPI{boards: boards, history: history, obs: obs, log: log}
}

func (a *BoardAPI) Routes(r chi.Router) {
	r.Get("/v1/locations", a.listLocations)
	r.Get("/v1/locations/{id}/board", a.locationBoard)
	r.Get("/v1/movements", a.listMovements)
	r.Get("/v1/movements/{id}/history", a.movementHistory)
	r.Get("/v1/views", a.listViews)
}

func (a *BoardAPI) listLocations(w http.ResponseWriter, r *http.Request) {
	serve(w, r, a, "locations", "locations", a.boards.Locations)
}

func (a *BoardAPI) locationBoard(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	serve(w, r, a, "board", "board:"+string(id), func(ctx context.Context) (board.Board, error) {
		return a.boards.LocationBoard(ctx, id)
	})
}

func (a *BoardAPI) listMovements(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok {
		writeState(w, http.StatusBadRequest, fetcher.Failed[board.MovementPage]("page must be an integer"))
		return
	}
	total, ok := queryInt(r, "total", paging.UnknownTotal)
	if !ok {
		writeState(w, http.StatusBadRequest, fetcher.Failed[board.MovementPage]("total must be an integer"))
		return
	}
	serve(w, r, a, "movements", "movements:"+strconv.Itoa(page), func(ctx context.Context) (board.MovementPage, error) {
		return a.boards.MovementPage(ctx, page, total)
	})
}

func (a *BoardAPI) movementHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeState(w, http.StatusServiceUnavailable, fetcher.Failed[[]*models.StateChange]("history store not wired"))
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeState(w, http.StatusBadRequest, fetcher.Failed[[]*models.StateChange]("limit must be an integer"))
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeState(w, http.StatusBadRequest, fetcher.Failed[[]*models.StateChange]("offset must be an integer"))
		return
	}
	id := models.ID(chi.URLParam(r, "id"))
	serve(w, r, a, "history", "history:"+string(id), func(ctx context.Context) ([]*models.StateChange, error) {
		return a.history.ListMovementHistory(ctx, id, limit, offset)
	})
}

func (a *BoardAPI) listViews(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeState(w, http.StatusServiceUnavailable, fetcher.Failed[[]*models.ViewCheck]("history store not wired"))
		return
	}
	serve(w, r, a, "views", "views", a.history.ListViewChecks)
}

// serve runs one fetch cycle bound to the request and writes its final state.
func serve[T any](w http.ResponseWriter, r *http.Request, a *BoardAPI, view, key string, fn func(ctx context.Context) (T, error)) {
	var cause error
	v := fetcher.NewView[T](view, a.obs)
	defer v.Close()

	st, _ := v.Load(r.Context(), key, func(ctx context.Context) (T, error) {
		data, err := fn(ctx)
		cause = err
		return data, err
	})
	if cause != nil {
		a.log.Warn("fetch failed", "view", view, "key", key, "error", cause)
	}
	writeState(w, statusFor(cause), st)
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, context.Canceled) {
		// client went away; the code is never read
		return http.StatusServiceUnavailable
	}
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeState[T any](w http.ResponseWriter, code int, st fetcher.State[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
