package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
	"github.com/pkg/errors"
)

const maxBodyBytes = 8 << 20

// Observer receives one call per finished request; endpoint is a low-cardinality name.
type Observer interface {
	ObserveUpstream(endpoint string, statusCode int, d time.Duration)
}

type Options struct {
	LocationsPath string
	MovementsPath string
	MovementsKey  string
	Timeout       time.Duration
	Observer      Observer
}

type Client struct {
	baseURL       string
	locationsPath string
	movementsPath string
	movementsKey  string
	httpc         *http.Client
	obs           Observer
}

func New(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	if opts.LocationsPath == "" {
		opts.LocationsPath = "/locations"
	}
	if opts.MovementsPath == "" {
		opts.MovementsPath = "/movements"
	}
	if opts.MovementsKey == "" {
		opts.MovementsKey = "flights"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		locationsPath: opts.LocationsPath,
		movementsPath: opts.MovementsPath,
		movementsKey:  opts.MovementsKey,
		httpc: &http.Client{
			Timeout: opts.Timeout,
		},
		obs: opts.Observer,
	}
}

func (c *Client) ListLocations(ctx context.Context) ([]models.Location, error) {
	body, err := c.get(ctx, "locations", nil, c.locationsPath)
	if err != nil {
		return nil, err
	}
	return paging.Items[models.Location](body), nil
}

func (c *Client) GetLocation(ctx context.Context, id models.ID) (models.Location, error) {
	body, err := c.get(ctx, "location", nil, c.locationsPath, url.PathEscape(string(id)))
	if err != nil {
		return models.Location{}, err
	}
	// A body that is not a location object degrades to the bare identifier.
	var l models.Location
	if json.Unmarshal(body, &l) != nil {
		l = models.Location{}
	}
	if l.ID == "" {
		l.ID = id
	}
	return l, nil
}

func (c *Client) ListDepartures(ctx context.Context, locationID models.ID) ([]models.Movement, error) {
	body, err := c.get(ctx, "departures", nil, c.locationsPath, url.PathEscape(string(locationID)), "departures")
	if err != nil {
		return nil, err
	}
	return paging.Items[models.Movement](body), nil
}

func (c *Client) ListArrivals(ctx context.Context, locationID models.ID) ([]models.Movement, error) {
	body, err := c.get(ctx, "arrivals", nil, c.locationsPath, url.PathEscape(string(locationID)), "arrivals")
	if err != nil {
		return nil, err
	}
	return paging.Items[models.Movement](body), nil
}

func (c *Client) ListMovements(ctx context.Context, page, size int) (paging.State[models.Movement], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	body, err := c.get(ctx, "movements", q, c.movementsPath)
	if err != nil {
		return paging.State[models.Movement]{}, err
	}
	return paging.Reconcile[models.Movement](body, c.movementsKey), nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, segments ...string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	elems := make([]string, 0, len(segments))
	for _, seg := range segments {
		for _, part := range strings.Split(strings.Trim(seg, "/"), "/") {
			if part != "" {
				elems = append(elems, part)
			}
		}
	}
	u = u.JoinPath(elems...)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return nil, &upstream.APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func (c *Client) observe(endpoint string, code int, start time.Time) {
	if c.obs != nil {
		c.obs.ObserveUpstream(endpoint, code, time.Since(start))
	}
}

// errorMessage pulls a human-readable message out of an error body without assuming its shape.
func errorMessage(body []byte) string {
	var m map[string]json.RawMessage
	if json.Unmarshal(body, &m) != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail"} {
		var s string
		if raw, ok := m[key]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var _ upstream.Client = (*Client)(nil)
