package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/result"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2/"

// Config holds remote source configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// DetailConcurrency bounds the per-page detail fan-out.
	DetailConcurrency int
}

// Client fetches Pokemon from the PokeAPI REST service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	logger      *slog.Logger
}

// NewClient creates a client. Zero config values fall back to defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.DetailConcurrency <= 0 {
		cfg.DetailConcurrency = 16
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		concurrency: cfg.DetailConcurrency,
		logger:      logger,
	}
}

// BaseURL returns the API root, used by the connectivity prober.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPage lists one page of references and fetches every detail
// concurrently. A failed detail drops that entry; the page only fails when
// the listing itself fails. Page order is preserved.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) result.Result[[]model.Pokemon] {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var list listResponse
	found, res := getJSON[[]model.Pokemon](ctx, c, "pokemon?"+q.Encode(), &list)
	if !res.IsOk() {
		return res
	}
	if !found {
		return result.Ok([]model.Pokemon{})
	}

	details := make([]*model.Pokemon, len(list.Results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	seen := make(map[int]bool, len(list.Results))
	for i, ref := range list.Results {
		id, err := ref.id()
		if err != nil {
			c.logger.Debug("skip page entry", "name", ref.Name, "error", err)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			p, ok := c.FetchByID(gctx, id).Get()
			if !ok {
				c.logger.Debug("drop page entry", "id", id)
				return nil
			}
			details[i] = &p
			return nil
		})
	}
	// Detail goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result.Err[[]model.Pokemon](result.KindNetwork, err.Error())
	}

	out := make([]model.Pokemon, 0, len(details))
	for _, p := range details {
		if p != nil {
			out = append(out, *p)
		}
	}
	return result.Ok(out)
}

func (c *Client) FetchByID(ctx context.Context, id int) result.Result[model.Pokemon] {
	return c.fetchDetail(ctx, "pokemon/"+strconv.Itoa(id))
}

// FetchByName looks a Pokemon up by its lower-cased name.
func (c *Client) FetchByName(ctx context.Context, name string) result.Result[model.Pokemon] {
	name = strings.ToLower(strings.TrimSpace(name))
	return c.fetchDetail(ctx, "pokemon/"+url.PathEscape(name))
}

func (c *Client) fetchDetail(ctx context.Context, path string) result.Result[model.Pokemon] {
	var d detailResponse
	found, res := getJSON[model.Pokemon](ctx, c, path, &d)
	if !res.IsOk() {
		return res
	}
	if !found {
		return result.Err[model.Pokemon](result.KindNotFound, "Pokemon not found")
	}
	return result.Ok(d.toModel())
}

// getJSON performs a GET and decodes the body into dst. found is false when
// the response was 2xx but carried no body (or a JSON null).
func getJSON[T any](ctx context.Context, c *Client, path string, dst any) (found bool, res result.Result[T]) {
	var zero T
	res = result.Ok(zero)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, result.Err[T](result.KindNetwork, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, result.Err[T](result.KindNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, result.Errf[T](result.KindNetwork, "Error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, result.Err[T](result.KindNetwork, fmt.Sprintf("read response: %v", err))
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return false, res
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return false, result.Err[T](result.KindNetwork, fmt.Sprintf("decode response: %v", err))
	}
	return true, res
}
