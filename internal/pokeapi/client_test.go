package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/result"
)

const pikachuJSON = `{
	"id": 25,
	"name": "pikachu",
	"height": 4,
	"weight": 60,
	"sprites": {
		"front_default": "https://img.example/front/25.png",
		"other": {"official-artwork": {"front_default": "https://img.example/art/25.png"}}
	},
	"types": [{"slot": 1, "type": {"name": "electric", "url": ""}}],
	"stats": [
		{"base_stat": 35, "effort": 0, "stat": {"name": "hp", "url": ""}},
		{"base_stat": 55, "effort": 0, "stat": {"name": "attack", "url": ""}},
		{"base_stat": 40, "effort": 0, "stat": {"name": "defense", "url": ""}},
		{"base_stat": 50, "effort": 0, "stat": {"name": "special-attack", "url": ""}},
		{"base_stat": 50, "effort": 0, "stat": {"name": "special-defense", "url": ""}},
		{"base_stat": 90, "effort": 2, "stat": {"name": "speed", "url": ""}}
	]
}`

func detailJSON(id int, name string) string {
	return fmt.Sprintf(`{"id": %d, "name": %q, "height": 7, "weight": 69,
		"sprites": {"front_default": null, "other": null},
		"types": [{"slot": 1, "type": {"name": "grass"}}, {"slot": 2, "type": {"name": "shadow"}}],
		"stats": []}`, id, name)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api/v2"}, slog.Default())
}

func TestFetchByID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/pokemon/25" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(pikachuJSON))
	}))

	p, ok := c.FetchByID(context.Background(), 25).Get()
	if !ok {
		t.Fatal("expected ok result")
	}
	if p.Name != "Pikachu" {
		t.Errorf("name = %q, want capitalized %q", p.Name, "Pikachu")
	}
	if p.ImageURL != "https://img.example/art/25.png" {
		t.Errorf("image = %q, want official artwork", p.ImageURL)
	}
	if len(p.Types) != 1 || p.Types[0] != model.CategoryElectric {
		t.Errorf("types = %v", p.Types)
	}
	if p.HP != 35 || p.Attack != 55 || p.Defense != 40 || p.SpecialAttack != 50 || p.SpecialDefense != 50 || p.Speed != 90 {
		t.Errorf("stats = %+v", p)
	}
	if p.Height != 4 || p.Weight != 60 {
		t.Errorf("height/weight = %d/%d", p.Height, p.Weight)
	}
}

func TestFetchByIDHTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	res := c.FetchByID(context.Background(), 1)
	if res.IsOk() {
		t.Fatal("expected failure")
	}
	if res.Kind() != result.KindNetwork {
		t.Errorf("kind = %v, want network", res.Kind())
	}
	if res.Message() != "Error: 500 - Internal Server Error" {
		t.Errorf("message = %q", res.Message())
	}
}

func TestFetchByIDEmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	res := c.FetchByID(context.Background(), 1)
	if res.Kind() != result.KindNotFound {
		t.Errorf("kind = %v, want not_found", res.Kind())
	}
	if res.Message() != "Pokemon not found" {
		t.Errorf("message = %q", res.Message())
	}
}

func TestFetchByIDMalformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "not a number"`))
	}))

	res := c.FetchByID(context.Background(), 1)
	if res.IsOk() {
		t.Fatal("expected failure for malformed body")
	}
	if !strings.HasPrefix(res.Message(), "decode response") {
		t.Errorf("message = %q", res.Message())
	}
}

func TestFetchByIDTransportError(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, slog.Default())
	res := c.FetchByID(context.Background(), 1)
	if res.IsOk() || res.Kind() != result.KindNetwork {
		t.Errorf("result = %v %q, want network failure", res.Kind(), res.Message())
	}
}

func TestFetchByNameLowercases(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(pikachuJSON))
	}))

	if _, ok := c.FetchByName(context.Background(), "  PikaChu ").Get(); !ok {
		t.Fatal("expected ok")
	}
	if gotPath != "/api/v2/pokemon/pikachu" {
		t.Errorf("path = %q, want /api/v2/pokemon/pikachu", gotPath)
	}
}

func TestFetchByNameNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	res := c.FetchByName(context.Background(), "missingno")
	if res.IsOk() {
		t.Fatal("expected failure")
	}
	if res.Message() != "Error: 404 - Not Found" {
		t.Errorf("message = %q", res.Message())
	}
}

func TestImageFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/pokemon/1":
			w.Write([]byte(detailJSON(1, "bulbasaur")))
		case "/api/v2/pokemon/2":
			w.Write([]byte(`{"id": 2, "name": "ivysaur", "sprites": {"front_default": "https://img.example/front/2.png", "other": {"official-artwork": {"front_default": null}}}}`))
		}
	}))

	p, _ := c.FetchByID(context.Background(), 1).Get()
	want := "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/1.png"
	if p.ImageURL != want {
		t.Errorf("fallback image = %q, want %q", p.ImageURL, want)
	}
	if len(p.Types) != 2 || p.Types[1] != model.CategoryUnknown {
		t.Errorf("types = %v, want [GRASS UNKNOWN]", p.Types)
	}

	p, _ = c.FetchByID(context.Background(), 2).Get()
	if p.ImageURL != "https://img.example/front/2.png" {
		t.Errorf("front default image = %q", p.ImageURL)
	}
}

func pageHandler(t *testing.T, ids []int, failing map[int]bool, detailCalls *atomic.Int32) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/pokemon", func(w http.ResponseWriter, r *http.Request) {
		var list listResponse
		for _, id := range ids {
			list.Results = append(list.Results, namedReference{
				Name: fmt.Sprintf("p%d", id),
				URL:  fmt.Sprintf("https://pokeapi.co/api/v2/pokemon/%d/", id),
			})
		}
		json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("GET /api/v2/pokemon/{id}", func(w http.ResponseWriter, r *http.Request) {
		if detailCalls != nil {
			detailCalls.Add(1)
		}
		var id int
		fmt.Sscanf(r.PathValue("id"), "%d", &id)
		if failing[id] {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(detailJSON(id, fmt.Sprintf("p%d", id))))
	})
	return mux
}

func TestFetchPage(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, pageHandler(t, []int{4, 1, 25}, nil, &calls))

	list, ok := c.FetchPage(context.Background(), 3, 0).Get()
	if !ok {
		t.Fatal("expected ok")
	}
	want := []int{4, 1, 25}
	if len(list) != len(want) {
		t.Fatalf("len = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d].ID = %d, want %d (page order)", i, list[i].ID, id)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("detail calls = %d, want 3", calls.Load())
	}
}

func TestFetchPageDropsFailedDetails(t *testing.T) {
	c := newTestClient(t, pageHandler(t, []int{1, 2, 3}, map[int]bool{2: true}, nil))

	list, ok := c.FetchPage(context.Background(), 3, 0).Get()
	if !ok {
		t.Fatal("page should succeed with partial results")
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Errorf("list = %v, want ids [1 3]", list)
	}
}

func TestFetchPageUniqueIDs(t *testing.T) {
	c := newTestClient(t, pageHandler(t, []int{1, 2, 1, 2}, nil, nil))

	list, _ := c.FetchPage(context.Background(), 4, 0).Get()
	seen := map[int]bool{}
	for _, p := range list {
		if seen[p.ID] {
			t.Errorf("duplicate id %d in page", p.ID)
		}
		seen[p.ID] = true
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}
}

func TestFetchPageQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"count": 0, "results": []}`))
	}))

	list, ok := c.FetchPage(context.Background(), 20, 40).Get()
	if !ok {
		t.Fatal("expected ok")
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
	if gotQuery != "limit=20&offset=40" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestFetchPageListFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	res := c.FetchPage(context.Background(), 20, 0)
	if res.IsOk() {
		t.Fatal("expected failure")
	}
	if res.Message() != "Error: 503 - Service Unavailable" {
		t.Errorf("message = %q", res.Message())
	}
}

func TestReferenceID(t *testing.T) {
	tests := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{"https://pokeapi.co/api/v2/pokemon/25/", 25, false},
		{"https://pokeapi.co/api/v2/pokemon/1", 1, false},
		{"https://pokeapi.co/api/v2/pokemon/abc/", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := namedReference{URL: tt.url}.id()
		if (err != nil) != tt.wantErr {
			t.Errorf("id(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("id(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}
