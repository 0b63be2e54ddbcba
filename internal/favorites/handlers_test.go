package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/stream"

	"github.com/gofiber/fiber/v2"
)

type savedSpots map[string]bool

func (s savedSpots) RequireSaved(_ context.Context, id string) error {
	if !s[id] {
		return spot.ErrNotPersisted
	}
	return nil
}

type recorder struct {
	topics []string
	events []stream.Event
}

func (r *recorder) Publish(_ context.Context, topic string, ev stream.Event) {
	r.topics = append(r.topics, topic)
	r.events = append(r.events, ev)
}

func newFavoritesApp(mgr *Manager, events stream.Publisher) *fiber.App {
	app := fiber.New()
	asUser := func(c *fiber.Ctx) error {
		c.Locals("identity", auth.Identity{UserID: "u1", Email: "ana@example.com"})
		return c.Next()
	}
	RegisterRoutes(app.Group("/favorites"), mgr, savedSpots{"A": true, "B": true}, asUser, events)
	return app
}

func decodeToggle(t *testing.T, resp *http.Response) toggleResponse {
	t.Helper()
	var body toggleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestFavoritesHandlersToggle(t *testing.T) {
	rec := &recorder{}
	app := newFavoritesApp(NewManager(newFakeStore()), rec)

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/favorites/B/toggle", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeToggle(t, resp)
	if !body.Favorite || !body.Persisted || body.SpotID != "B" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(rec.events) != 1 || rec.events[0].Type != stream.FavoritesChanged || rec.topics[0] != stream.UserTopic("u1") {
		t.Fatalf("expected favorites.changed on the user topic, got %v %+v", rec.topics, rec.events)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/favorites/", nil))
	var list struct {
		SpotIDs  []string `json:"spot_ids"`
		Degraded bool     `json:"degraded"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&list)
	if len(list.SpotIDs) != 1 || list.SpotIDs[0] != "B" || list.Degraded {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestFavoritesHandlersWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("boom")
	app := newFavoritesApp(NewManager(store), stream.Discard{})

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/favorites/A/toggle", nil))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	body := decodeToggle(t, resp)
	if !body.Favorite || body.Persisted || body.Error == "" {
		t.Fatalf("expected unpersisted add with error, got %+v", body)
	}
}

func TestFavoritesHandlersDraftSpot(t *testing.T) {
	app := newFavoritesApp(NewManager(newFakeStore()), stream.Discard{})

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/favorites/draft/toggle", nil))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestFavoritesHandlersDegradedList(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("down")
	app := newFavoritesApp(NewManager(store), stream.Discard{})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/favorites/", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Degraded bool `json:"degraded"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&list)
	if !list.Degraded {
		t.Fatalf("expected degraded flag")
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/favorites/A/toggle", nil))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when favorites cannot be loaded, got %d", resp.StatusCode)
	}
}

func TestFavoritesHandlersForget(t *testing.T) {
	mgr := NewManager(newFakeStore())
	app := newFavoritesApp(mgr, stream.Discard{})

	_, _ = app.Test(httptest.NewRequest(http.MethodPost, "/favorites/A/toggle", nil))
	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/favorites/forget", nil))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if mgr.Contains("u1", "A") {
		t.Fatalf("forget should drop local state")
	}
}
