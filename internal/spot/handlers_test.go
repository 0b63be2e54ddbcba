package spot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

type recorder struct {
	mu     sync.Mutex
	events []stream.Event
}

func (r *recorder) Publish(_ context.Context, _ string, ev stream.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("identity", auth.Identity{UserID: userID, Email: userID + "@example.com"})
		return c.Next()
	}
}

func newSpotApp(mock pgxmock.PgxPoolIface, userID string, events stream.Publisher) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/spots"), NewService(mock), asUser(userID), events)
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSpotHandlersCreateAndGet(t *testing.T) {
	mock := newMock(t)
	rec := &recorder{}
	app := newSpotApp(mock, "user-1", rec)

	mock.ExpectQuery(`INSERT INTO spots`).
		WithArgs(pgxmock.AnyArg(), "Pier 39", pier.Address, pier.Latitude, pier.Longitude, "Food", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/spots/", Spot{Fields: pier}))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d %v", resp.StatusCode, err)
	}
	var created Spot
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.CreatedBy != "user-1" {
		t.Fatalf("unexpected spot %+v", created)
	}
	if len(rec.events) != 1 || rec.events[0].Type != stream.SpotSaved || rec.events[0].SpotID != created.ID {
		t.Fatalf("expected spot.saved event, got %+v", rec.events)
	}

	mock.ExpectQuery(`FROM spots WHERE id=\$1`).
		WithArgs(created.ID).
		WillReturnRows(pgxmock.NewRows(spotRowColumns).
			AddRow(created.ID, pier.Name, pier.Address, pier.Latitude, pier.Longitude, "Food", "user-1", time.Now()))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/spots/"+created.ID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}
}

func TestSpotHandlersRejectInvalidPayloads(t *testing.T) {
	app := newSpotApp(nil, "user-1", stream.Discard{})

	cases := []any{
		Spot{Fields: Fields{Category: CategoryFood}},
		Spot{Fields: Fields{Name: "X", Category: "Museum"}},
		Spot{Fields: Fields{Name: "X", Category: CategoryFood, Latitude: 91}},
		Spot{ID: "already", Fields: pier},
	}
	for i, body := range cases {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/spots/", body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}
}

func TestSpotHandlersReplaceByOtherUser(t *testing.T) {
	mock := newMock(t)
	app := newSpotApp(mock, "user-2", stream.Discard{})

	mock.ExpectQuery(`FROM spots WHERE id=\$1`).
		WithArgs("spot-1").
		WillReturnRows(pgxmock.NewRows(spotRowColumns).
			AddRow("spot-1", pier.Name, pier.Address, pier.Latitude, pier.Longitude, "Food", "user-1", time.Now()))

	resp, _ := app.Test(jsonRequest(http.MethodPut, "/spots/spot-1", pier))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSpotHandlersLookup(t *testing.T) {
	app := newSpotApp(nil, "user-1", stream.Discard{})

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/spots/lookup", lookupRequest{
		Placemark: Placemark{Name: "Ferry Building", SubThoroughfare: "1", Thoroughfare: "Ferry Building", Locality: "San Francisco", AdministrativeArea: "CA", Country: "United States", Latitude: 37.79, Longitude: -122.39},
		Category:  CategoryFood,
	}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookup status %d", resp.StatusCode)
	}
	var draft Spot
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if draft.ID != "" || draft.Address != "1 Ferry Building, San Francisco, CA, United States" {
		t.Fatalf("unexpected draft %+v", draft)
	}

	resp, _ = app.Test(jsonRequest(http.MethodPost, "/spots/lookup", lookupRequest{Category: "Museum"}))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad category, got %d", resp.StatusCode)
	}
}

func TestSpotHandlersMapsURL(t *testing.T) {
	mock := newMock(t)
	app := newSpotApp(mock, "user-1", stream.Discard{})

	mock.ExpectQuery(`FROM spots WHERE id=\$1`).
		WithArgs("spot-1").
		WillReturnRows(pgxmock.NewRows(spotRowColumns).
			AddRow("spot-1", "Pier 39", "", 37.81, -122.41, "Food", "user-1", time.Now()))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/spots/spot-1/maps-url", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("maps-url status %d", resp.StatusCode)
	}
	var body struct {
		URL string `json:"url"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.HasPrefix(body.URL, "http://maps.apple.com/?") || !strings.Contains(body.URL, "daddr=37.81%2C-122.41") {
		t.Fatalf("unexpected url %q", body.URL)
	}
}

func TestSpotHandlersStoreFailure(t *testing.T) {
	mock := newMock(t)
	app := newSpotApp(mock, "user-1", stream.Discard{})

	mock.ExpectQuery(`FROM spots ORDER BY`).WillReturnError(context.DeadlineExceeded)
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/spots/", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
