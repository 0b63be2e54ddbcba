package spot

import (
	"errors"
	"time"

	"backend-nextquest/internal/shared/geo"
)

// Category is the closed set of spot kinds.
type Category string

const (
	CategoryOutdoor Category = "Outdoor"
	CategoryFood    Category = "Food"
)

// Categories lists every valid Category.
var Categories = []Category{CategoryOutdoor, CategoryFood}

func (c Category) Valid() bool {
	return c == CategoryOutdoor || c == CategoryFood
}

var (
	// ErrNotPersisted is returned when an operation needs a saved spot.
	ErrNotPersisted    = errors.New("spot has not been saved yet; save the spot first")
	ErrNotFound        = errors.New("spot not found")
	ErrNotOwner        = errors.New("only the creator can change this spot")
	ErrAlreadySaved    = errors.New("spot already has an id")
	ErrInvalidCategory = errors.New("category must be Outdoor or Food")
)

// Fields are the user-editable attributes of a spot.
type Fields struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Address   string   `json:"address" validate:"max=500"`
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Category  Category `json:"category" validate:"required,oneof=Outdoor Food"`
}

// Coordinate returns the spot location.
func (f Fields) Coordinate() geo.Point {
	return geo.Point{Lat: f.Latitude, Lng: f.Longitude}
}

// Spot is the stored and transported form. An empty ID marks a draft.
type Spot struct {
	ID string `json:"id,omitempty"`
	Fields
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// State is either Draft or Persisted.
type State interface {
	fields() Fields
}

// Draft is a spot that has not been saved; its fields are editable.
type Draft struct {
	Fields Fields
}

// Persisted is a saved spot; its fields change only by full replacement.
type Persisted struct {
	ID        string
	Fields    Fields
	CreatedBy string
	CreatedAt time.Time
}

func (d Draft) fields() Fields     { return d.Fields }
func (p Persisted) fields() Fields { return p.Fields }

// State classifies s as Draft or Persisted.
func (s Spot) State() State {
	if s.ID == "" {
		return Draft{Fields: s.Fields}
	}
	return Persisted{ID: s.ID, Fields: s.Fields, CreatedBy: s.CreatedBy, CreatedAt: s.CreatedAt}
}

// RequirePersisted returns the persisted form of s or ErrNotPersisted.
func RequirePersisted(s Spot) (Persisted, error) {
	p, ok := s.State().(Persisted)
	if !ok {
		return Persisted{}, ErrNotPersisted
	}
	return p, nil
}

// Spot converts a Persisted back to the transport form.
func (p Persisted) Spot() Spot {
	return Spot{ID: p.ID, Fields: p.Fields, CreatedBy: p.CreatedBy, CreatedAt: p.CreatedAt}
}
