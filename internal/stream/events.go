package stream

import (
	"context"
	"time"
)

// Event types delivered to stream subscribers.
const (
	SpotSaved        = "spot.saved"
	ReviewSaved      = "review.saved"
	ReviewDeleted    = "review.deleted"
	PhotoSaved       = "photo.saved"
	FavoritesChanged = "favorites.changed"
)

// TopicSpots carries every spot, review and photo change.
const TopicSpots = "spots"

// UserTopic is the private topic of one user.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Event tells clients that something they may have ranked changed; they
// refetch rather than patch local state.
type Event struct {
	Type   string    `json:"type"`
	SpotID string    `json:"spot_id,omitempty"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher fans events out to subscribers of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, string, Event) {}
