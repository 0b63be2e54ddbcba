package review

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("review not found")
	ErrNotReviewer = errors.New("only the reviewer can change this review")
	ErrInvalid     = errors.New("invalid review")
)

// Review belongs to exactly one spot. Reviewer is the author's email.
type Review struct {
	ID       string    `json:"id"`
	SpotID   string    `json:"spot_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Rating   int       `json:"rating"`
	Reviewer string    `json:"reviewer"`
	PostedOn time.Time `json:"posted_on"`
}

// Input is the editable part of a review. Rating is a pointer so a missing
// value is rejected instead of read as zero stars.
type Input struct {
	Title  string `json:"title" validate:"max=200"`
	Body   string `json:"body" validate:"max=5000"`
	Rating *int   `json:"rating" validate:"required,gte=0,lte=5"`
}
