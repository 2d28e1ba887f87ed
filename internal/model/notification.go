package model

import "time"

// Category selects a notification's icon and color.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryInfo    Category = "info"
)

// Variant is an optional display style for a notification.
type Variant string

const (
	VariantDefault Variant = ""
	// VariantHero emphasizes the photo and uses a larger content area.
	VariantHero Variant = "hero"
)

// Payload carries the optional recognition details shown on a notification.
type Payload struct {
	// Confidence is the match score in [0, 1]; nil when not supplied.
	Confidence *float64 `json:"confidence,omitempty"`

	// Timestamp is the server-side time of the attendance record.
	Timestamp string `json:"timestamp,omitempty"`

	// Photo references the employee's registered photo.
	Photo string `json:"photo,omitempty"`
}

// Notification is a transient, dismissible message surfaced to the user.
type Notification struct {
	// ID is the creation time in Unix milliseconds.
	ID int64 `json:"id"`

	Category Category `json:"category"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Variant  Variant  `json:"variant,omitempty"`
	Payload  Payload  `json:"payload"`

	// Duration is how long the notification stays before it starts exiting.
	Duration time.Duration `json:"duration"`

	// Exiting is set during the fade-out before removal.
	Exiting bool `json:"exiting"`

	CreatedAt time.Time `json:"created_at"`
}
