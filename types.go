package authsession

import (
	"io"
	"time"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
)

// UserRecord is the in-memory user representation owned by the session state
// container. It is never persisted: token material is the only durable state,
// and user data is re-fetched from the backend so a stale stored role can
// never grant anything.
type UserRecord struct {
	ID               string
	Email            string
	DisplayName      string
	FirstName        string
	LastName         string
	Role             string
	Verified         bool
	Active           bool
	SubscriptionTier string
	AvatarURL        string
	Bio              string
	CreatedAt        time.Time
	LastCheckIn      *time.Time

	// Placeholder marks the synthetic record installed when restoration kept
	// the session authenticated through a transient backend failure. UIs
	// should render a loading state for it, not the empty field values.
	Placeholder bool
}

func userFromProfile(p *api.UserProfile) UserRecord {
	return UserRecord{
		ID:               p.ID,
		Email:            p.Email,
		DisplayName:      p.DisplayName,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Role:             p.Role,
		Verified:         p.IsVerified,
		Active:           p.IsActive,
		SubscriptionTier: p.SubscriptionTier,
		AvatarURL:        p.AvatarURL,
		Bio:              p.Bio,
		CreatedAt:        p.CreatedAt,
		LastCheckIn:      p.LastCheckIn,
	}
}

// UserUpdate is a shallow partial update applied by [SessionState.UpdateUser].
// Nil fields are left untouched.
type UserUpdate struct {
	DisplayName      *string
	FirstName        *string
	LastName         *string
	AvatarURL        *string
	Bio              *string
	Role             *string
	Verified         *bool
	SubscriptionTier *string
	LastCheckIn      *time.Time
}

// SessionSnapshot is a point-in-time copy of the session state container.
type SessionSnapshot struct {
	Authenticated bool
	User          *UserRecord
	Loading       bool
	Err           string
}

// RestoreState defines a public type used by authsession APIs.
//
// RestoreState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RestoreState uint8

const (
	// RestoreUninitialized is an exported constant or variable used by the session engine.
	RestoreUninitialized RestoreState = iota
	// RestoreRestoring is an exported constant or variable used by the session engine.
	RestoreRestoring
	// RestoreInitialized is an exported constant or variable used by the session engine.
	RestoreInitialized
	// RestoreFailed is an exported constant or variable used by the session engine.
	RestoreFailed
)

func (s RestoreState) String() string {
	switch s {
	case RestoreUninitialized:
		return "uninitialized"
	case RestoreRestoring:
		return "restoring"
	case RestoreInitialized:
		return "initialized"
	case RestoreFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is a structured lifecycle event emitted by the engine.
type Event = events.Event

// EventSink receives [Event] values from the engine's dispatcher.
type EventSink = events.Sink

// NoOpSink is an [EventSink] that silently discards all events.
type NoOpSink = events.NoOpSink

// ChannelSink is a buffered channel-based [EventSink].
type ChannelSink = events.ChannelSink

// JSONWriterSink is an [EventSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = events.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return events.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return events.NewJSONWriterSink(w)
}
