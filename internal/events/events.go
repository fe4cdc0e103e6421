// Package events publishes best-effort domain events about users and posts.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

const (
	TopicUsers = "user_events"
	TopicPosts = "post_events"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	UserUpdated     = "user_updated"
	PasswordChanged = "password_changed"

	PostCreated = "post_created"
	PostUpdated = "post_updated"
	PostDeleted = "post_deleted"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type   string    `json:"type"`
	UserID uint      `json:"user_id"`
	PostID uint      `json:"post_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishEvent(context.Context, string, string, any) error { return nil }

// Publish sends ev and only logs failures. It detaches from the caller's
// cancellation so a finished request does not abort the write.
func Publish(ctx context.Context, p Publisher, topic string, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	l := logging.FromContext(ctx)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	key := strconv.FormatUint(uint64(ev.UserID), 10)
	if topic == TopicPosts && ev.PostID != 0 {
		key = strconv.FormatUint(uint64(ev.PostID), 10)
	}

	if err := p.PublishEvent(pubCtx, topic, key, ev); err != nil {
		l.Error("publish_event_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
