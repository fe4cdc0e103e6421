package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/db/dbtest"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakePublisher) PublishEvent(_ context.Context, _ string, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event.(events.Event))
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	repo   *repo.GormRepo
	issuer *tokens.Issuer
	pub    *fakePublisher
	users  *UserService
	posts  *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuer, err := tokens.NewIssuer([]byte("service-test-secret"), time.Hour)
	require.NoError(t, err)

	r := repo.New(dbtest.Open(t))
	pub := &fakePublisher{}
	return &fixture{
		repo:   r,
		issuer: issuer,
		pub:    pub,
		users:  &UserService{Repo: r, Tokens: issuer, Events: pub},
		posts:  &PostService{Repo: r, Events: pub},
	}
}
