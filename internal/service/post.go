package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

// Indexer mirrors posts into a full-text index.
type Indexer interface {
	IndexPost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id uint) error
	SearchPosts(ctx context.Context, q string, from, size int) (int64, []models.Post, error)
}

type ImageRemover interface {
	Remove(rel string) error
}

type PostService struct {
	Repo   *repo.GormRepo
	Index  Indexer
	Images ImageRemover
	Events events.Publisher
}

func (s *PostService) Create(ctx context.Context, authorID uint, req transport.CreatePostRequest, imageURL *string) (*models.Post, error) {
	post := &models.Post{
		Title:    strings.TrimSpace(req.Title),
		Subtitle: strings.TrimSpace(req.Subtitle),
		Content:  req.Content,
		AuthorID: authorID,
		ImageURL: imageURL,
	}
	if blank(post.Title, post.Subtitle, post.Content) {
		return nil, ErrValidation
	}

	if err := s.Repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: create post: %w", ErrInternal, err)
	}

	s.index(ctx, *post)
	events.Publish(ctx, s.Events, events.TopicPosts, events.Event{
		Type:   events.PostCreated,
		UserID: authorID,
		PostID: post.ID,
		Title:  post.Title,
	})
	return post, nil
}

func (s *PostService) List(ctx context.Context, offset, limit int) (int64, []models.Post, error) {
	total, posts, err := s.Repo.ListPosts(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: list posts: %w", ErrInternal, err)
	}
	return total, posts, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.Repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get post: %w", ErrInternal, err)
	}
	return post, nil
}

// Update lets any authenticated caller edit any post.
func (s *PostService) Update(ctx context.Context, callerID, id uint, req transport.UpdatePostRequest) (*models.Post, error) {
	title, subtitle := strings.TrimSpace(req.Title), strings.TrimSpace(req.Subtitle)
	if blank(title, subtitle, req.Content) {
		return nil, ErrValidation
	}

	post, err := s.Repo.UpdatePost(ctx, id, title, subtitle, req.Content)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: update post: %w", ErrInternal, err)
	}

	s.index(ctx, *post)
	events.Publish(ctx, s.Events, events.TopicPosts, events.Event{
		Type:   events.PostUpdated,
		UserID: callerID,
		PostID: post.ID,
		Title:  post.Title,
	})
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, callerID, id uint) error {
	l := logging.FromContext(ctx).With("svc", "post.delete")

	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: delete post: %w", ErrInternal, err)
	}

	if s.Images != nil && post.ImageURL != nil {
		if err := s.Images.Remove(*post.ImageURL); err != nil {
			l.Error("remove_image_failed", "post_id", id, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.DeletePost(ctx, id); err != nil {
			l.Error("unindex_post_failed", "post_id", id, "error", err)
		}
	}

	events.Publish(ctx, s.Events, events.TopicPosts, events.Event{
		Type:   events.PostDeleted,
		UserID: callerID,
		PostID: id,
	})
	return nil
}

// SearchByAuthor returns ErrNotFound when nothing matches.
func (s *PostService) SearchByAuthor(ctx context.Context, author string, offset, limit int) (int64, []models.Post, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return 0, nil, ErrValidation
	}

	total, posts, err := s.Repo.SearchByAuthor(ctx, author, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: search by author: %w", ErrInternal, err)
	}
	if total == 0 {
		return 0, nil, ErrNotFound
	}
	return total, posts, nil
}

// Search uses the full-text index when one is configured and falls back to
// SQL matching when it is absent, failing or empty. Posts written before the
// index existed are only reachable through SQL.
func (s *PostService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, ErrValidation
	}

	if s.Index != nil {
		total, posts, err := s.Index.SearchPosts(ctx, q, offset, limit)
		switch {
		case err != nil:
			logging.FromContext(ctx).Error("search_index_failed", "reason", "falling back to sql", "error", err)
		case total > 0:
			return total, posts, nil
		}
	}

	total, posts, err := s.Repo.SearchPosts(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: search posts: %w", ErrInternal, err)
	}
	if total == 0 {
		return 0, nil, ErrNotFound
	}
	return total, posts, nil
}

func (s *PostService) index(ctx context.Context, post models.Post) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexPost(ctx, post); err != nil {
		logging.FromContext(ctx).Error("index_post_failed", "post_id", post.ID, "error", err)
	}
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}
