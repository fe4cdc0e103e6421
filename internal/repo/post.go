package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

func (r *GormRepo) CreatePost(ctx context.Context, post *models.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *GormRepo) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *GormRepo) ListPosts(ctx context.Context, offset, limit int) (int64, []models.Post, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	posts := make([]models.Post, 0, limit)
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return 0, nil, err
	}
	return total, posts, nil
}

func (r *GormRepo) UpdatePost(ctx context.Context, id uint, title, subtitle, content string) (*models.Post, error) {
	res := r.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]any{
		"title":    title,
		"subtitle": subtitle,
		"content":  content,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetPost(ctx, id)
}

func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchByAuthor matches author against "first_name last_name",
// case-insensitively, as a substring.
func (r *GormRepo) SearchByAuthor(ctx context.Context, author string, offset, limit int) (int64, []models.Post, error) {
	where := `LOWER(users.first_name || ' ' || users.last_name) LIKE ? ESCAPE '\'`
	pattern := "%" + escapeLike(strings.ToLower(author)) + "%"

	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).
			Model(&models.Post{}).
			Joins("JOIN users ON users.id = posts.author_id").
			Where(where, pattern)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	posts := make([]models.Post, 0, limit)
	if err := base().
		Select("posts.*").
		Order("posts.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return 0, nil, err
	}
	return total, posts, nil
}

// SearchPosts is the SQL fallback for full-text search, used when the search
// index is absent, failing or has no hits.
func (r *GormRepo) SearchPosts(ctx context.Context, q string, offset, limit int) (int64, []models.Post, error) {
	where := `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(subtitle) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).
		Where(where, pattern, pattern, pattern).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	posts := make([]models.Post, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(where, pattern, pattern, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return 0, nil, err
	}
	return total, posts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
