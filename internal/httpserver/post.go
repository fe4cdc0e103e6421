package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/upload"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type PostHTTP struct {
	Svc    *service.PostService
	Images *upload.Store
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	return uint(id), nil
}

// withImageURL turns stored relative image paths into absolute URLs on this
// host.
func withImageURL(c echo.Context, post models.Post) models.Post {
	if post.ImageURL == nil || *post.ImageURL == "" {
		post.ImageURL = nil
		return post
	}
	if strings.HasPrefix(*post.ImageURL, "http://") || strings.HasPrefix(*post.ImageURL, "https://") {
		return post
	}
	abs := c.Scheme() + "://" + c.Request().Host + "/" + strings.TrimPrefix(*post.ImageURL, "/")
	post.ImageURL = &abs
	return post
}

func withImageURLs(c echo.Context, posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		out[i] = withImageURL(c, p)
	}
	return out
}

func (h *PostHTTP) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.create")

	claims, _ := auth.ClaimsFrom(c)
	req, err := payload[transport.CreatePostRequest](c, l, "post_create_error")
	if err != nil {
		return err
	}

	var imageURL *string
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		if h.Images == nil {
			l.Warn("post_create_error", "status", 400, "reason", "uploads disabled")
			return echo.NewHTTPError(http.StatusBadRequest, "image uploads are disabled")
		}
		rel, err := h.Images.Save(fh)
		if err != nil {
			if errors.Is(err, upload.ErrUnsupportedType) || errors.Is(err, upload.ErrTooLarge) {
				l.Warn("post_create_error", "status", 400, "reason", "invalid image", "error", err)
				return echo.NewHTTPError(http.StatusBadRequest, "invalid image")
			}
			l.Error("post_create_error", "status", 500, "reason", "cannot store image", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot store image")
		}
		imageURL = &rel
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		l.Warn("post_create_error", "status", 400, "reason", "invalid multipart body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	post, err := h.Svc.Create(ctx, claims.ID, req, imageURL)
	if err != nil {
		if imageURL != nil {
			_ = h.Images.Remove(*imageURL)
		}
		return fail(l, "post_create_error", err, "post not found")
	}

	l.Info("create_post_success", "post_id", post.ID)
	return c.JSON(http.StatusCreated, transport.OK("Blog created successfully", withImageURL(c, *post)))
}

func (h *PostHTTP) GetPosts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.get_posts")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, posts, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_posts_error", err, "posts not found")
	}

	resp := transport.OK("Successfully retrieved all blog posts", withImageURLs(c, posts))
	resp.Meta = util.NewMeta(page, offset, limit, total)
	return c.JSON(http.StatusOK, resp)
}

func (h *PostHTTP) GetPost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.get_post")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_post_error", "status", 400, "reason", "id is not an integer", "id", c.Param("id"))
		return err
	}

	post, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_post_error", err, "Post not found")
	}

	return c.JSON(http.StatusOK, transport.OK("Successfully retrieved the post", withImageURL(c, *post)))
}

// SearchPosts takes either author (matches "first last" of the author) or q
// (full-text over title, subtitle and content).
func (h *PostHTTP) SearchPosts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var (
		total int64
		posts []models.Post
		err   error
		msg   string
	)
	switch author, q := c.QueryParam("author"), c.QueryParam("q"); {
	case strings.TrimSpace(author) != "":
		total, posts, err = h.Svc.SearchByAuthor(ctx, author, offset, limit)
		msg = "Successfully retrieved blog posts by the specified author"
		if err != nil {
			return fail(l, "search_posts_error", err, "No blog posts found for the specified author")
		}
	case strings.TrimSpace(q) != "":
		total, posts, err = h.Svc.Search(ctx, q, offset, limit)
		msg = "Successfully retrieved matching blog posts"
		if err != nil {
			return fail(l, "search_posts_error", err, "No blog posts found")
		}
	default:
		l.Warn("search_posts_error", "status", 400, "reason", "missing author or q")
		return echo.NewHTTPError(http.StatusBadRequest, "author or q query parameter is required")
	}

	resp := transport.OK(msg, withImageURLs(c, posts))
	resp.Meta = util.NewMeta(page, offset, limit, total)
	return c.JSON(http.StatusOK, resp)
}

func (h *PostHTTP) UpdatePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.update")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_post_error", "status", 400, "reason", "id is not an integer", "id", c.Param("id"))
		return err
	}

	claims, _ := auth.ClaimsFrom(c)
	req, err := payload[transport.UpdatePostRequest](c, l, "update_post_error")
	if err != nil {
		return err
	}

	post, err := h.Svc.Update(ctx, claims.ID, id, req)
	if err != nil {
		return fail(l, "update_post_error", err, "Post not found")
	}

	l.Info("update_post_success", "post_id", id)
	return c.JSON(http.StatusOK, transport.OK("Post updated successfully", withImageURL(c, *post)))
}

func (h *PostHTTP) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_post_error", "status", 400, "reason", "id is not an integer", "id", c.Param("id"))
		return err
	}

	claims, _ := auth.ClaimsFrom(c)
	if err := h.Svc.Delete(ctx, claims.ID, id); err != nil {
		return fail(l, "delete_post_error", err, "Post not found")
	}

	l.Info("delete_post_success", "post_id", id)
	return c.JSON(http.StatusOK, transport.OK("Post deleted successfully", nil))
}
