package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/db"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/validation"
)

type Deps struct {
	UserHandler *UserHTTP
	PostHandler *PostHTTP
	Gate        *auth.Gate
	Validator   *validation.Validator
	DB          *gorm.DB
	UploadDir   string
}

// Register wires every route. On protected routes the auth gate runs before
// body validation.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	v := d.Validator
	requireAuth := d.Gate.RequireAuth

	users := e.Group("/user")
	users.POST("/register", d.UserHandler.Register, validation.Body[transport.RegisterRequest](v))
	users.POST("/login", d.UserHandler.Login, validation.Body[transport.LoginRequest](v))
	users.GET("/me", d.UserHandler.Profile, requireAuth)
	users.PUT("/me", d.UserHandler.UpdateProfile, requireAuth, validation.Body[transport.UpdateProfileRequest](v))
	users.PUT("/me/password", d.UserHandler.ChangePassword, requireAuth, validation.Body[transport.ChangePasswordRequest](v))
	users.GET("", d.UserHandler.ListUsers, requireAuth, auth.RequireRole(models.RoleAdmin))

	posts := e.Group("/posts", requireAuth)
	posts.POST("", d.PostHandler.CreatePost, validation.Body[transport.CreatePostRequest](v))
	posts.GET("", d.PostHandler.GetPosts)
	posts.GET("/search", d.PostHandler.SearchPosts)
	posts.GET("/:id", d.PostHandler.GetPost)
	posts.PUT("/:id", d.PostHandler.UpdatePost, validation.Body[transport.UpdatePostRequest](v))
	posts.DELETE("/:id", d.PostHandler.DeletePost)
}
