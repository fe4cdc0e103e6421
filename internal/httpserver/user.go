package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	req, err := payload[transport.RegisterRequest](c, l, "register_error")
	if err != nil {
		return err
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err, "user not found")
	}

	return c.JSON(http.StatusCreated, transport.Response{
		Status:  "success",
		Message: "User registered successfully",
		Data:    transport.ProfileOf(res.User),
		Token:   res.Token,
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	req, err := payload[transport.LoginRequest](c, l, "login_error")
	if err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err, "user not found")
	}

	return c.JSON(http.StatusOK, transport.Response{
		Status:  "success",
		Message: "Login successful",
		Data:    transport.ProfileOf(res.User),
		Token:   res.Token,
	})
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	claims, _ := auth.ClaimsFrom(c)
	user, err := h.Svc.Profile(ctx, claims.ID)
	if err != nil {
		return fail(l, "profile_error", err, "user not found")
	}

	return c.JSON(http.StatusOK, transport.OK("User profile retrieved successfully", transport.ProfileOf(user)))
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	claims, _ := auth.ClaimsFrom(c)
	req, err := payload[transport.UpdateProfileRequest](c, l, "update_profile_error")
	if err != nil {
		return err
	}

	user, err := h.Svc.UpdateProfile(ctx, claims.ID, req)
	if err != nil {
		return fail(l, "update_profile_error", err, "user not found")
	}

	l.Info("update_profile_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.OK("User profile updated successfully", transport.ProfileOf(user)))
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_password")

	claims, _ := auth.ClaimsFrom(c)
	req, err := payload[transport.ChangePasswordRequest](c, l, "change_password_error")
	if err != nil {
		return err
	}

	if err := h.Svc.ChangePassword(ctx, claims.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(l, "change_password_error", err, "user not found")
	}

	l.Info("change_password_success", "user_id", claims.ID)
	return c.JSON(http.StatusOK, transport.OK("Password changed successfully", nil))
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Svc.ListUsers(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_users_error", err, "users not found")
	}

	profiles := make([]transport.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, transport.ProfileOf(&users[i]))
	}

	resp := transport.OK("Successfully retrieved users", profiles)
	resp.Meta = util.NewMeta(page, offset, limit, total)
	return c.JSON(http.StatusOK, resp)
}
