package transport

import "github.com/Skotchmaster/blog_api/internal/models"

type RegisterRequest struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  form:"last_name"  validate:"required,max=100"`
	Email     string `json:"email"      form:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   form:"password"   validate:"required,min=6,bcryptmax"`
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  form:"last_name"  validate:"required,max=100"`
	Email     string `json:"email"      form:"email"      validate:"required,email,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     form:"new_password"     validate:"required,min=6,bcryptmax"`
}

type CreatePostRequest struct {
	Title    string `json:"title"    form:"title"    validate:"required,notblank,max=255"`
	Subtitle string `json:"subtitle" form:"subtitle" validate:"required,notblank,max=255"`
	Content  string `json:"content"  form:"content"  validate:"required,notblank"`
}

type UpdatePostRequest struct {
	Title    string `json:"title"    form:"title"    validate:"required,notblank,max=255"`
	Subtitle string `json:"subtitle" form:"subtitle" validate:"required,notblank,max=255"`
	Content  string `json:"content"  form:"content"  validate:"required,notblank"`
}

// Response is the envelope of every successful reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func OK(message string, data any) Response {
	return Response{Status: "success", Message: message, Data: data}
}

type Profile struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func ProfileOf(u *models.User) Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
