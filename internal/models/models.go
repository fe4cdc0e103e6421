package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	FirstName    string    `gorm:"size:100;not null"              json:"first_name"`
	LastName     string    `gorm:"size:100;not null"              json:"last_name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Role         string    `gorm:"size:20;not null;default:user"  json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string    `gorm:"size:255;not null"         json:"title"`
	Subtitle    string    `gorm:"size:255;not null"         json:"subtitle"`
	Content     string    `gorm:"type:text;not null"        json:"content"`
	AuthorID    uint      `gorm:"index;not null"            json:"author_id"`
	ImageURL    *string   `gorm:"size:512"                  json:"image_url"`
	CreatedDate time.Time `gorm:"autoCreateTime"            json:"created_date"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}
