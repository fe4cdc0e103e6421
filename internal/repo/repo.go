package repo

import (
	"gorm.io/gorm"
)

// GormRepo is the only component that talks SQL. Every query goes through
// gorm with bound parameters.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
