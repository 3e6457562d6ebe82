package repo

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = gorm.ErrRecordNotFound

type GormRepo struct {
	DB *gorm.DB
}

func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
