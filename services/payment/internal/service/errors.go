package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation  = errors.New("validation")  // 400
	ErrAuth        = errors.New("forbidden")   // 403
	ErrNotFound    = errors.New("not found")   // 404
	ErrConflict    = errors.New("conflict")    // 409
	ErrPersistence = errors.New("persistence") // 500
)

const RoleAdmin = "admin"

// Caller is the identity the authentication layer vouched for.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.UserID != "" && c.Role == RoleAdmin
}

func storeErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, what, err)
}
