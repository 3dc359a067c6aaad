package repository

import (
	"errors"
	"fmt"

	"quiz_platform_backend/internal/util"

	"gorm.io/gorm"
)

// notFound maps gorm's missing-row error onto the domain taxonomy.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", util.ErrNotFound, what, id)
	}
	return err
}
