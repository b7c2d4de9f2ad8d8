package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// notFound maps pgx.ErrNoRows to valueobject.ErrNotFound.
func notFound(err error, what, key string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, key, valueobject.ErrNotFound)
	}
	return fmt.Errorf("find %s %s: %w", what, key, err)
}
