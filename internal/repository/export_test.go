package repository

import (
	"context"

	"github.com/iliyamo/car-marketplace/internal/database"
)

// SetAfterOwnerCheck installs a hook that runs between the ownership check
// and the DELETE in DeleteByIDAndOwner.
func SetAfterOwnerCheck(r *CarRepo, f func(context.Context, *database.Tx)) {
	r.afterOwnerCheck = f
}
