package repository

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// UserRepository reads customer accounts owned by the external auth service.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
