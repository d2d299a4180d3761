package interfaces

import (
	"context"

	"github.com/haguru/jungle/internal/models"
)

// UserRepository defines the contract for storing and retrieving User data.
// Lookups return a nil user and a nil error when nothing matches.
type UserRepository interface {
	AddUser(ctx context.Context, user models.User) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	DeleteUser(ctx context.Context, id string) (int64, error)
	EnsureIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
