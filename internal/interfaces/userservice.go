package interfaces

import (
	"context"

	"github.com/haguru/jungle/internal/models"
)

type UserService interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
}
