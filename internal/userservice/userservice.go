// userservice.go
package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/internal/models"
	"github.com/haguru/jungle/pkg/databases"
	"github.com/haguru/jungle/pkg/helper"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	UserRepo   interfaces.UserRepository
	Logger     interfaces.Logger
	BcryptCost int
}

// NewUserService creates a new UserService instance.
// A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewUserService(repo interfaces.UserRepository, logger interfaces.Logger, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		UserRepo:   repo,
		Logger:     logger,
		BcryptCost: cost,
	}
}

// CreateUser hashes the password and adds the user via the repository.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (string, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", user.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", user.Username)

	hashedPassword, err := s.hashPassword(user.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			s.Logger.Warn(ErrPasswordTooLong.Error(), "func", funcName, "user", user.Username)
			return "", err
		}
		s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "user", user.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrFailedToHashPassword, err)
	}
	user.Password = hashedPassword

	userID, err := s.UserRepo.AddUser(ctx, user)
	if err != nil {
		if errors.Is(err, databases.ErrDuplicateKey) {
			s.Logger.Warn("Username already taken", "func", funcName, "user", user.Username)
			return "", fmt.Errorf("%w: %s", ErrUsernameTaken, user.Username)
		}
		s.Logger.Error(ErrFailedToRegisterUser, "func", funcName, "user", user.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}
	s.Logger.Info("User registered successfully", "func", funcName, "user", user.Username, "ID", userID)
	return userID, nil
}

// ListUsers returns every stored user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.UserRepo.ListUsers(ctx)
	if err != nil {
		s.Logger.Error(ErrFailedToListUsers, "func", helper.GetFuncName(), "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToListUsers, err)
	}
	return users, nil
}

// GetUser returns the user with the given id or ErrUserNotFound.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "id", id, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

// UpdateUser overwrites the fields present in update. A new password is hashed
// before it is stored. An empty update only checks that the user exists.
func (s *UserService) UpdateUser(ctx context.Context, id string, update models.UserUpdate) error {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "id", id)
	defer s.Logger.Debug("Exiting function", "func", funcName, "id", id)

	if update.IsEmpty() {
		_, err := s.GetUser(ctx, id)
		return err
	}

	if update.Password != nil {
		hashedPassword, err := s.hashPassword(*update.Password)
		if err != nil {
			if errors.Is(err, ErrPasswordTooLong) {
				s.Logger.Warn(ErrPasswordTooLong.Error(), "func", funcName, "id", id)
				return err
			}
			s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "id", id, "error", err)
			return fmt.Errorf("%s: %w", ErrFailedToHashPassword, err)
		}
		update.Password = &hashedPassword
	}

	matched, err := s.UserRepo.UpdateUser(ctx, id, update.Fields())
	if err != nil {
		s.Logger.Error(ErrFailedToUpdateUser, "func", funcName, "id", id, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToUpdateUser, err)
	}
	if matched == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	s.Logger.Info("User updated", "func", funcName, "id", id)
	return nil
}

// DeleteUser removes the user with the given id or returns ErrUserNotFound.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	funcName := helper.GetFuncName()
	deleted, err := s.UserRepo.DeleteUser(ctx, id)
	if err != nil {
		s.Logger.Error(ErrFailedToDeleteUser, "func", funcName, "id", id, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToDeleteUser, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	s.Logger.Info("User deleted", "func", funcName, "id", id)
	return nil
}

// AuthenticateUser verifies a user's credentials and returns the stored user.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", username)

	user, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", username, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFound.Error(), "func", funcName, "user", username)
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	if !s.VerifyPassword(user, password) {
		s.Logger.Warn(ErrInvalidPassword.Error(), "func", funcName, "user", username)
		return nil, fmt.Errorf("%w: %s", ErrInvalidPassword, username)
	}

	s.Logger.Info("User authenticated successfully", "func", funcName, "user", username)
	return user, nil
}

// VerifyPassword reports whether candidate matches the stored hash of user.
func (s *UserService) VerifyPassword(user *models.User, candidate string) bool {
	if user == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(candidate)) == nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %d bytes", ErrPasswordTooLong, len(password))
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
