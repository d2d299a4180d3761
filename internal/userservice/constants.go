package userservice

import "errors"

const (
	// Error messages for user service operations
	ErrFailedToHashPassword = "failed to hash password" // #nosec G101
	ErrFailedToRegisterUser = "failed to register user"
	ErrFailedToListUsers    = "failed to list users"
	ErrFailedToUpdateUser   = "failed to update user"
	ErrFailedToDeleteUser   = "failed to delete user"
	ErrRetrievingUser       = "error retrieving user"
)

var (
	// ErrUsernameTaken is returned on create when another user holds the username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound is returned when no user matches the id or username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword is returned when the password does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrPasswordTooLong is returned when a password exceeds the 72 bytes bcrypt can hash.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
