package dto

import "github.com/haguru/jungle/internal/models"

type CreateUserRequestDTO struct {
	Name     string  `json:"name"`
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Reward   float64 `json:"reward"`
}

// ToUser builds the user to store. The password is still plaintext here.
func (d CreateUserRequestDTO) ToUser() models.User {
	return models.User{
		Name:     d.Name,
		Username: d.Username,
		Password: d.Password,
		Reward:   d.Reward,
	}
}

// UpdateUserRequestDTO only overwrites the fields present in the body.
// Empty strings are treated as absent so a blank form field never wipes a value.
type UpdateUserRequestDTO struct {
	Name     *string  `json:"name"`
	Username *string  `json:"username"`
	Password *string  `json:"password"`
	Reward   *float64 `json:"reward"`
}

func (d UpdateUserRequestDTO) ToUpdate() models.UserUpdate {
	return models.UserUpdate{
		Name:     nonEmpty(d.Name),
		Username: nonEmpty(d.Username),
		Password: nonEmpty(d.Password),
		Reward:   d.Reward,
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// MessageResponseDTO is the body of every successful write.
type MessageResponseDTO struct {
	Message string `json:"message"`
}

// FailureResponseDTO reports an expected failure such as a duplicate username.
type FailureResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
