package dto

// AuthenticateRequestDTO is the body of POST /api/authenticate.
// Missing fields are reported as an authentication failure, not a validation error.
type AuthenticateRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthenticateResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}
