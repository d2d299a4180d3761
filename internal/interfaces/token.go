package interfaces

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	CreateToken(name, username string) (string, error)
}
