package routes

const (
	// API route patterns
	HomeRouteAPI         = "GET /{$}"
	WelcomeRouteAPI      = "GET /api"
	WelcomeSlashRouteAPI = "GET /api/{$}"
	AuthenticateRouteAPI = "POST /api/authenticate"
	CreateUserRouteAPI   = "POST /api/users"
	ListUsersRouteAPI    = "GET /api/users"
	GetUserRouteAPI      = "GET /api/users/{user_id}"
	UpdateUserRouteAPI   = "PUT /api/users/{user_id}"
	DeleteUserRouteAPI   = "DELETE /api/users/{user_id}"
	MetricsRouteAPI      = "/metrics"

	UserIDPathValue = "user_id"

	// Content-Type constants
	ContentType          = "Content-Type"
	ContentTypeJson      = "application/json"
	ContentTypePlainText = "text/plain; charset=utf-8"

	// message constants
	MsgHome              = "Welcome to the home page!"
	MsgWelcome           = "Welcome to Jungle API"
	MsgUserCreated       = "User Successfully created!"
	MsgUserUpdated       = "User updated!"
	MsgUserDeleted       = "Successfully deleted"
	MsgUsernameTaken     = "A user with that username already exists, Please choose another username"
	MsgTokenIssued       = "Enjoy your token!"
	MsgAuthUserNotFound  = "Authentication failed. User not found."
	MsgAuthWrongPassword = "Authentication failed. Wrong password."

	// Error messages
	ErrInvalidRequestBody     = "invalid request body"
	ErrValidationFailed       = "data validation failed"
	ErrPasswordTooLong        = "password too long"
	ErrUserNotFound           = "user not found"
	ErrFailedToCreateUser     = "failed to create user"
	ErrFailedToListUsers      = "failed to list users"
	ErrFailedToGetUser        = "failed to get user"
	ErrFailedToUpdateUser     = "failed to update user"
	ErrFailedToDeleteUser     = "failed to delete user"
	ErrFailedToAuthenticate   = "failed to authenticate user"
	ErrFailedToGenerateToken  = "failed to generate token"
	ErrFailedToEncodeResponse = "failed to encode response"

	// metrics constants
	UsersCreatedTotal             = "users_created_total"
	UsersCreatedTotalHelp         = "Total number of users created"
	UsersCreateConflictsTotal     = "users_create_conflicts_total"
	UsersCreateConflictsTotalHelp = "Total number of create requests rejected for a taken username"
	AuthSuccessTotal              = "auth_success_total"
	AuthSuccessTotalHelp          = "Total number of successful authentications"
	AuthFailedTotal               = "auth_failed_total"
	AuthFailedTotalHelp           = "Total number of failed authentications"
)
