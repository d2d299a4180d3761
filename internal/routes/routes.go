package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/internal/models"
	"github.com/haguru/jungle/internal/models/dto"
	"github.com/haguru/jungle/internal/userservice"

	structValidator "github.com/go-playground/validator/v10"
)

type Route struct {
	Metrics     interfaces.Metrics
	UserService interfaces.UserService
	Issuer      interfaces.TokenIssuer
	Logger      interfaces.Logger
	validator   *structValidator.Validate
}

// NewRoute creates a new Route instance.
func NewRoute(metrics interfaces.Metrics, userService interfaces.UserService,
	issuer interfaces.TokenIssuer, validator *structValidator.Validate, logger interfaces.Logger,
) *Route {
	return &Route{
		Metrics:     metrics,
		UserService: userService,
		Issuer:      issuer,
		Logger:      logger,
		validator:   validator,
	}
}

// RegisterMetrics registers the counters the handlers increment.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounter(UsersCreatedTotal, UsersCreatedTotalHelp)
	m.RegisterCounter(UsersCreateConflictsTotal, UsersCreateConflictsTotalHelp)
	m.RegisterCounter(AuthSuccessTotal, AuthSuccessTotalHelp)
	m.RegisterCounter(AuthFailedTotal, AuthFailedTotalHelp)
}

// Register adds every API route to the server.
func (r *Route) Register(server interfaces.Server) error {
	handlers := []struct {
		pattern string
		handler func(http.ResponseWriter, *http.Request)
	}{
		{HomeRouteAPI, r.Home},
		{WelcomeRouteAPI, r.Welcome},
		{WelcomeSlashRouteAPI, r.Welcome},
		{AuthenticateRouteAPI, r.Authenticate},
		{CreateUserRouteAPI, r.CreateUser},
		{ListUsersRouteAPI, r.ListUsers},
		{GetUserRouteAPI, r.GetUser},
		{UpdateUserRouteAPI, r.UpdateUser},
		{DeleteUserRouteAPI, r.DeleteUser},
	}
	for _, h := range handlers {
		if err := server.AddRoute(h.pattern, h.handler); err != nil {
			return err
		}
	}
	return nil
}

// Home answers the plain text greeting outside the API prefix.
func (r *Route) Home(w http.ResponseWriter, req *http.Request) {
	w.Header().Set(ContentType, ContentTypePlainText)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, MsgHome)
}

func (r *Route) Welcome(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Message: MsgWelcome})
}

// Authenticate checks the credentials and issues a token.
// Unknown users and wrong passwords are reported with success=false and a 200.
func (r *Route) Authenticate(w http.ResponseWriter, req *http.Request) {
	authRequest := &dto.AuthenticateRequestDTO{}
	if err := decodeJSON(req.Body, authRequest); err != nil && !errors.Is(err, io.EOF) {
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return
	}

	user, err := r.UserService.AuthenticateUser(req.Context(), authRequest.Username, authRequest.Password)
	switch {
	case errors.Is(err, userservice.ErrUserNotFound):
		r.incCounter(AuthFailedTotal)
		r.writeJSON(w, http.StatusOK, dto.AuthenticateResponseDTO{Success: false, Message: MsgAuthUserNotFound})
		return
	case errors.Is(err, userservice.ErrInvalidPassword):
		r.incCounter(AuthFailedTotal)
		r.writeJSON(w, http.StatusOK, dto.AuthenticateResponseDTO{Success: false, Message: MsgAuthWrongPassword})
		return
	case err != nil:
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToAuthenticate)
		return
	}

	token, err := r.Issuer.CreateToken(user.Name, user.Username)
	if err != nil {
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToGenerateToken)
		return
	}

	r.incCounter(AuthSuccessTotal)
	r.writeJSON(w, http.StatusOK, dto.AuthenticateResponseDTO{
		Success: true,
		Message: MsgTokenIssued,
		Token:   token,
	})
}

// CreateUser stores a new user. A taken username is reported with success=false and a 200.
func (r *Route) CreateUser(w http.ResponseWriter, req *http.Request) {
	createRequest := &dto.CreateUserRequestDTO{}
	if err := decodeJSON(req.Body, createRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return
	}

	if err := r.validator.Struct(createRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, err, ErrValidationFailed)
		return
	}

	_, err := r.UserService.CreateUser(req.Context(), createRequest.ToUser())
	if err != nil {
		if errors.Is(err, userservice.ErrUsernameTaken) {
			r.incCounter(UsersCreateConflictsTotal)
			r.writeJSON(w, http.StatusOK, dto.FailureResponseDTO{Success: false, Message: MsgUsernameTaken})
			return
		}
		if errors.Is(err, userservice.ErrPasswordTooLong) {
			r.errorResponse(w, http.StatusBadRequest, err, ErrPasswordTooLong)
			return
		}
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToCreateUser)
		return
	}

	r.incCounter(UsersCreatedTotal)
	r.writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Message: MsgUserCreated})
}

func (r *Route) ListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.UserService.ListUsers(req.Context())
	if err != nil {
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToListUsers)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	r.writeJSON(w, http.StatusOK, users)
}

func (r *Route) GetUser(w http.ResponseWriter, req *http.Request) {
	user, err := r.UserService.GetUser(req.Context(), req.PathValue(UserIDPathValue))
	if err != nil {
		r.userError(w, err, ErrFailedToGetUser)
		return
	}
	r.writeJSON(w, http.StatusOK, user)
}

// UpdateUser overwrites the fields present in the body. An empty body changes nothing.
func (r *Route) UpdateUser(w http.ResponseWriter, req *http.Request) {
	updateRequest := &dto.UpdateUserRequestDTO{}
	if err := decodeJSON(req.Body, updateRequest); err != nil && !errors.Is(err, io.EOF) {
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return
	}

	if err := r.UserService.UpdateUser(req.Context(), req.PathValue(UserIDPathValue), updateRequest.ToUpdate()); err != nil {
		r.userError(w, err, ErrFailedToUpdateUser)
		return
	}
	r.writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Message: MsgUserUpdated})
}

func (r *Route) DeleteUser(w http.ResponseWriter, req *http.Request) {
	if err := r.UserService.DeleteUser(req.Context(), req.PathValue(UserIDPathValue)); err != nil {
		r.userError(w, err, ErrFailedToDeleteUser)
		return
	}
	r.writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Message: MsgUserDeleted})
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeJSON reads exactly one JSON value from body into dst.
// An empty body yields io.EOF so callers can decide whether it is acceptable.
func decodeJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// userError maps ErrUserNotFound to a 404, a password bcrypt cannot hash to a 400
// and anything else to a 500.
func (r *Route) userError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, userservice.ErrUserNotFound) {
		r.errorResponse(w, http.StatusNotFound, err, ErrUserNotFound)
		return
	}
	if errors.Is(err, userservice.ErrPasswordTooLong) {
		r.errorResponse(w, http.StatusBadRequest, err, ErrPasswordTooLong)
		return
	}
	r.errorResponse(w, http.StatusInternalServerError, err, message)
}

func (r *Route) incCounter(name string) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(name)
	}
}

func (r *Route) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && r.Logger != nil {
		r.Logger.Error(ErrFailedToEncodeResponse, "error", err)
	}
}

func (r *Route) errorResponse(w http.ResponseWriter, status int, err error, message string) {
	if status >= http.StatusInternalServerError && r.Logger != nil {
		r.Logger.Error(message, "error", err)
	}
	r.writeJSON(w, status, map[string]string{
		"error":   fmt.Sprint(err),
		"message": message,
	})
}
