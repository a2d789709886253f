package handlers

import (
	"errors"
	"net/http"

	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration, login and token lifecycle endpoints
type AuthHandler struct {
	authenticator *auth.Authenticator
	users         *service.UserService
	recorder      *audit.Recorder
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authenticator *auth.Authenticator, users *service.UserService, recorder *audit.Recorder) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, users: users, recorder: recorder}
}

// RegisterRequest is the body of a self-service registration
type RegisterRequest struct {
	Name                 string `json:"name" form:"name" binding:"required,max=255"`
	Email                string `json:"email" form:"email" binding:"required,email,max=255"`
	Phone                string `json:"phone" form:"phone" binding:"required,max=32"`
	Password             string `json:"password" form:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" binding:"required,eqfield=Password"`
}

// Register godoc
// @Summary Register a new account
// @Description Creates an active user and returns a bearer token. Accepts JSON or multipart with an optional image.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param user body RegisterRequest true "Account details"
// @Success 201 {object} response.Envelope{result=auth.LoginResponse}
// @Failure 422 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindRequest(c, &req) {
		return
	}

	image, err := openImage(c)
	if err != nil {
		response.Invalid(c, "The given data was invalid", response.FieldError{Field: "image", Message: "The image failed to upload."})
		return
	}
	if image != nil {
		defer image.Close()
	}

	in := service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if image != nil {
		in.Image = image
	}

	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		var verr *service.ValidationError
		if !errors.As(err, &verr) {
			h.recorder.Log(c.Request.Context(), audit.Entry{
				LogName:     audit.LogAuth,
				Description: audit.FailureDescription("register user"),
				Request:     audit.RequestFrom(c),
				Context:     audit.Login{Email: req.Email},
			})
		}
		writeError(c, "Failed to register user", err)
		return
	}

	token, err := h.authenticator.Tokens().Issue(user)
	if err != nil {
		writeError(c, "Failed to issue token", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogAuth,
		Description: audit.DescRegistered,
		Causer:      user,
		Request:     audit.RequestFrom(c),
		Context:     audit.Account{UserID: user.ID, Email: user.Email},
	})

	response.Created(c, auth.LoginResponse{Token: token, User: user}, "User registered successfully")
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Login credentials"
// @Success 200 {object} response.Envelope{result=auth.LoginResponse}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindRequest(c, &req) {
		return
	}

	resp, err := h.authenticator.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failure := audit.Entry{
			LogName:     audit.LogAuth,
			Description: audit.DescLoginFailed,
			Request:     audit.RequestFrom(c),
			Context:     audit.Login{Email: req.Email},
		}

		switch {
		case errors.Is(err, auth.ErrEmailNotRegistered):
			h.recorder.Log(c.Request.Context(), failure)
			response.JSON(c, response.Build(nil, "User not found",
				response.WithCode(http.StatusNotFound),
				response.WithFieldErrors(response.ErrorTypeNotFound, response.FieldError{
					Field:   "email",
					Message: "The email is not registered.",
				})))
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountInactive):
			h.recorder.Log(c.Request.Context(), failure)
			msg := auth.UnauthorizedMessage(err)
			response.Fail(c, http.StatusUnauthorized, msg, response.ErrorTypeAuth)
		default:
			writeError(c, "Failed to log in", err)
		}
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogAuth,
		Description: audit.DescLoggedIn,
		Causer:      resp.User,
		Request:     audit.RequestFrom(c),
		Context:     audit.Account{UserID: resp.User.ID, Email: resp.User.Email},
	})

	response.OK(c, resp, "Login successful")
}

// Refresh godoc
// @Summary Refresh a bearer token
// @Description Exchanges a valid or recently expired token for a new one and invalidates the old token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{result=auth.LoginResponse}
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, ok := auth.BearerToken(c)
	if !ok {
		auth.AbortUnauthorized(c, auth.ErrTokenInvalid)
		return
	}

	resp, err := h.authenticator.Refresh(c.Request.Context(), raw)
	if err != nil {
		if auth.IsAuthFailure(err) {
			auth.AbortUnauthorized(c, err)
			return
		}
		writeError(c, "Failed to refresh token", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogAuth,
		Description: audit.DescTokenRefreshed,
		Causer:      resp.User,
		Request:     audit.RequestFrom(c),
		Context:     audit.Account{UserID: resp.User.ID, Email: resp.User.Email},
	})

	response.OK(c, resp, "Token refreshed successfully")
}

// Logout godoc
// @Summary Log out
// @Description Invalidates the bearer token used for the request
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := mustCurrentUser(c)

	if err := h.authenticator.Tokens().Invalidate(c.Request.Context(), auth.CurrentToken(c)); err != nil {
		h.recorder.Log(c.Request.Context(), audit.Entry{
			LogName:     audit.LogAuth,
			Description: audit.FailureDescription("log out"),
			Causer:      user,
			Request:     audit.RequestFrom(c),
			Context:     audit.Fields{"user_id": user.ID.String(), "error": err.Error()},
		})
		writeError(c, "Failed to log out", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogAuth,
		Description: audit.DescLoggedOut,
		Causer:      user,
		Request:     audit.RequestFrom(c),
		Context:     audit.Account{UserID: user.ID, Email: user.Email},
	})

	response.OK(c, nil, "Successfully logged out")
}

// Me godoc
// @Summary Get current user
// @Description Returns the account the bearer token belongs to
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{result=UserWithAdminStatus}
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := mustCurrentUser(c)

	isAdmin, err := h.users.IsAdmin(user.ID)
	if err != nil {
		writeError(c, "Failed to check admin status", err)
		return
	}

	response.OK(c, UserWithAdminStatus{User: *user, IsAdmin: isAdmin}, "Current user")
}

// mustCurrentUser returns the identity resolved by the auth middleware.
// Routes using it are always mounted behind that middleware.
func mustCurrentUser(c *gin.Context) *models.User {
	user, ok := auth.CurrentUser(c)
	if !ok {
		panic("handlers: route mounted without authentication middleware")
	}
	return user
}
