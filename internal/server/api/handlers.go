// Package api exposes the HTTP surface of the service: public auth routes,
// bearer-protected file routes, and the error-to-status translation at the
// boundary. Response bodies for failures are sanitized; details stay in logs.
package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"fileshare/internal/common"
	"fileshare/internal/logging"
	"fileshare/internal/server/models"

	"github.com/labstack/echo/v4"
)

// Users is the account-service surface the handlers need.
type Users interface {
	SignUp(ctx context.Context, email, password, role string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (string, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Files is the file-service surface the handlers need.
type Files interface {
	Upload(ctx context.Context, userID int64, filename, contentType string, size int64, body io.Reader) (*models.File, error)
	List(ctx context.Context) ([]*models.File, error)
	IssueDownloadToken(ctx context.Context, fileID, userID int64) (string, error)
	Download(ctx context.Context, tokenText string, callerID int64) (string, error)
}

// Handler contains the HTTP handlers for the file-sharing API.
type Handler struct {
	users Users
	files Files
	db    *sql.DB
	log   logging.Logger
}

// NewHandler creates a handler with its service dependencies.
func NewHandler(users Users, files Files, db *sql.DB, log logging.Logger) *Handler {
	return &Handler{users: users, files: files, db: db, log: log}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

// HandleSignUp handles POST /auth/signup.
func (h *Handler) HandleSignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, err := h.users.SignUp(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, userResponse{
		ID:         user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
	})
}

// HandleVerifyEmail handles GET /auth/verify-email?token=.
func (h *Handler) HandleVerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	if err := h.users.VerifyEmail(c.Request().Context(), token); err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "email verified successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	token, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

type fileResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:         f.ID,
		Filename:   f.Filename,
		FileType:   f.FileType,
		UploadedBy: f.UploadedBy,
		CreatedAt:  f.CreatedAt,
	}
}

// HandleUpload handles POST /files/upload.
// Accepts a multipart form with a "file" field; uploader role only.
func (h *Handler) HandleUpload(c echo.Context) error {
	user := currentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	created, err := h.files.Upload(
		c.Request().Context(),
		user.ID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		src,
	)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toFileResponse(created))
}

// HandleList handles GET /files/list; downloader role only.
func (h *Handler) HandleList(c echo.Context) error {
	files, err := h.files.List(c.Request().Context())
	if err != nil {
		return h.mapServiceError(c, err)
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return c.JSON(http.StatusOK, out)
}

// HandleDownloadToken handles GET /files/download-token?file_id=.
// Issues a short-lived download token bound to the caller; downloader role only.
func (h *Handler) HandleDownloadToken(c echo.Context) error {
	user := currentUser(c)

	fileID, err := strconv.ParseInt(c.QueryParam("file_id"), 10, 64)
	if err != nil || fileID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file_id must be a positive integer"})
	}

	token, err := h.files.IssueDownloadToken(c.Request().Context(), fileID, user.ID)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"download_token": token})
}

// HandleDownload handles GET /files/download/:token.
// Exchanges a download token for a presigned URL; downloader role only.
func (h *Handler) HandleDownload(c echo.Context) error {
	user := currentUser(c)

	url, err := h.files.Download(c.Request().Context(), c.Param("token"), user.ID)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"download_link": url})
}

// HandleHealth handles GET /.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.PingContext(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "file sharing service is running",
		"status":   status,
		"database": dbStatus,
	})
}

// mapServiceError translates service-layer errors into HTTP responses.
// Bodies carry a short stable message; the underlying error goes to the log.
func (h *Handler) mapServiceError(c echo.Context, err error) error {
	ctx := c.Request().Context()

	switch {
	case errors.Is(err, common.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, common.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	case errors.Is(err, common.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	case errors.Is(err, common.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, common.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has expired"})
	case errors.Is(err, common.ErrEmailNotVerified):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email address not verified"})
	case errors.Is(err, common.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	case errors.Is(err, common.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, common.ErrUpstreamStorage):
		h.log.Error(ctx, "object storage error", "error", err.Error())
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "storage backend unavailable"})
	default:
		h.log.Error(ctx, "unhandled service error", "error", err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
