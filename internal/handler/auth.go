package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// UserFinder looks users up by email, upgrades their password hash and
// lists the events they booked.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
	BookedEvents(ctx context.Context, userID uint64) ([]uint64, error)
}

// AuthHandler bundles dependencies for auth endpoints.  Accounts are
// provisioned by the user service that owns them; this service only logs
// them in.
type AuthHandler struct {
	Cfg   config.Config
	Users UserFinder
}

func NewAuthHandler(cfg config.Config, u UserFinder) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		logger.FromContext(ctx, nil).Error("user lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if h.Cfg.BcryptCost > 0 && utils.NeedsRehash(u.PasswordHash, h.Cfg.BcryptCost) {
		h.rehash(ctx, u.ID, req.Password)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, Email: u.Email, Name: u.FullName(), Role: u.Role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// rehash stores the password at the configured bcrypt cost.  Failures only
// cost an upgrade; the login itself already succeeded.
func (h *AuthHandler) rehash(ctx context.Context, id uint64, plain string) {
	log := logger.FromContext(ctx, nil).With(zap.Uint64("user_id", id))
	hash, err := utils.HashPassword(plain, h.Cfg.BcryptCost)
	if err == nil {
		err = h.Users.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		log.Warn("password rehash failed", zap.Error(err))
	}
}

// Me returns the caller's identity and booked events, oldest first with
// repeat bookings repeated.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	booked, err := h.Users.BookedEvents(ctx, uid)
	if err != nil {
		logger.FromContext(ctx, nil).Error("booked events lookup failed", zap.Uint64("user_id", uid), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":      uid,
		"role":         middleware.Role(c),
		"bookedEvents": booked,
	})
}
