package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/config"
	"github.com/shopsathi/shopsathi-api/internal/middleware"
	"github.com/shopsathi/shopsathi-api/internal/repository"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	base
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, opts Options) *AuthHandler {
	return &AuthHandler{base: newBase(opts), Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ShopName string `json:"shopName"`
}

func (r *signupReq) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.ShopName = strings.TrimSpace(r.ShopName)
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}
type authResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userPart  `json:"user"`
}

// Signup: POST /api/auth/signup.  Creates the user and signs them in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return message(c, http.StatusBadRequest, "Password must be at most 72 bytes")
	}
	_, ctx, cancel := h.request(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.ShopName, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return message(c, http.StatusConflict, "Email already registered")
		}
		return h.fail(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	return h.issue(c, u.ID, u.Email)
}

// Login: POST /api/auth/login.  Unknown email and wrong password get the
// same 401 so the response does not reveal which one was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	}
	_, ctx, cancel := h.request(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return h.fail(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	}
	return h.issue(c, u.ID, u.Email)
}

func (h *AuthHandler) issue(c echo.Context, id uint64, email string) error {
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.TokenTTL)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Token:     tok.Token,
		ExpiresAt: tok.Exp,
		User:      userPart{ID: id, Email: email},
	})
}

// Logout: POST /api/auth/logout.  Always succeeds.  When the request
// carries a valid token and Redis is available, that token is revoked for
// the rest of its lifetime.
func (h *AuthHandler) Logout(c echo.Context) error {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		_, ctx, cancel := h.request(c)
		defer cancel()
		if err := h.Tokens.Revoke(ctx, claims.ID, claims.Exp); err != nil {
			h.opts.Logger.Warn("token revocation failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
		}
	}
	return message(c, http.StatusOK, "Logged out successfully")
}

// Me: GET /api/auth/me.  Reports who the request is scoped to.
func (h *AuthHandler) Me(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	uid, ok := scope.UserID()
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"user_id": nil, "authenticated": false})
	}
	resp := echo.Map{"user_id": uid, "authenticated": true}
	u, err := h.Users.GetByID(ctx, uid)
	switch {
	case err == nil:
		resp["email"] = u.Email
		resp["shop_name"] = u.ShopName
	case !errors.Is(err, repository.ErrNotFound):
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
