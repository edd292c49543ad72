package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/middleware"
	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/repository"
	"github.com/shopsathi/shopsathi-api/internal/service"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

// Options are shared by every resource handler.
type Options struct {
	// Timeout bounds the store calls of one request.
	Timeout time.Duration
	// RedactErrors replaces raw store errors in 500 responses.
	RedactErrors bool
	Logger       *zap.Logger
}

// base carries Options and the response helpers built on them.
type base struct {
	opts Options
}

func newBase(opts Options) base {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return base{opts: opts}
}

// request returns the owner scope and a store context for c.
func (b base) request(c echo.Context) (model.Scope, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), b.opts.Timeout)
	return middleware.ScopeFrom(c), ctx, cancel
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// normalizer is implemented by request bodies that clean their fields,
// usually by trimming whitespace, before validation.
type normalizer interface {
	normalize()
}

// decode binds the body into req and normalizes it.
func decode(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return nil
}

// bind decodes and validates the body into req.  On failure it writes the
// 400 response and returns false.
func bind(c echo.Context, req interface{}) (bool, error) {
	if err := decode(c, req); err != nil {
		return false, message(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"message": utils.ValidationMessage(err),
			"errors":  utils.FormatValidationError(err),
		})
	}
	return true, nil
}

// fail maps a domain or store error to its response.  Store errors are
// logged and, unless redaction is on, returned verbatim.
func (b base) fail(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return message(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, repository.ErrInsufficientStock):
		return message(c, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, context.DeadlineExceeded):
		b.opts.Logger.Warn("store call timed out", zap.String("route", c.Path()), zap.Error(err))
		return message(c, http.StatusServiceUnavailable, "Request timed out")
	}
	b.opts.Logger.Error("store failure",
		zap.String("route", c.Path()),
		zap.Stringer("scope", middleware.ScopeFrom(c)),
		zap.Error(err),
	)
	if b.opts.RedactErrors {
		return message(c, http.StatusInternalServerError, "Internal server error")
	}
	return message(c, http.StatusInternalServerError, err.Error())
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func success(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
