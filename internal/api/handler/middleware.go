package handler

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

// AuthnOperator gates the operator endpoints behind a static bearer token.
// An empty configured token disables the API entirely rather than opening it.
func AuthnOperator(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			header := c.Request().Header.Get("Authorization")
			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			presented := strings.TrimSpace(parts[1])
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			return next(c)
		}
	}
}
