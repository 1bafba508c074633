package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

// OperatorFromCtx returns the index of the API key that authenticated the request.
func OperatorFromCtx(c echo.Context) (int, bool) {
	v := c.Get("operator")
	id, ok := v.(int)
	return id, ok
}

// APIKeyMiddleware authenticates operator requests using the X-API-Key header.
// With no configured keys every request is rejected.
func APIKeyMiddleware(keys []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			for i, k := range keys {
				if k != "" && subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					c.Set("operator", i)
					return next(c)
				}
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		}
	}
}
