package middleware

// identity.go holds the context keys JWTAuth fills in and the accessors
// handlers and other middleware read them through.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user's id.  ok is false on routes not
// behind JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role claim.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// SetIdentity stores id and role the way JWTAuth does.  Tests use it to
// drive handlers without minting tokens.
func SetIdentity(c echo.Context, id uint64, role string) {
	c.Set(ctxUserID, id)
	c.Set(ctxRole, role)
}

// identityKey is the user part of rate limit keys; "anon" when the request
// is unauthenticated.
func identityKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
