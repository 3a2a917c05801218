package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	middleware "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/util"
)

const SessionCookie = "sessionid"

// actor loads the caller named by the access token. Requests without a token
// get the anonymous actor.
func actor(c echo.Context, actors *service.ActorService) (service.Actor, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return service.Actor{}, nil
	}
	return actors.Load(c.Request().Context(), uid)
}

// sessionID returns the cart session id, issuing a new cookie when create is set.
func sessionID(c echo.Context, create bool, ttl time.Duration, secure bool) string {
	if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if !create {
		return ""
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func idParam(c echo.Context, name string) (uint, bool) {
	return util.ParseUint(c.Param(name))
}
