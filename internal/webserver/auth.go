package webserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/session"
)

// guard consults the route guard on every request. The session is read fresh
// each time, so a 401 on one screen redirects every screen on its next load.
func (w *Webserver) guard(aud accesscontrol.Audience) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			outcome := accesscontrol.CheckAccess(w.store.Get(), aud)
			if outcome.Redirects() {
				w.metrics.GuardRedirect(aud.String(), outcome.Path())
				return c.Redirect(http.StatusFound, outcome.Path())
			}
			return next(c)
		}
	}
}

type AuthInfoRes struct {
	LoggedIn bool             `json:"logged_in"`
	Role     string           `json:"role,omitempty"`
	User     *session.Profile `json:"user,omitempty"`
	// Read from the token when it is a JWT, never enforced
	Expires *time.Time `json:"expires,omitempty"`
}

type unauthorizedResponse struct {
	Error string `json:"error"`
}

func authInfo(sess session.Session) AuthInfoRes {
	res := AuthInfoRes{
		LoggedIn: sess.LoggedIn(),
		Role:     sess.Role(),
	}
	if !res.LoggedIn {
		return res
	}
	res.User = sess.User

	if claims, err := session.Claims(sess.Token); err == nil {
		if exp := claims.Expiry(); !exp.IsZero() {
			res.Expires = &exp
		}
	}
	return res
}

func (w *Webserver) authInfoRouteHandler(c echo.Context) error {
	sess := w.store.Get()
	if !sess.LoggedIn() {
		return c.JSON(http.StatusUnauthorized, unauthorizedResponse{
			Error: "Unauthorized",
		})
	}
	return c.JSON(http.StatusOK, authInfo(sess))
}

// verifyAuthRouteHandler answers whether the current session may see a page
// meant for ?audience=, for a reverse proxy doing forward auth.
func (w *Webserver) verifyAuthRouteHandler(c echo.Context) error {
	aud, err := accesscontrol.ParseAudience(c.QueryParam("audience"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, unauthorizedResponse{Error: err.Error()})
	}

	sess := w.store.Get()
	outcome := accesscontrol.CheckAccess(sess, aud)
	if outcome.Redirects() {
		w.metrics.GuardRedirect(aud.String(), outcome.Path())
		return c.Redirect(http.StatusFound, outcome.Path())
	}

	// We passed the guard, allow user
	return c.JSON(http.StatusOK, authInfo(sess))
}
