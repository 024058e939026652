package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/auth"
)

func (w *Webserver) registerRoutes() {
	e := w.echo

	e.GET("/", w.landingRouteHandler)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	for _, aud := range []accesscontrol.Audience{accesscontrol.AudienceInvestor, accesscontrol.AudienceAdmin, accesscontrol.AudienceAMC} {
		path := loginPath(aud)
		e.GET(path, w.loginPageRouteHandler(aud))
		e.POST(path, w.loginRouteHandler(aud))
	}

	e.GET("/register", w.registerPageRouteHandler(accesscontrol.AudienceInvestor))
	e.POST("/register", w.registerRouteHandler(accesscontrol.AudienceInvestor))
	e.GET("/admin/register", w.registerPageRouteHandler(accesscontrol.AudienceAdmin))
	e.POST("/admin/register", w.registerRouteHandler(accesscontrol.AudienceAdmin))

	e.POST("/forgot-password", w.forgotPasswordRouteHandler)
	e.POST("/reset-password", w.resetPasswordRouteHandler)

	e.GET("/logout", w.logoutRouteHandler)
	e.POST("/logout", w.logoutRouteHandler)

	e.GET("/session", w.authInfoRouteHandler)
	e.GET("/auth/verify", w.verifyAuthRouteHandler)

	if w.conf.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(w.metrics.Handler()))
	}

	w.registerInvestorRoutes()
	w.registerAdminRoutes()
	w.registerAMCRoutes()
}

// loginPath is where the guard sends an anonymous visitor of an audience
func loginPath(aud accesscontrol.Audience) string {
	return accesscontrol.Decide(accesscontrol.Anonymous, aud).Path()
}

func (w *Webserver) landingRouteHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"page":    "landing",
		"session": authInfo(w.store.Get()),
		"logins": map[string]string{
			"investor": loginPath(accesscontrol.AudienceInvestor),
			"admin":    loginPath(accesscontrol.AudienceAdmin),
			"amc":      loginPath(accesscontrol.AudienceAMC),
		},
	})
}

type formDescription struct {
	Audience string   `json:"audience"`
	Action   string   `json:"action"`
	Fields   []string `json:"fields"`
}

func (w *Webserver) loginPageRouteHandler(aud accesscontrol.Audience) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, formDescription{
			Audience: aud.String(),
			Action:   loginPath(aud),
			Fields:   []string{"email", "password"},
		})
	}
}

type loginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (w *Webserver) loginRouteHandler(aud accesscontrol.Audience) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		var form loginForm
		if err := c.Bind(&form); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid login request"})
		}
		form.Email = strings.TrimSpace(form.Email)
		if form.Email == "" || form.Password == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Email and password are required"})
		}

		res, err := w.auth.Login(c.Request().Context(), form.Email, form.Password, aud)
		w.metrics.Login(aud.String(), err == nil)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrProfileFetch):
				logger.Warnf("Login for %s reached the backend but failed: %v", form.Email, err)
				return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
			default:
				logger.Errorf("Login failed: %v", err)
				return c.JSON(http.StatusBadGateway, errorResponse{Error: "Login failed"})
			}
		}

		return c.Redirect(http.StatusFound, res.Home)
	}
}

func (w *Webserver) registerPageRouteHandler(aud accesscontrol.Audience) echo.HandlerFunc {
	fields := []string{"name", "pan", "email", "mobile", "dob", "address", "password", "confirm_password", "terms"}
	if aud != accesscontrol.AudienceInvestor {
		fields = []string{"name", "email", "role", "password"}
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, formDescription{
			Audience: aud.String(),
			Action:   c.Path(),
			Fields:   fields,
		})
	}
}

type registerForm struct {
	Name            string `json:"name" form:"name"`
	PAN             string `json:"pan" form:"pan"`
	Email           string `json:"email" form:"email"`
	Mobile          string `json:"mobile" form:"mobile"`
	DOB             string `json:"dob" form:"dob"`
	Address         string `json:"address" form:"address"`
	Role            string `json:"role" form:"role"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Terms           bool   `json:"terms" form:"terms"`
}

func (w *Webserver) registerRouteHandler(aud accesscontrol.Audience) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form registerForm
		if err := c.Bind(&form); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid registration request"})
		}

		var payload any
		if aud == accesscontrol.AudienceInvestor {
			payload = auth.Registration{
				Name:            strings.TrimSpace(form.Name),
				PAN:             strings.ToUpper(strings.TrimSpace(form.PAN)),
				Email:           strings.TrimSpace(form.Email),
				Mobile:          strings.TrimSpace(form.Mobile),
				DOB:             form.DOB,
				Address:         strings.TrimSpace(form.Address),
				Password:        form.Password,
				ConfirmPassword: form.ConfirmPassword,
				Terms:           form.Terms,
			}
		} else {
			payload = auth.AdminRegistration{
				Name:     strings.TrimSpace(form.Name),
				Email:    strings.TrimSpace(form.Email),
				Role:     strings.TrimSpace(form.Role),
				Password: form.Password,
			}
		}

		err := w.auth.Register(c.Request().Context(), payload, aud)
		if err != nil {
			var flowErr *auth.FlowError
			if errors.As(err, &flowErr) {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: flowErr.Message})
			}
			return w.viewError(c, aud, err)
		}

		return c.JSON(http.StatusCreated, map[string]string{
			"message":  "Registration successful! Redirecting to login...",
			"redirect": loginPath(aud),
		})
	}
}

func (w *Webserver) forgotPasswordRouteHandler(c echo.Context) error {
	var form struct {
		EmailOrPAN string `json:"email_or_pan" form:"email_or_pan"`
	}
	if err := c.Bind(&form); err != nil || strings.TrimSpace(form.EmailOrPAN) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Email or PAN is required"})
	}

	msg, err := w.auth.ForgotPassword(c.Request().Context(), strings.TrimSpace(form.EmailOrPAN))
	if err != nil {
		return w.viewError(c, accesscontrol.AudienceInvestor, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

func (w *Webserver) resetPasswordRouteHandler(c echo.Context) error {
	var form struct {
		Token       string `json:"token" form:"token"`
		NewPassword string `json:"new_password" form:"new_password"`
	}
	if err := c.Bind(&form); err != nil || form.Token == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Reset token is required"})
	}

	msg, err := w.auth.ResetPassword(c.Request().Context(), form.Token, form.NewPassword)
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); ok {
			return c.JSON(apiErr.Status, errorResponse{Error: apiErr.MessageOr("Password reset failed")})
		}
		return w.viewError(c, accesscontrol.AudienceInvestor, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg, "redirect": loginPath(accesscontrol.AudienceInvestor)})
}

func (w *Webserver) logoutRouteHandler(c echo.Context) error {
	landing, err := w.auth.Logout()
	if err != nil {
		c.Logger().Errorf("Couldn't clear session: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Couldn't log you out"})
	}
	return c.Redirect(http.StatusFound, landing)
}
