package webserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/csvexport"
	"github.com/lachlan2k/rta-portal/internal/views"
)

// Investor screens show at most this many transactions per page
const investorPageSize = 10

// listRoute serves a whole list fetched by fetch, redirecting or erroring the
// way every screen of the audience does.
func listRoute[T any](w *Webserver, aud accesscontrol.Audience, fetch func(context.Context) ([]T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := fetch(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondList(c, items)
	}
}

// bindRoute decodes a T from the request and hands it to do, replying with
// status and whatever do returned.
func bindRoute[T, R any](w *Webserver, aud accesscontrol.Audience, status int, do func(echo.Context, T) (R, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in T
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		out, err := do(c, in)
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(status, out)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (w *Webserver) registerInvestorRoutes() {
	aud := accesscontrol.AudienceInvestor
	v := w.views
	g := w.echo.Group("/investor", w.guard(aud))

	g.GET("", w.investorHomeRouteHandler)

	g.GET("/profile", func(c echo.Context) error {
		p, err := v.Profile(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(http.StatusOK, p)
	})
	g.PUT("/profile", bindRoute(w, aud, http.StatusOK, func(c echo.Context, u views.ProfileUpdate) (*views.InvestorProfile, error) {
		return v.UpdateProfile(c.Request().Context(), u)
	}))
	g.POST("/change-password", bindRoute(w, aud, http.StatusOK, func(c echo.Context, in struct {
		Current string `json:"current_password" form:"current_password"`
		New     string `json:"new_password" form:"new_password"`
	}) (messageResponse, error) {
		if err := auth.ValidatePassword(in.New); err != nil {
			return messageResponse{}, auth.ValidationErrors{{Field: "new_password", Message: err.Error()}}
		}
		err := w.auth.ChangePassword(c.Request().Context(), in.Current, in.New)
		return messageResponse{Message: "Password changed"}, err
	}))

	g.GET("/banks", listRoute(w, aud, v.Banks))
	g.POST("/banks", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, b auth.BankAccount) (*views.Bank, error) {
		return v.AddBank(c.Request().Context(), b)
	}))
	g.PUT("/banks/:id", w.withID(aud, func(c echo.Context, id int) error {
		var b auth.BankAccount
		if err := c.Bind(&b); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		bank, err := v.UpdateBank(c.Request().Context(), id, b)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, bank)
	}))
	g.DELETE("/banks/:id", w.withID(aud, func(c echo.Context, id int) error {
		if err := v.DeleteBank(c.Request().Context(), id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}))

	g.GET("/nominees", listRoute(w, aud, v.Nominees))
	g.POST("/nominees", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, n views.Nominee) (*views.Nominee, error) {
		return v.AddNominee(c.Request().Context(), n)
	}))
	g.PUT("/nominees/:id", w.withID(aud, func(c echo.Context, id int) error {
		var n views.Nominee
		if err := c.Bind(&n); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		nominee, err := v.UpdateNominee(c.Request().Context(), id, n)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, nominee)
	}))
	g.DELETE("/nominees/:id", w.withID(aud, func(c echo.Context, id int) error {
		if err := v.DeleteNominee(c.Request().Context(), id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}))

	g.GET("/mandates", listRoute(w, aud, v.Mandates))
	g.POST("/mandates", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, m views.Mandate) (*views.Mandate, error) {
		return v.AddMandate(c.Request().Context(), m)
	}))
	g.DELETE("/mandates/:id", w.withID(aud, func(c echo.Context, id int) error {
		if err := v.DeleteMandate(c.Request().Context(), id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}))

	g.GET("/transactions", func(c echo.Context) error {
		txns, err := v.Transactions(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondPage(c, txns, investorPageSize)
	})
	g.GET("/ledger", listRoute(w, aud, v.TransactionLedger))
	g.GET("/folios", listRoute(w, aud, v.FolioSummary))
	g.GET("/folios/:folio", func(c echo.Context) error {
		d, err := v.FolioDetails(c.Request().Context(), c.Param("folio"))
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(http.StatusOK, d)
	})
	g.GET("/sips", listRoute(w, aud, v.SIPs))

	g.GET("/idcw", listRoute(w, aud, v.IDCWPreferences))
	g.POST("/idcw", bindRoute(w, aud, http.StatusOK, func(c echo.Context, p views.IDCWPreference) (views.IDCWPreference, error) {
		return p, v.SetIDCWPreference(c.Request().Context(), p)
	}))

	g.GET("/unclaimed", listRoute(w, aud, v.UnclaimedAmounts))
	g.POST("/unclaimed/:id/claim", w.withID(aud, func(c echo.Context, id int) error {
		msg, err := v.ClaimUnclaimed(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: msg})
	}))

	g.GET("/capital-gains", func(c echo.Context) error {
		gains, err := v.CapitalGains(c.Request().Context(), c.QueryParam("year"))
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondList(c, gains)
	})
	g.GET("/capital-gains.csv", func(c echo.Context) error {
		gains, err := v.CapitalGains(c.Request().Context(), c.QueryParam("year"))
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondCSV(c, csvexport.Filename("capital-gains", w.now()), views.CapitalGainColumns, gains)
	})
	g.GET("/valuation", listRoute(w, aud, v.ValuationReport))
	g.GET("/valuation.csv", func(c echo.Context) error {
		holdings, err := v.ValuationReport(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondCSV(c, csvexport.Filename("valuation-report", w.now()), views.ValuationColumns, holdings)
	})

	g.GET("/cas", func(c echo.Context) error {
		st, err := v.CASStatement(c.Request().Context(), c.QueryParam("year"))
		if err != nil {
			return w.viewError(c, aud, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+st.Filename+`"`)
		return c.Blob(http.StatusOK, st.ContentType, st.Body)
	})

	g.GET("/documents", listRoute(w, aud, v.Documents))
	g.POST("/documents", w.uploadDocumentRouteHandler)

	g.GET("/notifications", listRoute(w, aud, v.Notifications))
	g.POST("/notifications/:id/read", w.withID(aud, func(c echo.Context, id int) error {
		if err := v.MarkNotificationRead(c.Request().Context(), id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}))
	g.POST("/notifications/clear", func(c echo.Context) error {
		if err := v.ClearNotifications(c.Request().Context()); err != nil {
			return w.viewError(c, aud, err)
		}
		return c.NoContent(http.StatusNoContent)
	})

	g.GET("/service-requests", listRoute(w, aud, v.ServiceRequests))
	g.POST("/service-requests", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, r views.ServiceRequest) (*views.ServiceRequest, error) {
		if r.Type == "" || r.Details == "" {
			return nil, auth.ValidationErrors{{Field: "details", Message: "Request type and details are required"}}
		}
		r.Created = w.now().Format("2006-01-02")
		return v.CreateServiceRequest(c.Request().Context(), r)
	}))

	g.GET("/complaints", listRoute(w, aud, v.Complaints))
	g.POST("/complaints", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, cm views.Complaint) (*views.Complaint, error) {
		if cm.Subject == "" || cm.Description == "" {
			return nil, auth.ValidationErrors{{Field: "subject", Message: "Subject and description are required"}}
		}
		cm.Status = "Open"
		cm.Date = w.now().Format("2006-01-02")
		return v.FileComplaint(c.Request().Context(), cm)
	}))

	g.GET("/support-tickets", listRoute(w, aud, v.SupportTickets))
	g.POST("/support-tickets", bindRoute(w, aud, http.StatusCreated, func(c echo.Context, t views.SupportTicket) (*views.SupportTicket, error) {
		if t.Subject == "" || t.Message == "" {
			return nil, auth.ValidationErrors{{Field: "subject", Message: "Subject and message are required"}}
		}
		t.Status = "Open"
		t.Created = w.now().Format("2006-01-02")
		return v.OpenSupportTicket(c.Request().Context(), t)
	}))

	g.GET("/disclosures", listRoute(w, aud, v.Disclosures))

	g.GET("/clients", func(c echo.Context) error {
		clients, err := v.Clients(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		clients = views.FilterClients(clients, c.QueryParam("search"), c.QueryParam("active") == "true")
		return respondList(c, clients)
	})

	g.GET("/security", func(c echo.Context) error {
		s, err := v.SecuritySettings(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(http.StatusOK, s)
	})
	g.POST("/security/2fa", bindRoute(w, aud, http.StatusOK, func(c echo.Context, in views.TwoFAStatus) (views.TwoFAStatus, error) {
		return in, v.SetTwoFA(c.Request().Context(), in.Enabled)
	}))
	g.DELETE("/security/sessions/:id", func(c echo.Context) error {
		if err := v.SignOutSession(c.Request().Context(), c.Param("id")); err != nil {
			return w.viewError(c, aud, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

// withID parses the :id path parameter. Errors returned by handle are
// treated as view errors.
func (w *Webserver) withID(aud accesscontrol.Audience, handle func(echo.Context, int) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := intParam(c, "id")
		if err != nil {
			return err
		}
		if err := handle(c, id); err != nil {
			return w.viewError(c, aud, err)
		}
		return nil
	}
}

type investorHome struct {
	Profile       *views.InvestorProfile `json:"profile"`
	Folios        []views.FolioSummary   `json:"folios"`
	TotalValue    float64                `json:"total_value"`
	Notifications int                    `json:"unread_notifications"`
}

func (w *Webserver) investorHomeRouteHandler(c echo.Context) error {
	ctx := c.Request().Context()
	aud := accesscontrol.AudienceInvestor

	profile, err := w.views.Profile(ctx)
	if err != nil {
		return w.viewError(c, aud, err)
	}
	folios, err := w.views.FolioSummary(ctx)
	if err != nil {
		return w.viewError(c, aud, err)
	}
	notes, err := w.views.Notifications(ctx)
	if err != nil {
		return w.viewError(c, aud, err)
	}

	home := investorHome{Profile: profile, Folios: folios}
	for _, f := range folios {
		home.TotalValue += f.TotalValue
	}
	for _, n := range notes {
		if !n.Read {
			home.Notifications++
		}
	}
	return c.JSON(http.StatusOK, home)
}

func (w *Webserver) uploadDocumentRouteHandler(c echo.Context) error {
	aud := accesscontrol.AudienceInvestor

	docType := c.FormValue("document_type")
	if docType == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Document type is required"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Choose a file to upload"})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := w.views.UploadDocument(c.Request().Context(), docType, fh.Filename, f)
	if err != nil {
		return w.viewError(c, aud, err)
	}
	return c.JSON(http.StatusCreated, doc)
}
