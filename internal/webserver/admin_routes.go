package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/csvexport"
	"github.com/lachlan2k/rta-portal/internal/views"
)

// Back-office tables are paged like the audit log
func (w *Webserver) adminPageSize() int {
	if w.conf.Audit.PageSize > 0 {
		return w.conf.Audit.PageSize
	}
	return 10
}

func auditQuery(c echo.Context) views.AuditQuery {
	return views.AuditQuery{Role: c.QueryParam("role"), Search: c.QueryParam("search")}
}

func transactionQuery(c echo.Context) views.TransactionQuery {
	return views.TransactionQuery{
		Status: c.QueryParam("status"),
		Type:   c.QueryParam("type"),
		Search: c.QueryParam("search"),
	}
}

func (w *Webserver) dashboardRouteHandler(aud accesscontrol.Audience) echo.HandlerFunc {
	return func(c echo.Context) error {
		d, err := w.views.Dashboard(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(http.StatusOK, d)
	}
}

func (w *Webserver) registerAdminRoutes() {
	aud := accesscontrol.AudienceAdmin
	v := w.views
	// /admin/login and /admin/register live outside this group and stay public
	g := w.echo.Group("/admin", w.guard(aud))

	g.GET("/admindashboard", w.dashboardRouteHandler(aud))

	g.GET("/approvals", func(c echo.Context) error {
		items, err := v.Approvals(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		items = views.FilterApprovals(items, c.QueryParam("status"), c.QueryParam("search"))
		return respondPage(c, items, w.adminPageSize())
	})
	g.POST("/approvals/decide", func(c echo.Context) error {
		var in struct {
			IDs     []int `json:"ids"`
			Approve bool  `json:"approve"`
		}
		if err := c.Bind(&in); err != nil || len(in.IDs) == 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Select at least one transaction"})
		}
		if err := v.DecideApprovals(c.Request().Context(), in.IDs, in.Approve); err != nil {
			return w.viewError(c, aud, err)
		}
		return c.NoContent(http.StatusNoContent)
	})

	g.GET("/audit-logs", func(c echo.Context) error {
		entries, err := v.AuditLogs(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondPage(c, views.FilterAudit(entries, auditQuery(c)), w.adminPageSize())
	})
	g.GET("/audit-logs.csv", func(c echo.Context) error {
		entries, err := v.AuditLogs(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		entries = views.FilterAudit(entries, auditQuery(c))
		return respondCSV(c, csvexport.Filename("audit_logs", w.now()), views.AuditColumns, entries)
	})

	g.GET("/transactions", func(c echo.Context) error {
		txns, err := v.MonitoredTransactions(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondPage(c, views.FilterTransactions(txns, transactionQuery(c)), w.adminPageSize())
	})

	g.GET("/reconciliation", func(c echo.Context) error {
		txns, err := v.Reconciliation(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondList(c, views.FilterTransactions(txns, transactionQuery(c)))
	})
	g.GET("/reconciliation.csv", func(c echo.Context) error {
		txns, err := v.Reconciliation(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		txns = views.FilterTransactions(txns, transactionQuery(c))
		return respondCSV(c, csvexport.Filename("reconciliation", w.now()), views.ReconciliationColumns, txns)
	})

	g.GET("/users", func(c echo.Context) error {
		users, err := v.Users(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		users = views.FilterUsers(users, views.UserQuery{
			Role:   c.QueryParam("role"),
			Status: c.QueryParam("status"),
			Search: c.QueryParam("search"),
		})
		return respondPage(c, users, w.adminPageSize())
	})
	g.POST("/users/:id/toggle", func(c echo.Context) error {
		ctx := c.Request().Context()
		users, err := v.Users(ctx)
		if err != nil {
			return w.viewError(c, aud, err)
		}
		id := c.Param("id")
		for _, u := range users {
			if u.UserID != id {
				continue
			}
			updated, err := v.ToggleUserStatus(ctx, u)
			if err != nil {
				return w.viewError(c, aud, err)
			}
			return c.JSON(http.StatusOK, updated)
		}
		return c.JSON(http.StatusNotFound, errorResponse{Error: "No such user"})
	})

	w.registerOperationsRoutes(g)
}

// totalsPage is a page of payouts with the totals of every filtered row
type totalsPage[T any] struct {
	views.Page[T]
	views.Totals
}

func respondTotals[T any](c echo.Context, items []T, size int, totals views.Totals) error {
	return c.JSON(http.StatusOK, totalsPage[T]{Page: views.Paginate(items, pageParam(c), size), Totals: totals})
}

// registerOperationsRoutes serves the NAV, IDCW, unclaimed funds and system
// settings screens.
func (w *Webserver) registerOperationsRoutes(g *echo.Group) {
	aud := accesscontrol.AudienceAdmin
	v := w.views

	g.GET("/nav-uploads", func(c echo.Context) error {
		rows, err := v.NAVUploads(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		rows = views.FilterNAVs(rows, views.NAVQuery{AMC: c.QueryParam("amc"), Search: c.QueryParam("search")})
		return respondPage(c, rows, w.adminPageSize())
	})
	g.POST("/nav-uploads", func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Please select a file to upload."})
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := v.UploadNAVFile(c.Request().Context(), fh.Filename, f)
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return c.JSON(http.StatusCreated, struct {
			Message string            `json:"message"`
			Rows    []views.NAVRecord `json:"rows"`
		}{"NAV file processed. Check table for details.", rows})
	})
	g.GET("/nav-uploads/template.csv", func(c echo.Context) error {
		return respondCSV(c, "nav_upload_template.csv", views.NAVTemplateColumns, nil)
	})

	g.GET("/idcw", func(c echo.Context) error {
		items, err := v.IDCWPayouts(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		items = views.FilterIDCW(items, transactionQuery(c))
		totals := views.Sum(items,
			func(p views.IDCWPayout) float64 { return p.Amount },
			func(p views.IDCWPayout) float64 { return p.Units })
		return respondTotals(c, items, w.adminPageSize(), totals)
	})
	g.POST("/idcw/:id/process", func(c echo.Context) error {
		ctx := c.Request().Context()
		items, err := v.IDCWPayouts(ctx)
		if err != nil {
			return w.viewError(c, aud, err)
		}
		id := c.Param("id")
		for _, p := range items {
			if p.TransactionID != id {
				continue
			}
			if p.Status != "Pending" {
				return c.JSON(http.StatusConflict, errorResponse{Error: "IDCW transaction " + id + " is not pending"})
			}
			done, err := v.ProcessIDCW(ctx, id)
			if err != nil {
				return w.viewError(c, aud, err)
			}
			return c.JSON(http.StatusOK, done)
		}
		return c.JSON(http.StatusNotFound, errorResponse{Error: "No such IDCW transaction"})
	})

	g.GET("/unclaimed", func(c echo.Context) error {
		items, err := v.UnclaimedFunds(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		items = views.FilterUnclaimedFunds(items, transactionQuery(c))
		totals := views.Sum(items,
			func(u views.UnclaimedFund) float64 { return u.Amount },
			func(u views.UnclaimedFund) float64 { return u.Units })
		return respondTotals(c, items, w.adminPageSize(), totals)
	})
	g.POST("/unclaimed/:id/release", func(c echo.Context) error {
		ctx := c.Request().Context()
		items, err := v.UnclaimedFunds(ctx)
		if err != nil {
			return w.viewError(c, aud, err)
		}
		id := c.Param("id")
		for _, u := range items {
			if u.TransactionID != id {
				continue
			}
			if u.Status != "Pending" {
				return c.JSON(http.StatusConflict, errorResponse{Error: "Unclaimed transaction " + id + " was already released"})
			}
			released, err := v.ReleaseUnclaimed(ctx, id)
			if err != nil {
				return w.viewError(c, aud, err)
			}
			return c.JSON(http.StatusOK, released)
		}
		return c.JSON(http.StatusNotFound, errorResponse{Error: "No such unclaimed transaction"})
	})

	g.GET("/settings", listRoute(w, aud, v.SystemSettings))
	g.PUT("/settings", bindRoute(w, aud, http.StatusOK, func(c echo.Context, settings []views.SystemSetting) (messageResponse, error) {
		if _, err := v.SaveSystemSettings(c.Request().Context(), settings); err != nil {
			return messageResponse{}, err
		}
		return messageResponse{Message: "System settings saved successfully."}, nil
	}))
}

func (w *Webserver) registerAMCRoutes() {
	aud := accesscontrol.AudienceAMC
	g := w.echo.Group("/amc", w.guard(aud))

	g.GET("", w.dashboardRouteHandler(aud))
	g.GET("/transactions", func(c echo.Context) error {
		txns, err := w.views.MonitoredTransactions(c.Request().Context())
		if err != nil {
			return w.viewError(c, aud, err)
		}
		return respondPage(c, views.FilterTransactions(txns, transactionQuery(c)), w.adminPageSize())
	})
}
