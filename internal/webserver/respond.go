package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/csvexport"
	"github.com/lachlan2k/rta-portal/internal/views"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// viewError maps a failed view call onto a response. An authorization
// failure has already cleared the session, so it becomes a redirect to the
// login page for the screen's audience rather than an error.
func (w *Webserver) viewError(c echo.Context, aud accesscontrol.Audience, err error) error {
	logger := c.Logger()

	var problems auth.ValidationErrors
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return c.Redirect(http.StatusFound, accesscontrol.CheckAccess(w.store.Get(), aud).Path())

	case errors.As(err, &problems):
		fields := make(map[string]string, len(problems))
		for _, p := range problems {
			fields[p.Field] = p.Message
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: problems.Error(), Fields: fields})
	}

	if apiErr, ok := apiclient.AsAPIError(err); ok {
		return c.JSON(apiErr.Status, errorResponse{Error: apiErr.Error()})
	}

	logger.Errorf("Backend call failed: %v", err)
	return c.JSON(http.StatusBadGateway, errorResponse{Error: "Could not reach the server, please try again"})
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func intParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// respondList sends every item as a single page, with the empty flag set
func respondList[T any](c echo.Context, items []T) error {
	return c.JSON(http.StatusOK, views.List(items))
}

func respondPage[T any](c echo.Context, items []T, size int) error {
	return c.JSON(http.StatusOK, views.Paginate(items, pageParam(c), size))
}

func respondCSV[T any](c echo.Context, filename string, columns []csvexport.Column[T], items []T) error {
	b, err := csvexport.Bytes(columns, items)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", b)
}
