package webserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachlan2k/rta-portal/internal/config"
	"github.com/lachlan2k/rta-portal/internal/session"
)

const testToken = "eyJhbGciOi.portal.token"

type testPortal struct {
	w        *Webserver
	store    *session.MemoryStore
	registry *prometheus.Registry
}

func newTestPortal(t *testing.T, backend http.HandlerFunc) *testPortal {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return newTestPortalWith(t, srv.URL, nil)
}

func newTestPortalWith(t *testing.T, baseURL string, transport http.RoundTripper) *testPortal {
	t.Helper()

	conf := config.Default()
	conf.APIBaseURL = baseURL
	conf.AllowedOrigins = []string{"https://portal.rta.in", "*.amc.in"}
	conf.Audit.PageSize = 2

	p := &testPortal{
		w:        New(),
		store:    session.NewMemoryStore(),
		registry: prometheus.NewRegistry(),
	}
	p.w.now = func() time.Time { return time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC) }

	err := p.w.Setup(conf, Deps{
		Store:     p.store,
		Registry:  p.registry,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Transport: transport,
	})
	require.NoError(t, err)
	return p
}

func (p *testPortal) loginAs(t *testing.T, role string) {
	t.Helper()
	require.NoError(t, p.store.Set(testToken, session.Profile{Role: role, Fields: map[string]any{"email": "asha@example.com"}}))
}

func (p *testPortal) do(method, path string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	p.w.Handler().ServeHTTP(rec, req)
	return rec
}

func (p *testPortal) get(path string) *httptest.ResponseRecorder {
	return p.do(http.MethodGet, path, nil)
}

func (p *testPortal) postJSON(path, body string) *httptest.ResponseRecorder {
	return p.do(http.MethodPost, path, strings.NewReader(body), echo.HeaderContentType, echo.MIMEApplicationJSON)
}

func emptyListBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`[]`))
}

func TestSetupRequiresStore(t *testing.T) {
	err := New().Setup(config.Default(), Deps{})
	assert.Error(t, err)
}

func TestGuardRedirects(t *testing.T) {
	tests := []struct {
		role     string
		path     string
		code     int
		location string
	}{
		{"", "/investor/sips", http.StatusFound, "/login"},
		{"", "/admin/audit-logs", http.StatusFound, "/admin/login"},
		{"", "/amc/transactions", http.StatusFound, "/amc/login"},
		{"investor", "/investor/sips", http.StatusOK, ""},
		{"investor", "/admin/audit-logs", http.StatusFound, "/login"},
		{"investor", "/amc/transactions", http.StatusFound, "/login"},
		{"user", "/investor/sips", http.StatusOK, ""},
		{"admin", "/admin/audit-logs", http.StatusOK, ""},
		{"admin", "/investor/sips", http.StatusFound, "/admin/admindashboard"},
		{"admin", "/amc/transactions", http.StatusFound, "/amc/login"},
		{"amc", "/amc/transactions", http.StatusOK, ""},
		{"amc", "/investor/sips", http.StatusFound, "/amc"},
		{"amc", "/admin/audit-logs", http.StatusFound, "/admin/login"},
		{"auditor", "/investor/sips", http.StatusFound, "/"},
		{"auditor", "/admin/audit-logs", http.StatusFound, "/admin/login"},
	}

	for _, tt := range tests {
		t.Run(tt.role+tt.path, func(t *testing.T) {
			p := newTestPortal(t, emptyListBackend)
			if tt.role != "" {
				p.loginAs(t, tt.role)
			}

			rec := p.get(tt.path)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestInvestorOpeningAdminDashboardLandsOnInvestorLogin(t *testing.T) {
	backendCalled := false
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		backendCalled = true
	})
	p.loginAs(t, "investor")

	rec := p.get("/admin/admindashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.False(t, backendCalled)
	// Being bounced does not log the investor out
	assert.True(t, p.store.Get().LoggedIn())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.w.metrics.GuardRedirects.WithLabelValues("admin", "/login")))
}

func TestPublicLoginPagesAreNotGuarded(t *testing.T) {
	p := newTestPortal(t, emptyListBackend)

	for _, path := range []string{"/login", "/admin/login", "/amc/login", "/register", "/admin/register", "/"} {
		rec := p.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBackend401MidViewLogsOutAndRedirects(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/audit-logs")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get(echo.HeaderLocation))
	assert.False(t, p.store.Get().LoggedIn())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.w.metrics.ForcedLogouts))

	// Every other screen now bounces too
	rec = p.get("/admin/users")
	assert.Equal(t, "/admin/login", rec.Header().Get(echo.HeaderLocation))
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransportFailureIs502(t *testing.T) {
	p := newTestPortalWith(t, "http://backend.invalid", failingTransport{})
	p.loginAs(t, "investor")

	rec := p.get("/investor/notifications")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not reach the server")
	// Not an authorization failure, so the session survives
	assert.True(t, p.store.Get().LoggedIn())
}

func TestBackendErrorStatusPassesThrough(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Folio not found"}`))
	})
	p.loginAs(t, "investor")

	rec := p.get("/investor/folios/F-404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Folio not found", res.Error)
}

func TestEmptyListRendersEmptyState(t *testing.T) {
	p := newTestPortal(t, emptyListBackend)
	p.loginAs(t, "investor")

	rec := p.get("/investor/complaints")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Items []any `json:"items"`
		Empty bool  `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.True(t, page.Empty)
}

func TestAuditLogsFilterAndPage(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/audit-logs", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		w.Write([]byte(`[
			{"id":1,"user":"Ravi","role":"Admin","action":"Approved txn","timestamp":"2025-03-01T10:00:00Z","ip":"10.0.0.1"},
			{"id":2,"user":"Meena","role":"AMC","action":"Login","timestamp":"2025-03-01T11:00:00Z","ip":"10.0.0.2"},
			{"id":3,"user":"Karan","role":"Admin","action":"Login","timestamp":"2025-03-02T09:00:00Z","ip":"10.0.0.3"},
			{"id":4,"user":"Divya","role":"Admin","action":"LOGIN","timestamp":"2025-03-02T09:30:00Z","ip":"10.0.0.4"}
		]`))
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/audit-logs?role=Admin&search=login&page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Items []struct {
			User string `json:"user"`
		} `json:"items"`
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
		Total      int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Empty(t, page.Items)

	rec = p.get("/admin/audit-logs?role=Admin&search=login")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Karan", page.Items[0].User)
	assert.Equal(t, "Divya", page.Items[1].User)
}

func TestAuditLogsCSVDownload(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"user":"Ravi","role":"Admin","action":"Approved txn","timestamp":"2025-03-01T10:00:00Z","ip":"10.0.0.1"},
			{"id":2,"user":"Meena","role":"AMC","action":"Login","timestamp":"2025-03-01T11:00:00Z","ip":"10.0.0.2"}
		]`))
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/audit-logs.csv?role=AMC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="audit_logs_2025-03-31.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	assert.Equal(t, "User,Role,Action,Timestamp,IP\nMeena,AMC,Login,2025-03-01T11:00:00Z,10.0.0.2\n", rec.Body.String())
}

func loginBackend(t *testing.T, profile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login", "/admin/login":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds["password"] != "Secret@123" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Incorrect email or password"}`))
				return
			}
			w.Write([]byte(`{"access_token":"` + testToken + `","token_type":"bearer"}`))
		case "/investor/profile", "/admin/admindashboard":
			w.Write([]byte(profile))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	p := newTestPortal(t, loginBackend(t, `{"role":"investor","name":"Asha"}`))

	rec := p.postJSON("/login", `{"email":"asha@example.com","password":"Secret@123"}`)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/investor", rec.Header().Get(echo.HeaderLocation))

	sess := p.store.Get()
	require.True(t, sess.LoggedIn())
	assert.Equal(t, testToken, sess.Token)
	assert.Equal(t, "Asha", sess.User.Field("name"))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.w.metrics.Logins.WithLabelValues("investor", "true")))

	rec = p.get("/session")
	require.Equal(t, http.StatusOK, rec.Code)
	var info AuthInfoRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.LoggedIn)
	assert.Equal(t, "investor", info.Role)

	rec = p.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.False(t, p.store.Get().LoggedIn())

	rec = p.get("/session")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAMCLoginLandsOnAMCHome(t *testing.T) {
	p := newTestPortal(t, loginBackend(t, `{"role":"amc"}`))

	rec := p.do(http.MethodPost, "/amc/login", strings.NewReader("email=ops%40amc.in&password=Secret%40123"),
		echo.HeaderContentType, echo.MIMEApplicationForm)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/amc", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "amc", p.store.Get().Role())
}

func TestLoginRejected(t *testing.T) {
	p := newTestPortal(t, loginBackend(t, `{"role":"investor"}`))

	rec := p.postJSON("/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")
	assert.False(t, p.store.Get().LoggedIn())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.w.metrics.Logins.WithLabelValues("investor", "false")))

	rec = p.postJSON("/login", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterValidatesBeforeCallingBackend(t *testing.T) {
	called := false
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	rec := p.postJSON("/register", `{"name":"Asha","pan":"bad","email":"asha@example.com","mobile":"9876543210","dob":"1990-01-01","address":"12 MG Road, Pune","password":"Secret@123","confirm_password":"Secret@123","terms":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Fields, "pan")

	rec = p.postJSON("/register", `{"name":"Asha","pan":"abcde1234f","email":"asha@example.com","mobile":"9876543210","dob":"1990-01-01","address":"12 MG Road, Pune","password":"Secret@123","confirm_password":"Secret@123","terms":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, called)
	// Registering never logs anyone in
	assert.False(t, p.store.Get().LoggedIn())
}

func TestDocumentUpload(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/investor/documents", r.URL.Path)
		assert.Equal(t, "KYC", r.FormValue("document_type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"document_type":"KYC","filename":"pan.pdf"}`))
	})
	p.loginAs(t, "investor")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("document_type", "KYC"))
	fw, err := mw.CreateFormFile("file", "pan.pdf")
	require.NoError(t, err)
	fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	rec := p.do(http.MethodPost, "/investor/documents", &buf, echo.HeaderContentType, mw.FormDataContentType())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "pan.pdf")
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	p := newTestPortal(t, emptyListBackend)

	rec := p.do(http.MethodGet, "/ping", nil, echo.HeaderOrigin, "https://ops.amc.in")
	assert.Equal(t, "https://ops.amc.in", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = p.do(http.MethodGet, "/ping", nil, echo.HeaderOrigin, "https://evil.example")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestVerifyAuth(t *testing.T) {
	p := newTestPortal(t, emptyListBackend)

	rec := p.get("/auth/verify?audience=nobody")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.get("/auth/verify?audience=amc")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/amc/login", rec.Header().Get(echo.HeaderLocation))

	p.loginAs(t, "amc")
	rec = p.get("/auth/verify?audience=amc")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	p := newTestPortal(t, emptyListBackend)
	p.get("/ping")

	rec := p.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rta_portal_requests_total{method="GET",route="/ping",status="200"} 1`)
}

func TestCASDownload(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/investor/api/cas/generate-excel", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		if r.URL.Query().Get("year") == "2019-20" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"No transactions for this year"}`))
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write([]byte("PK\x03\x04cas"))
	})

	rec := p.get("/investor/cas?year=2023-24")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	p.loginAs(t, "investor")
	rec = p.get("/investor/cas?year=2023-24")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="CAS_2023-24.xlsx"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "PK\x03\x04cas", rec.Body.String())

	rec = p.get("/investor/cas?year=2019-20")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No transactions for this year")

	rec = p.get("/investor/cas?year=2023-2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
}

const idcwBackendRows = `[
	{"Transaction_ID":"T010","Folio_Number":"F004","Investor_Name":"Neha Gupta","PAN":"PQRST3456U","Transaction_Type":"Payout","Units":100,"Amount":150,"Status":"Pending"},
	{"Transaction_ID":"T011","Folio_Number":"F005","Investor_Name":"Vijay Patil","PAN":"VWXYZ7890A","Transaction_Type":"Reinvestment","Units":200,"Amount":400,"Status":"Pending"},
	{"Transaction_ID":"T012","Folio_Number":"F006","Investor_Name":"Neha Gupta","PAN":"PQRST3456U","Transaction_Type":"Payout","Units":50,"Amount":75,"Status":"Completed"}
]`

func TestIDCWTotalsAndProcessing(t *testing.T) {
	processed := ""
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/admin/idcw":
			w.Write([]byte(idcwBackendRows))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/process"):
			processed = r.URL.Path
			w.Write([]byte(`{"Transaction_ID":"T010","Status":"Completed","Processed_By":"Admin"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/idcw?search=neha")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []struct {
			ID string `json:"Transaction_ID"`
		} `json:"items"`
		Total       int     `json:"total"`
		TotalAmount float64 `json:"total_amount"`
		TotalUnits  float64 `json:"total_units"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 225.0, page.TotalAmount)
	assert.Equal(t, 150.0, page.TotalUnits)

	rec = p.postJSON("/admin/idcw/T012/process", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, processed)

	rec = p.postJSON("/admin/idcw/T999/process", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = p.postJSON("/admin/idcw/T010/process", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/admin/idcw/T010/process", processed)
	assert.Contains(t, rec.Body.String(), `"Status":"Completed"`)
}

func TestUnclaimedFundsRelease(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/unclaimed":
			w.Write([]byte(`[
				{"Transaction_ID":"U001","Investor_Name":"Neha Gupta","Transaction_Type":"IDCW Payout","Amount":150,"Units":0,"Status":"Pending"},
				{"Transaction_ID":"U002","Investor_Name":"Priya Singh","Transaction_Type":"Redemption","Amount":2000,"Units":25,"Status":"Released"}
			]`))
		case "/admin/unclaimed/U001/release":
			w.Write([]byte(`{"Transaction_ID":"U001","Status":"Released","Processed_By":"Admin"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/unclaimed?type=Redemption")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_amount":2000`)

	rec = p.postJSON("/admin/unclaimed/U002/release", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = p.postJSON("/admin/unclaimed/U001/release", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNAVUploadScreen(t *testing.T) {
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[
				{"AMC_Name":"Visionary Mutual Fund","Scheme_Name":"Visionary Bluechip Fund","NAV":262,"Status":"Pending"},
				{"AMC_Name":"Progressive AMC","Scheme_Name":"Progressive Midcap Fund","NAV":82,"Status":"Pending"}
			]`))
		case http.MethodPost:
			w.Write([]byte(`[{"AMC_Name":"Progressive AMC","Scheme_Name":"Progressive Midcap Fund","NAV":82,"Status":"Pending"}]`))
		}
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/nav-uploads?amc=Progressive+AMC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = p.get("/admin/nav-uploads/template.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AMC_Name,Scheme_Name,NAV,Effective_Date\n", rec.Body.String())

	rec = p.do(http.MethodPost, "/admin/nav-uploads", strings.NewReader(""), echo.HeaderContentType, echo.MIMEApplicationForm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "navs.csv")
	require.NoError(t, err)
	fw.Write([]byte("AMC_Name,Scheme_Name,NAV,Effective_Date\n"))
	require.NoError(t, mw.Close())

	rec = p.do(http.MethodPost, "/admin/nav-uploads", &buf, echo.HeaderContentType, mw.FormDataContentType())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "NAV file processed")
}

func TestSystemSettingsSave(t *testing.T) {
	saved := false
	p := newTestPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			saved = true
		}
		w.Write([]byte(`[{"key":"Transaction Cutoff Time","value":"17:00","description":"Cutoff"}]`))
	})
	p.loginAs(t, "admin")

	rec := p.get("/admin/settings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transaction Cutoff Time")

	put := func(body string) *httptest.ResponseRecorder {
		return p.do(http.MethodPut, "/admin/settings", strings.NewReader(body), echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec = put(`[{"key":"NAV Calculation Time","value":"8pm"}]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Invalid time format (HH:mm expected)", res.Fields["NAV Calculation Time"])
	assert.False(t, saved)

	rec = put(`[{"key":"NAV Calculation Time","value":"20:00"}]`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "System settings saved successfully.")
	assert.True(t, saved)
}
