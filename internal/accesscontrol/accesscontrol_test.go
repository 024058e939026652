package accesscontrol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachlan2k/rta-portal/internal/session"
)

func loggedInAs(role string) session.Session {
	return session.Session{
		Token: "token-1234567890",
		User:  &session.Profile{Role: role, Fields: map[string]any{}},
	}
}

func TestCheckAccessMatrix(t *testing.T) {
	tests := []struct {
		name  string
		sess  session.Session
		admin string
		amc   string
		inv   string
	}{
		{"no session", session.Session{}, "/admin/login", "/amc/login", "/login"},
		{"token without profile", session.Session{Token: "dangling"}, "/admin/login", "/amc/login", "/login"},
		{"investor", loggedInAs("investor"), "/login", "/login", ""},
		{"default user role", loggedInAs("user"), "/login", "/login", ""},
		{"admin", loggedInAs("admin"), "", "/amc/login", "/admin/admindashboard"},
		{"rta ceo", loggedInAs("RTA CEO"), "", "/amc/login", "/admin/admindashboard"},
		{"amc", loggedInAs("amc"), "/admin/login", "", "/amc"},
		{"unrecognized", loggedInAs("distributor"), "/admin/login", "/amc/login", "/"},
		{"empty role", loggedInAs(""), "/admin/login", "/amc/login", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admin, CheckAccess(tt.sess, AudienceAdmin).Path(), "admin-only route")
			assert.Equal(t, tt.amc, CheckAccess(tt.sess, AudienceAMC).Path(), "amc-only route")
			assert.Equal(t, tt.inv, CheckAccess(tt.sess, AudienceInvestor).Path(), "investor route")
		})
	}
}

func TestInvestorOnAdminRouteGoesToInvestorLogin(t *testing.T) {
	out := CheckAccess(loggedInAs("investor"), AudienceAdmin)
	assert.Equal(t, InvestorLogin, out)
	assert.NotEqual(t, "/admin/login", out.Path())
}

func TestDecideIsTotal(t *testing.T) {
	roles := []Role{Anonymous, Investor, Admin, AMC, Unrecognized}
	auds := []Audience{AudienceInvestor, AudienceAdmin, AudienceAMC}

	for _, r := range roles {
		for _, a := range auds {
			t.Run(fmt.Sprintf("%s/%s", r, a), func(t *testing.T) {
				out := Decide(r, a)
				if out == Render {
					assert.Empty(t, out.Path())
					assert.False(t, out.Redirects())
				} else {
					assert.NotEmpty(t, out.Path())
					assert.True(t, out.Redirects())
				}
			})
		}
	}

	assert.Equal(t, Landing, Decide(Role(99), AudienceAdmin))
	assert.Equal(t, Landing, Decide(Admin, Audience(-1)))
}

func TestOnlyMatchingRoleRenders(t *testing.T) {
	rendered := map[Audience][]Role{}
	for _, r := range []Role{Anonymous, Investor, Admin, AMC, Unrecognized} {
		for _, a := range []Audience{AudienceInvestor, AudienceAdmin, AudienceAMC} {
			if Decide(r, a) == Render {
				rendered[a] = append(rendered[a], r)
			}
		}
	}

	assert.Equal(t, map[Audience][]Role{
		AudienceInvestor: {Investor},
		AudienceAdmin:    {Admin},
		AudienceAMC:      {AMC},
	}, rendered)
}

func TestAudienceOf(t *testing.T) {
	a, err := AudienceOf(false, false)
	require.NoError(t, err)
	assert.Equal(t, AudienceInvestor, a)

	a, err = AudienceOf(true, false)
	require.NoError(t, err)
	assert.Equal(t, AudienceAdmin, a)

	a, err = AudienceOf(false, true)
	require.NoError(t, err)
	assert.Equal(t, AudienceAMC, a)

	_, err = AudienceOf(true, true)
	assert.Error(t, err)
}

func TestParseAudience(t *testing.T) {
	for in, want := range map[string]Audience{"": AudienceInvestor, "Investor": AudienceInvestor, "admin": AudienceAdmin, " AMC ": AudienceAMC} {
		got, err := ParseAudience(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAudience("distributor")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, Admin, ParseRole("admin"))
	assert.Equal(t, Admin, ParseRole("RTA CEO"))
	assert.Equal(t, AMC, ParseRole("amc"))
	assert.Equal(t, Investor, ParseRole("investor"))
	assert.Equal(t, Investor, ParseRole("user"))
	assert.Equal(t, Unrecognized, ParseRole("Admin"))
	assert.Equal(t, Unrecognized, ParseRole(""))
}
