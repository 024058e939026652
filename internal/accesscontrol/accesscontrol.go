package accesscontrol

import (
	"fmt"
	"strings"

	"github.com/lachlan2k/rta-portal/internal/session"
)

// Role is the closed set of identities the guard reasons about
type Role int

const (
	Anonymous Role = iota
	Investor
	Admin
	AMC
	// Unrecognized is a logged in user whose role string we don't know
	Unrecognized
)

func (r Role) String() string {
	switch r {
	case Anonymous:
		return "anonymous"
	case Investor:
		return "investor"
	case Admin:
		return "admin"
	case AMC:
		return "amc"
	default:
		return "unrecognized"
	}
}

// ParseRole maps the backend's role string. "RTA CEO" is an administrator and
// "user" is the default investor role given to profiles without one.
func ParseRole(s string) Role {
	switch s {
	case "admin", "RTA CEO":
		return Admin
	case "amc":
		return AMC
	case "investor", session.DefaultRole:
		return Investor
	default:
		return Unrecognized
	}
}

// RoleOf returns Anonymous unless both token and profile are present
func RoleOf(sess session.Session) Role {
	if !sess.LoggedIn() {
		return Anonymous
	}
	return ParseRole(sess.User.Role)
}

// Audience is who a route is meant for
type Audience int

const (
	AudienceInvestor Audience = iota
	AudienceAdmin
	AudienceAMC
)

func (a Audience) String() string {
	switch a {
	case AudienceAdmin:
		return "admin"
	case AudienceAMC:
		return "amc"
	default:
		return "investor"
	}
}

// AudienceOf converts the two gating flags. Setting both is meaningless and
// rejected rather than guessed at.
func AudienceOf(adminOnly, amcOnly bool) (Audience, error) {
	switch {
	case adminOnly && amcOnly:
		return AudienceInvestor, fmt.Errorf("a route cannot be both admin-only and amc-only")
	case adminOnly:
		return AudienceAdmin, nil
	case amcOnly:
		return AudienceAMC, nil
	default:
		return AudienceInvestor, nil
	}
}

// ParseAudience accepts the names used in config files
func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "investor":
		return AudienceInvestor, nil
	case "admin":
		return AudienceAdmin, nil
	case "amc":
		return AudienceAMC, nil
	default:
		return AudienceInvestor, fmt.Errorf("unknown audience %q", s)
	}
}

// Outcome is what the guard decided: render the page, or redirect somewhere
type Outcome int

const (
	Render Outcome = iota
	InvestorLogin
	AdminLogin
	AMCLogin
	AdminHome
	AMCHome
	Landing
)

// Path is the redirect target, "" for Render
func (o Outcome) Path() string {
	switch o {
	case InvestorLogin:
		return "/login"
	case AdminLogin:
		return "/admin/login"
	case AMCLogin:
		return "/amc/login"
	case AdminHome:
		return "/admin/admindashboard"
	case AMCHome:
		return "/amc"
	case Landing:
		return "/"
	default:
		return ""
	}
}

func (o Outcome) Redirects() bool {
	return o != Render
}

var decisions = [...][3]Outcome{
	//             AudienceInvestor AudienceAdmin AudienceAMC
	Anonymous:    {InvestorLogin, AdminLogin, AMCLogin},
	Investor:     {Render, InvestorLogin, InvestorLogin},
	Admin:        {AdminHome, Render, AMCLogin},
	AMC:          {AMCHome, AdminLogin, Render},
	Unrecognized: {Landing, AdminLogin, AMCLogin},
}

// Decide is a pure function of the role and the route's audience. Every
// combination has exactly one answer, so there is no fallthrough.
func Decide(role Role, aud Audience) Outcome {
	if role < Anonymous || role > Unrecognized || aud < AudienceInvestor || aud > AudienceAMC {
		return Landing
	}
	return decisions[role][aud]
}

// CheckAccess decides for the current session
func CheckAccess(sess session.Session, aud Audience) Outcome {
	return Decide(RoleOf(sess), aud)
}
