package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultRole is given to profiles the backend returned without a role
const DefaultRole = "user"

// Profile is the logged-in identity as returned by the backend. Only Role is
// interpreted by the portal; everything else is passed through for display.
type Profile struct {
	Role   string
	Fields map[string]any
}

func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["role"] = p.Role
	return json.Marshal(out)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("profile must be a JSON object")
	}

	p.Role = ""
	if role, ok := raw["role"].(string); ok {
		p.Role = role
	}
	delete(raw, "role")
	p.Fields = raw
	return nil
}

// Field returns a display field as a string, or "" if absent
func (p *Profile) Field(name string) string {
	if p == nil {
		return ""
	}
	v, ok := p.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Session pairs the bearer token with the profile it resolved to. Both are
// set together and cleared together.
type Session struct {
	User  *Profile
	Token string
}

// LoggedIn is true only when both halves are present. A token whose profile
// was never resolved does not count.
func (s Session) LoggedIn() bool {
	return s.User != nil && s.Token != ""
}

// Role of the logged in user, "" when logged out
func (s Session) Role() string {
	if !s.LoggedIn() {
		return ""
	}
	return s.User.Role
}

// Store is the single source of truth for who is logged in.
type Store interface {
	Get() Session
	Set(token string, user Profile) error
	Clear() error
	// Subscribe registers fn to be called after every change. The returned
	// func removes the subscription.
	Subscribe(fn func(Session)) (cancel func())
}

var ErrInvalidSession = errors.New("session state was invalid")
