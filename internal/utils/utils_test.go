package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowlist(t *testing.T) {
	allow := OriginAllowlist{"https://portal.rta.in/", "*.amc.in", "*://localhost:5173"}

	assert.True(t, allow.Allows("https://portal.rta.in"))
	assert.True(t, allow.Allows("HTTPS://Portal.RTA.in"))
	assert.True(t, allow.Allows("https://ops.amc.in"))
	assert.True(t, allow.Allows("http://localhost:5173"))

	assert.False(t, allow.Allows("https://amc.in.evil.com"))
	assert.False(t, allow.Allows("https://portal.rta.in.evil.com"))
	assert.False(t, allow.Allows(""))
	assert.False(t, OriginAllowlist{""}.Allows("https://portal.rta.in"))
	assert.False(t, OriginAllowlist(nil).Allows("https://portal.rta.in"))
}

func TestOriginAllowlistStar(t *testing.T) {
	assert.True(t, OriginAllowlist{"*"}.Allows("https://anything.example"))
	assert.False(t, OriginAllowlist{"*"}.Allows(""))
}
