package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Audience names used as keys of the endpoints table
const (
	AudienceInvestor = "investor"
	AudienceAdmin    = "admin"
	AudienceAMC      = "amc"
)

// Endpoints are the backend paths a login page talks to, plus the portal page
// the user lands on afterwards.
type Endpoints struct {
	Login    string `toml:"login"`
	Profile  string `toml:"profile"`
	Register string `toml:"register"`
	Home     string `toml:"home"`
}

type Config struct {
	ListenPort int    `toml:"port"`
	ListenHost string `toml:"listen_host"`
	APIBaseURL string `toml:"api_base_url"`

	// Seconds. 0 leaves outbound requests without a deadline.
	RequestTimeout int `toml:"request_timeout"`

	// Origins allowed to call the portal from a browser. Supports *.example.com
	AllowedOrigins []string `toml:"allowed_origins"`

	Session struct {
		File  string `toml:"file"`
		Watch bool   `toml:"watch"`
	} `toml:"session"`

	Endpoints map[string]Endpoints `toml:"endpoints"`

	Audit struct {
		SearchDebounceMs int    `toml:"search_debounce_ms"`
		PageSize         int    `toml:"page_size"`
		Path             string `toml:"path"`
	} `toml:"audit"`

	Metrics struct {
		Enabled bool `toml:"enabled"`
	} `toml:"metrics"`
}

// TOML marshaller doesn't override fields that weren't set in the TOML, so we can apply defaults here
func (c *Config) setDefaults() {
	c.ListenPort = 8080
	c.ListenHost = "127.0.0.1"

	c.Session.File = defaultSessionFile()
	c.Session.Watch = true

	c.Endpoints = DefaultEndpoints()

	c.Audit.SearchDebounceMs = 300
	c.Audit.PageSize = 10
	c.Audit.Path = "/admin/audit-logs"

	c.Metrics.Enabled = true
}

// DefaultEndpoints mirrors the backend's routing. AMC staff authenticate
// against the admin backend and land on the AMC dashboard.
func DefaultEndpoints() map[string]Endpoints {
	return map[string]Endpoints{
		AudienceInvestor: {
			Login:    "/auth/login",
			Profile:  "/investor/profile",
			Register: "/auth/register",
			Home:     "/investor",
		},
		AudienceAdmin: {
			Login:    "/admin/login",
			Profile:  "/admin/admindashboard",
			Register: "/admin/register",
			Home:     "/admin/admindashboard",
		},
		AudienceAMC: {
			Login:    "/admin/login",
			Profile:  "/admin/admindashboard",
			Register: "/admin/register",
			Home:     "/amc",
		},
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".rta-portal", "session.json")
	}
	return filepath.Join(home, ".rta-portal", "session.json")
}

// Timeout for outbound backend requests, zero when none is configured
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.Audit.SearchDebounceMs) * time.Millisecond
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// EndpointsFor returns the endpoint set for an audience, falling back to the investor one
func (c *Config) EndpointsFor(audience string) Endpoints {
	if e, ok := c.Endpoints[audience]; ok {
		return e
	}
	return c.Endpoints[AudienceInvestor]
}

// Default returns a config with every default applied and no file read
func Default() *Config {
	conf := new(Config)
	conf.setDefaults()
	return conf
}

func LoadFromTomlFileAndValidate(filepath string) (*Config, error) {
	file, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	return LoadFromTomlAndValidate(file)
}

func LoadFromTomlAndValidate(raw []byte) (*Config, error) {
	conf := Default()

	err := toml.Unmarshal(raw, conf)
	if err != nil {
		return nil, err
	}

	// Partially specified endpoint tables keep the defaults for the missing keys
	defaults := DefaultEndpoints()
	for name, def := range defaults {
		e, ok := conf.Endpoints[name]
		if !ok {
			conf.Endpoints[name] = def
			continue
		}
		if e.Login == "" {
			e.Login = def.Login
		}
		if e.Profile == "" {
			e.Profile = def.Profile
		}
		if e.Register == "" {
			e.Register = def.Register
		}
		if e.Home == "" {
			e.Home = def.Home
		}
		conf.Endpoints[name] = e
	}

	if envURL := os.Getenv("RTA_API_URL"); envURL != "" {
		conf.APIBaseURL = envURL
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("please supply api_base_url (or set RTA_API_URL)")
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.ListenPort)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0")
	}

	if c.Session.File == "" {
		return fmt.Errorf("session.file must not be empty")
	}

	if c.Audit.PageSize <= 0 {
		return fmt.Errorf("audit.page_size must be > 0")
	}

	if c.Audit.SearchDebounceMs < 0 {
		return fmt.Errorf("audit.search_debounce_ms must be >= 0")
	}

	for name, e := range c.Endpoints {
		if !strings.HasPrefix(e.Login, "/") || !strings.HasPrefix(e.Profile, "/") || !strings.HasPrefix(e.Register, "/") || !strings.HasPrefix(e.Home, "/") {
			return fmt.Errorf("endpoints.%s: every path must start with /", name)
		}
	}

	return nil
}
