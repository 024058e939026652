package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/config"
	"github.com/lachlan2k/rta-portal/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token received")
	ErrProfileFetch       = errors.New("profile fetch failed")
	ErrRegistration       = errors.New("registration failed")
)

// Tokens shorter than this are rejected before we try to use them
const minTokenLength = 10

// FlowError carries the message to show the user, while still matching one
// of the sentinel errors above with errors.Is.
type FlowError struct {
	Kind    error
	Message string
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Kind
}

// Service runs the login, registration and logout flows against the backend
// and keeps the session store in step.
type Service struct {
	client *apiclient.Client
	store  session.Store
	conf   *config.Config
	logger *slog.Logger
}

func NewService(client *apiclient.Client, conf *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		store:  client.Store(),
		conf:   conf,
		logger: logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult says where to send the user next
type LoginResult struct {
	Home    string
	Profile session.Profile
}

// Login exchanges credentials for a token, resolves the profile with it and
// only then persists the pair. A failure at any step leaves the store as it
// was, so a token is never stored without its profile.
func (s *Service) Login(ctx context.Context, email, password string, aud accesscontrol.Audience) (*LoginResult, error) {
	endpoints := s.conf.EndpointsFor(aud.String())

	var token oauth2.Token
	err := s.client.PostPublic(ctx, endpoints.Login, credentials{Email: email, Password: password}, &token)
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); ok {
			s.logger.Info("login rejected", "audience", aud, "status", apiErr.Status)
			return nil, &FlowError{Kind: ErrInvalidCredentials, Message: apiErr.MessageOr("Login failed")}
		}
		return nil, err
	}

	if len(token.AccessToken) < minTokenLength {
		return nil, &FlowError{Kind: ErrInvalidToken, Message: "Invalid token received"}
	}

	var profile session.Profile
	if err := s.client.GetJSONWithToken(ctx, endpoints.Profile, &token, &profile); err != nil {
		s.logger.Warn("token accepted but profile fetch failed", "audience", aud, "error", err)
		return nil, &FlowError{Kind: ErrProfileFetch, Message: "Failed to fetch profile: " + err.Error()}
	}
	if profile.Role == "" {
		profile.Role = session.DefaultRole
	}
	if profile.Fields == nil {
		profile.Fields = map[string]any{}
	}

	if err := s.store.Set(token.AccessToken, profile); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("logged in", "audience", aud, "role", profile.Role)
	return &LoginResult{Home: endpoints.Home, Profile: profile}, nil
}

// Register posts the payload to the audience's registration endpoint. It does
// not log the user in.
func (s *Service) Register(ctx context.Context, payload any, aud accesscontrol.Audience) error {
	if v, ok := payload.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	endpoints := s.conf.EndpointsFor(aud.String())
	err := s.client.PostPublic(ctx, endpoints.Register, payload, nil)
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); ok {
			return &FlowError{Kind: ErrRegistration, Message: apiErr.MessageOr("Registration failed")}
		}
		return err
	}

	s.logger.Info("registered", "audience", aud)
	return nil
}

// Logout only forgets the session locally; the backend is not told. Safe to
// call when already logged out. Returns the landing path.
func (s *Service) Logout() (string, error) {
	if err := s.store.Clear(); err != nil {
		return "", err
	}
	return accesscontrol.Landing.Path(), nil
}

type backendMessage struct {
	Message string `json:"message"`
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}
	return s.client.SendJSON(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

// ForgotPassword asks the backend to email a reset link. Accepts an email or a PAN.
func (s *Service) ForgotPassword(ctx context.Context, emailOrPAN string) (string, error) {
	var res backendMessage
	err := s.client.PostPublic(ctx, "/auth/auth/forgot-password", map[string]string{"email_or_pan": emailOrPAN}, &res)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}

	var res backendMessage
	err := s.client.PostPublic(ctx, "/auth/auth/reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}
