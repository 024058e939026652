package views

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lachlan2k/rta-portal/internal/apiclient"
)

// Service fetches and mutates the data behind each portal screen. Every call
// goes through the authenticated client, so a 401 anywhere ends the session.
type Service struct {
	client    *apiclient.Client
	auditPath string
}

func NewService(client *apiclient.Client, auditPath string) *Service {
	if auditPath == "" {
		auditPath = "/admin/audit-logs"
	}
	return &Service{client: client, auditPath: auditPath}
}

func getList[T any](ctx context.Context, s *Service, path string) ([]T, error) {
	var out []T
	if err := s.client.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func create[T any](ctx context.Context, s *Service, path string, in any) (*T, error) {
	out := new(T)
	if err := s.client.SendJSON(ctx, http.MethodPost, path, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func update[T any](ctx context.Context, s *Service, path string, in any) (*T, error) {
	out := new(T)
	if err := s.client.SendJSON(ctx, http.MethodPut, path, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func idPath(prefix string, id any) string {
	return fmt.Sprintf("%s/%s", prefix, url.PathEscape(fmt.Sprint(id)))
}
