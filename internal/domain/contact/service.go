package contact

import (
	"context"
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/fault"
)

// Service serves contact content and accepts contact forms.
type Service struct {
	repo Repository
}

// NewService creates a contact Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Page loads the contact page content.
func (s *Service) Page(ctx context.Context) (*Page, error) {
	var (
		page    Page
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		info, err := s.repo.GetInfo(gctx)
		if err != nil {
			return errors.Wrap(err, "get info")
		}
		page.Info = *info
		return nil
	})
	g.Go(func() error {
		about, err := s.repo.GetAbout(gctx)
		if err != nil {
			return errors.Wrap(err, "get about")
		}
		page.About = about
		return nil
	})
	g.Go(func() error {
		employees, err := s.repo.ListEmployees(gctx)
		if err != nil {
			return errors.Wrap(err, "list employees")
		}
		page.Employees = employees
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &page, nil
}

// Submit validates and stores a contact form. Email is optional.
func (s *Service) Submit(ctx context.Context, f Form) (*Form, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.Question = strings.TrimSpace(f.Question)

	switch {
	case f.Name == "":
		return nil, fault.Validation("name", "is required")
	case f.Phone == "":
		return nil, fault.Validation("phone", "is required")
	case f.Question == "":
		return nil, fault.Validation("question", "is required")
	}
	for _, field := range []struct{ name, value string }{
		{"name", f.Name},
		{"phone", f.Phone},
		{"email", f.Email},
	} {
		if err := fault.MaxLength(field.name, field.value, MaxFieldLength); err != nil {
			return nil, err
		}
	}
	if f.Email != "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			return nil, fault.Validation("email", "is not a valid address")
		}
	}

	if err := s.repo.CreateForm(ctx, &f); err != nil {
		return nil, errors.Wrap(err, "create form")
	}
	return &f, nil
}
