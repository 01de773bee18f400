package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"algotracker/internal/account"
	"algotracker/internal/model"
	"algotracker/internal/pkg/apperr"
)

// SeedBootstrapManager creates the configured manager account when it does
// not exist yet. It is a no-op without configured credentials.
func (s *Server) SeedBootstrapManager(ctx context.Context) error {
	email := strings.TrimSpace(s.cfg.Security.BootstrapManagerEmail)
	pass := s.cfg.Security.BootstrapManagerPass
	if email == "" || pass == "" {
		return nil
	}
	name := s.cfg.Security.BootstrapManagerName
	if name == "" {
		name = "admin"
	}

	_, err := s.accounts.Register(ctx, account.RegisterInput{
		Email:    email,
		Password: pass,
		Name:     name,
	}, model.RoleManager)
	if err == nil {
		s.logger.Info("bootstrap manager created", slog.String("email", model.NormalizeEmail(email)))
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind == apperr.KindConflict {
		return nil
	}
	return err
}
