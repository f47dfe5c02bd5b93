package server

import (
	"context"
	"maps"

	"github.com/plan3/commonauth/auth"
	apperrors "github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/observability"
)

// Plugin installs authentication schemes and strategies into a host.
type Plugin interface {
	Name() string
	Version() string
	Register(ctx context.Context, host auth.Host, options map[string]any) error
}

// Register runs plugin against the server's auth registry with the given
// options. A plugin name registers at most once per server; a repeat answers
// ALREADY_REGISTERED. A failed registration frees the name, so a plugin that
// failed before installing anything (rejected options) may register again.
// Strategies installed before a later failure stay on the registry, and a
// retry that installs them again fails with auth.ErrSchemeExists.
func (s *Server) Register(ctx context.Context, plugin Plugin, options map[string]any) error {
	name := plugin.Name()

	s.mu.Lock()
	if _, exists := s.plugins[name]; exists {
		s.mu.Unlock()
		return apperrors.AlreadyRegistered(name)
	}
	s.plugins[name] = plugin.Version()
	s.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanPluginRegister)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPlugin, name)

	if err := plugin.Register(ctx, s.registry, options); err != nil {
		s.mu.Lock()
		delete(s.plugins, name)
		s.mu.Unlock()

		observability.SetSpanError(ctx, err)
		fields := logger.Fields("plugin", name, logger.FieldError, err.Error())
		if appErr, ok := apperrors.AsAppError(err); ok {
			fields["code"] = string(appErr.Code)
		}
		s.log.Error("Plugin registration failed", fields)
		return err
	}

	policy, hasDefault := s.registry.Default()
	fields := logger.Fields(
		"plugin", name,
		"version", plugin.Version(),
		"strategies", s.registry.Names(),
	)
	if hasDefault {
		fields["default"] = policy.Strategies
		fields["mode"] = string(policy.Mode)
	}
	s.log.Info("Plugin registered", fields)
	return nil
}

// Plugins returns the registered plugin names mapped to their versions.
func (s *Server) Plugins() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.plugins)
}
