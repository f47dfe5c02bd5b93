package commonauth

import (
	"context"
	stderrors "errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/auth/bearer"
	"github.com/plan3/commonauth/auth/jwt"
	"github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/version"
)

// PluginName is the name the plugin registers under.
const PluginName = "commonauth"

// Authorization scheme words of the token strategies.
const (
	JWTTokenType      = "Plan3JWT"
	BearerTokenType   = bearer.DefaultTokenType
	Plan3KeyTokenType = "Plan3Key"
)

var jwtAlgorithms = []jwt.SigningMethod{jwt.RS256, jwt.RS384, jwt.RS512}

var errNilHost = stderrors.New("commonauth: nil host")

// Option configures a registration.
type Option func(*settings)

type settings struct {
	log *logger.Logger
}

// WithLogger sets the logger that receives debug-level state transitions.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent(PluginName)
	return s
}

// Plugin adapts Register to the server's plugin interface.
type Plugin struct {
	opts []Option
}

// New creates the plugin.
func New(opts ...Option) *Plugin {
	return &Plugin{opts: opts}
}

// Name returns PluginName.
func (p *Plugin) Name() string { return PluginName }

// Version returns the build version.
func (p *Plugin) Version() string { return version.Version }

// Register validates raw options and installs the configured strategies.
func (p *Plugin) Register(ctx context.Context, host auth.Host, raw map[string]any) error {
	_, err := Register(ctx, host, raw, p.opts...)
	return err
}

// Register validates raw options and installs the configured strategies and
// the default policy on host. The returned Registration is never nil and
// reports how far each kind got, also on failure.
func Register(ctx context.Context, host auth.Host, raw map[string]any, opts ...Option) (*Registration, error) {
	s := newSettings(opts)
	reg := newRegistration(s.log)
	for _, kind := range Kinds {
		if raw[string(kind)] != nil {
			reg.set(kind, StateValidating)
		}
	}

	parsed, err := ParseOptions(raw)
	if err != nil {
		reg.failPending()
		return reg, err
	}
	return reg, install(ctx, host, parsed, reg)
}

// RegisterOptions is Register for options built in code.
func RegisterOptions(ctx context.Context, host auth.Host, opts *Options, options ...Option) (*Registration, error) {
	s := newSettings(options)
	reg := newRegistration(s.log)
	if opts == nil {
		opts = &Options{}
	}
	for _, kind := range Kinds {
		if opts.Configured(kind) {
			reg.set(kind, StateValidating)
		}
	}

	if err := opts.Validate(); err != nil {
		reg.failPending()
		return reg, err
	}
	return reg, install(ctx, host, opts, reg)
}

// install registers every configured kind concurrently, then composes the
// default policy. The first failure wins; strategies that did register are
// left in place and no default policy is set.
func install(ctx context.Context, host auth.Host, opts *Options, reg *Registration) error {
	if host == nil {
		reg.failPending()
		return errors.RegistrationFailed(PluginName, errNilHost)
	}

	var (
		schemeOnce sync.Once
		schemeErr  error
	)
	bearerScheme := func() error {
		schemeOnce.Do(func() {
			schemeErr = host.RegisterScheme(bearer.SchemeName, bearer.Scheme())
		})
		return schemeErr
	}

	g, gctx := errgroup.WithContext(ctx)
	names := make([]string, 0, len(Kinds))
	for _, kind := range Kinds {
		if !opts.Configured(kind) {
			continue
		}
		names = append(names, string(kind))

		var task func() error
		switch kind {
		case KindJWT:
			task = func() error { return registerJWT(host, opts.JWT) }
		case KindBearer:
			task = func() error { return registerTokens(host, bearerScheme, kind, BearerTokenType, opts.Bearer) }
		case KindPlan3Key:
			task = func() error { return registerTokens(host, bearerScheme, kind, Plan3KeyTokenType, opts.Plan3Key) }
		}
		g.Go(func() error { return reg.run(gctx, kind, task) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	reg.setStrategies(names)

	policy := auth.Policy{Strategies: names, Mode: auth.ModeRequired}.Merge(opts.DefaultAuth)
	if len(policy.Strategies) == 0 {
		reg.log.Debug("no strategies selected, default policy left unset")
		return nil
	}
	if policy.Mode == "" {
		policy.Mode = auth.ModeRequired
	}
	if err := host.SetDefault(policy); err != nil {
		return errors.RegistrationFailed(keyDefaultAuth, err)
	}
	reg.setDefault(policy)
	return nil
}

func registerJWT(host auth.Host, o *JWTOptions) error {
	if err := host.RegisterScheme(jwt.SchemeName, jwt.Scheme()); err != nil {
		return err
	}
	return host.Strategy(string(KindJWT), jwt.SchemeName, &jwt.Config{
		Key:        jwt.Base64ToPEM(o.PublicKey),
		Algorithms: jwtAlgorithms,
		TokenType:  JWTTokenType,
	})
}

func registerTokens(host auth.Host, scheme func() error, kind Kind, tokenType string, o *TokenOptions) error {
	if err := scheme(); err != nil {
		return err
	}
	return host.Strategy(string(kind), bearer.SchemeName, &bearer.Config{
		TokenType: tokenType,
		Validate:  TokenLookup(o.Tokens, o.AdditionalCredentials),
	})
}
