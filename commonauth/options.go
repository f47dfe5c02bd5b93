package commonauth

import (
	"regexp"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/validation"
)

// Kind names a strategy the plugin can install. The kind is also the
// strategy name and the options key.
type Kind string

const (
	KindJWT      Kind = "jwt"
	KindBearer   Kind = "bearer"
	KindPlan3Key Kind = "plan3Key"
)

// Kinds lists every kind in default policy order.
var Kinds = []Kind{KindJWT, KindBearer, KindPlan3Key}

const keyDefaultAuth = "defaultAuth"

// tokenKeyPattern is tested against every token map key, unanchored.
var tokenKeyPattern = regexp.MustCompile(`\w+`)

// Options configures the plugin. Every kind is optional.
type Options struct {
	JWT         *JWTOptions          `mapstructure:"jwt" json:"jwt,omitempty"`
	Bearer      *TokenOptions        `mapstructure:"bearer" json:"bearer,omitempty"`
	Plan3Key    *TokenOptions        `mapstructure:"plan3Key" json:"plan3Key,omitempty"`
	DefaultAuth *auth.PolicyOverride `mapstructure:"defaultAuth" json:"defaultAuth,omitempty"`
}

// JWTOptions configures the jwt strategy.
type JWTOptions struct {
	// PublicKey is the base64 DER public key, without PEM armour.
	PublicKey string `mapstructure:"publicKey" json:"publicKey" validate:"required"`

	// NonExpiringIDs is accepted for compatibility and not used.
	NonExpiringIDs []string `mapstructure:"nonExpiringIds" json:"nonExpiringIds,omitempty" validate:"omitempty,unique"`
}

// TokenOptions configures a static token strategy (bearer or plan3Key).
type TokenOptions struct {
	// Tokens maps a token to the newsroom that owns it.
	Tokens map[string]string `mapstructure:"tokens" json:"tokens" validate:"required,dive,required"`

	// AdditionalCredentials are merged into the credentials of every token.
	AdditionalCredentials map[string]any `mapstructure:"additionalCredentials" json:"additionalCredentials,omitempty"`
}

// ParseOptions checks a raw options map (decoded YAML, TOML or JSON) and
// converts it into Options. All problems are reported together in one
// INVALID_CONFIGURATION error whose cause lists the failing fields.
func ParseOptions(raw map[string]any) (*Options, error) {
	if fields := checkShape(raw); len(fields) > 0 {
		return nil, errors.InvalidConfiguration(PluginName, validation.New().Merge(fields).Validate())
	}

	var opts Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opts,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := dec.Decode(dropNil(raw)); err != nil {
		return nil, errors.InvalidConfiguration(PluginName, errors.Validation(err.Error()).WithCause(err))
	}
	opts.normalize()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// dropNil removes nil entries from raw and from each section object, the
// two levels checkShape treats a nil value as absent.
func dropNil(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		if obj, ok := asObject(v); ok {
			section := make(map[string]any, len(obj))
			for fk, fv := range obj {
				if fv != nil {
					section[fk] = fv
				}
			}
			v = section
		}
		out[k] = v
	}
	return out
}

// Validate checks typed options, for callers that build Options in code.
func (o *Options) Validate() error {
	v := validation.New().Merge(validation.StructErrors(o))
	for _, kind := range []Kind{KindBearer, KindPlan3Key} {
		to := o.tokenOptions(kind)
		if to == nil {
			continue
		}
		keys := make([]string, 0, len(to.Tokens))
		for k := range to.Tokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tv := v.At(string(kind) + ".tokens")
		for _, k := range keys {
			tv.Pattern(k, k, tokenKeyPattern)
		}
	}
	if err := v.Validate(); err != nil {
		return errors.InvalidConfiguration(PluginName, err)
	}
	return nil
}

// Configured reports whether options for kind are present.
func (o *Options) Configured(kind Kind) bool {
	switch kind {
	case KindJWT:
		return o.JWT != nil
	default:
		return o.tokenOptions(kind) != nil
	}
}

func (o *Options) tokenOptions(kind Kind) *TokenOptions {
	switch kind {
	case KindBearer:
		return o.Bearer
	case KindPlan3Key:
		return o.Plan3Key
	default:
		return nil
	}
}

// normalize turns a decoded empty token map into a non-nil one so that
// "tokens: {}" satisfies the required check.
func (o *Options) normalize() {
	for _, to := range []*TokenOptions{o.Bearer, o.Plan3Key} {
		if to != nil && to.Tokens == nil {
			to.Tokens = map[string]string{}
		}
	}
}
