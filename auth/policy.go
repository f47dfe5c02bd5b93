package auth

// Mode controls what happens when no strategy of a policy authenticates a
// request.
type Mode string

const (
	// ModeRequired rejects unauthenticated requests.
	ModeRequired Mode = "required"
	// ModeOptional lets requests without credentials through but rejects
	// requests with invalid credentials.
	ModeOptional Mode = "optional"
	// ModeTry lets every request through and attaches credentials when a
	// strategy accepts them.
	ModeTry Mode = "try"
)

// Modes lists the accepted modes in declaration order.
var Modes = []Mode{ModeRequired, ModeOptional, ModeTry}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// Policy is an ordered list of strategies tried against a request.
type Policy struct {
	Strategies []string `mapstructure:"strategies" json:"strategies"`
	Mode       Mode     `mapstructure:"mode" json:"mode"`
}

// Clone returns a deep copy of p.
func (p Policy) Clone() Policy {
	return Policy{
		Strategies: append([]string(nil), p.Strategies...),
		Mode:       p.Mode,
	}
}

// Merge applies o over p. Every field o supplies replaces the one in p;
// strategies are replaced as a whole, not appended.
func (p Policy) Merge(o *PolicyOverride) Policy {
	out := p.Clone()
	if o == nil {
		return out
	}
	if o.Strategies != nil {
		out.Strategies = append([]string(nil), o.Strategies...)
	}
	if o.Mode != "" {
		out.Mode = o.Mode
	}
	return out
}

// PolicyOverride carries the fields a caller wants to change on a derived
// policy. Nil strategies and an empty mode leave the derived values alone.
type PolicyOverride struct {
	Strategies []string `mapstructure:"strategies" json:"strategies,omitempty" validate:"omitempty,unique,dive,required"`
	Mode       Mode     `mapstructure:"mode" json:"mode,omitempty" validate:"omitempty,oneof=required optional try"`
}
