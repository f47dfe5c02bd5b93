// Package validation provides input validation utilities.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both styles report through
// the same FieldError list and produce a single *errors.AppError.
//
// # Struct Tag Validation
//
//	type JWTOptions struct {
//	    PublicKey      string   `mapstructure:"publicKey" validate:"required"`
//	    NonExpiringIDs []string `mapstructure:"nonExpiringIds" validate:"omitempty,unique"`
//	}
//	err := validation.Validate(opts)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(ok, "jwt.publicKey", "must be a string")
//	err := v.Validate()
package validation
