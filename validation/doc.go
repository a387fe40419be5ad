// Package validation checks layout options, configuration and decoded
// snapshots.
//
// Struct tag validation uses the go-playground validator:
//
//	type Options struct {
//	    Direction string  `json:"direction" validate:"oneof=LR RL TB BT"`
//	    NodeSep   float64 `json:"node_sep" validate:"gte=0"`
//	}
//	err := validation.Validate(opts)
//
// Programmatic checks collect field errors:
//
//	v := validation.New()
//	v.Required("id", p.ID).OneOf("kind", kind, kinds)
//	if err := v.Validate(); err != nil { ... }
//
// Both forms return *errors.AppError with code INVALID_INPUT and the field
// list under Details["fields"].
package validation
