// Package validation checks configuration, pipeline definitions and
// operator parameters before anything is compiled.
//
// Struct tags cover declarative documents such as the CLI config and YAML
// definitions:
//
//	type Step struct {
//	    Op   string `yaml:"op" validate:"required,oneof=map filter window reduce custom sink"`
//	    Size int    `yaml:"size" validate:"gte=0"`
//	}
//	err := validation.Validate(step)
//
// The programmatic Validator collects errors for values assembled at run
// time, such as indicator parameters:
//
//	v := validation.New()
//	v.Min("window", p.Window, 1)
//	err := v.Err()
//
// Both report INVALID_INPUT with a "fields" detail.
package validation
