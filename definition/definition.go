package definition

import (
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/validation"
)

// Step ops accepted in a definition.
const (
	OpMap    = "map"
	OpFilter = "filter"
	OpWindow = "window"
	OpReduce = "reduce"
	OpCustom = "custom"
	OpSink   = "sink"
)

// Definition is a YAML pipeline: one source, or inline data, followed by
// steps. Included definitions are merged in before the steps run.
type Definition struct {
	// Name identifies the definition for includes.
	Name string `yaml:"name" validate:"required"`
	// Source is the source URI.
	Source string `yaml:"source,omitempty"`
	// Data is an inline row set used instead of Source.
	Data []record.Row `yaml:"data,omitempty"`
	// Includes lists definitions merged with this one.
	Includes []string `yaml:"includes,omitempty"`
	// Steps are applied in order.
	Steps []Step `yaml:"steps" validate:"dive"`
}

// Step is one operator.
type Step struct {
	Op string `yaml:"op" validate:"required,oneof=map filter window reduce custom sink"`
	// Fn names a registered function for map, filter and reduce.
	Fn string `yaml:"fn,omitempty" validate:"required_if=Op map,required_if=Op filter,required_if=Op reduce"`
	// Expr overrides the function's symbolic expression.
	Expr string `yaml:"expr,omitempty"`
	// Kind is the custom op kind, for example RSI.
	Kind   string         `yaml:"kind,omitempty" validate:"required_if=Op custom"`
	Params map[string]any `yaml:"params,omitempty"`
	Size   int            `yaml:"size,omitempty"`
	Init   any            `yaml:"init,omitempty"`
	URI    string         `yaml:"uri,omitempty"`
}

// Validate checks tags and the rules tags cannot express.
func (d *Definition) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}
	v := validation.New()
	v.Custom(d.Source != "" || len(d.Data) > 0 || len(d.Includes) > 0,
		"source", "is required when there is no data or includes")
	v.Custom(d.Source == "" || len(d.Data) == 0, "data", "cannot be combined with source")
	for i, s := range d.Steps {
		if s.Op == OpWindow {
			v.Min(stepField(i, "size"), s.Size, 1)
		}
	}
	return v.Err()
}

func stepField(i int, name string) string {
	return "steps[" + strconv.Itoa(i) + "]." + name
}

// Parse decodes and validates one definition.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.InvalidInput("definition", "cannot parse YAML").WithCause(err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads and parses the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("definition", path)
		}
		return nil, errors.InvalidInput("definition", "cannot read "+path).WithCause(err)
	}
	d, err := Parse(data)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr.WithDetail("path", path)
		}
		return nil, err
	}
	return d, nil
}
