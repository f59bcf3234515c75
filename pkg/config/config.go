package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/xlclean/pkg/yaml"
)

const (
	APIVersion = "xlclean.jacobcolvin.com/v1beta1"
	Kind       = "Configuration"

	// DefaultSuffix is appended to the input file stem to name the output.
	DefaultSuffix = "_CLEANED"

	// DefaultTheme picks a light or dark palette from the terminal.
	DefaultTheme = "auto"

	schemaFileName = "config.v1beta1.json"
)

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	ValidAPIVersions = []string{APIVersion}
	ValidKinds       = []string{Kind}

	ErrInvalidConfig = errors.New("invalid configuration")

	defaultValidator = sync.OnceValues(func() (*yaml.Validator, error) {
		return yaml.NewValidatorFor("/"+schemaFileName, &Config{})
	})
)

//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	Output *OutputConfig `json:"output,omitempty" jsonschema:"title=Output"`
	Filter *FilterConfig `json:"filter,omitempty" jsonschema:"title=Filter"`
	Picker *PickerConfig `json:"picker,omitempty" jsonschema:"title=Picker"`
	UI     *UIConfig     `json:"ui,omitempty" jsonschema:"title=UI"`
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"required,title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"required,title=Kind"`
}

type OutputConfig struct {
	// Suffix is appended to the input file stem to form the output name.
	Suffix string `json:"suffix,omitempty" jsonschema:"title=Suffix"`
}

type FilterConfig struct {
	// Workers bounds the goroutines evaluating rows. 0 uses all CPUs.
	Workers int `json:"workers,omitempty" jsonschema:"title=Workers,minimum=0"`
	// RequireAllColumns fails the run when any rule column is missing.
	RequireAllColumns bool `json:"requireAllColumns,omitempty" jsonschema:"title=Require All Columns"`
}

type PickerConfig struct {
	// Directory is where the interactive file picker starts.
	Directory string `json:"directory,omitempty" jsonschema:"title=Directory"`
}

type UIConfig struct {
	// Theme is a chroma style name, or one of auto, dark and light.
	Theme string `json:"theme,omitempty" jsonschema:"title=Theme"`
}

// NewConfig returns a configuration holding the defaults.
func NewConfig() *Config {
	c := &Config{
		APIVersion: APIVersion,
		Kind:       Kind,
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills unset sections and values.
func (c *Config) EnsureDefaults() {
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Output.Suffix == "" {
		c.Output.Suffix = DefaultSuffix
	}

	if c.Filter == nil {
		c.Filter = &FilterConfig{}
	}

	if c.Picker == nil {
		c.Picker = &PickerConfig{}
	}

	if c.UI == nil {
		c.UI = &UIConfig{}
	}
	if c.UI.Theme == "" {
		c.UI.Theme = DefaultTheme
	}
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Output != nil && strings.ContainsAny(c.Output.Suffix, `/\`) {
		return fmt.Errorf("%w: output suffix %q must not contain a path separator",
			ErrInvalidConfig, c.Output.Suffix)
	}

	if c.Filter != nil && c.Filter.Workers < 0 {
		return fmt.Errorf("%w: filter workers must not be negative, got %d",
			ErrInvalidConfig, c.Filter.Workers)
	}

	return nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	for name, values := range map[string][]string{
		"apiVersion": ValidAPIVersions,
		"kind":       ValidKinds,
	} {
		prop, ok := jss.Properties.Get(name)
		if !ok {
			panic(name + " property not found in schema")
		}

		for _, v := range values {
			prop.OneOf = append(prop.OneOf, &jsonschema.Schema{
				Type:  "string",
				Const: v,
				Title: prop.Title,
			})
		}

		_, _ = jss.Properties.Set(name, prop)
	}
}

// MarshalYAML returns the YAML form of c.
func (c *Config) MarshalYAML() ([]byte, error) {
	b, err := yaml.Marshal(*c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Schema returns the JSON schema for the configuration file.
func Schema() ([]byte, error) {
	b, err := yaml.NewSchemaGenerator(&Config{}).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate config schema: %w", err)
	}

	return b, nil
}
