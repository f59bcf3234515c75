package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/xlclean/pkg/yaml"
)

const ruleSchema = `{
	"type": "object",
	"properties": {
		"rules": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"column": {"type": "string", "pattern": "^[A-Za-z]+$"},
					"patterns": {
						"type": "array",
						"minItems": 1,
						"items": {"type": "string", "minLength": 1}
					}
				},
				"required": ["column", "patterns"]
			}
		}
	},
	"required": ["rules"]
}`

func TestError_Error(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want string
		err  yaml.Error
	}{
		"with path": {
			err: yaml.Error{
				Err:  errors.New("value is required"),
				Path: yaml.NewPathBuilder().Root().Child("rules").Index(2).Child("column").Build(),
			},
			want: "error at $.rules[2].column: value is required",
		},
		"without path": {
			err:  yaml.Error{Err: errors.New("bad document")},
			want: "bad document",
		},
		"nil error": {
			err:  yaml.Error{Path: yaml.NewPathBuilder().Root().Child("a").Build()},
			want: "error at $.a: ",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestError_AnnotatesSource(t *testing.T) {
	t.Parallel()

	src := []byte("rules:\n  - column: BV\n    patterns: [FOC]\n")

	err := yaml.NewError(
		errors.New("bad column"),
		yaml.WithPath(yaml.NewPathBuilder().Root().Child("rules").Index(0).Child("column").Build()),
		yaml.WithSource(src),
	)

	msg := err.Error()
	assert.Contains(t, msg, "error at $.rules[0].column: bad column")
	assert.Contains(t, msg, "BV")
}

func TestWrap(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")
	assert.Same(t, plain, yaml.Wrap(plain, yaml.WithSource([]byte("a: b"))))

	yerr := yaml.NewError(errors.New("x"))
	wrapped := yaml.Wrap(yerr, yaml.WithSource([]byte("a: b")))

	var got *yaml.Error
	require.ErrorAs(t, wrapped, &got)
	assert.Equal(t, []byte("a: b"), got.Source)
}

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData []byte
		wantErr    bool
	}{
		"valid schema": {
			schemaData: []byte(ruleSchema),
		},
		"invalid json": {
			schemaData: []byte(`{"invalid": json}`),
			wantErr:    true,
			errMsg:     "unmarshal schema",
		},
		"invalid schema": {
			schemaData: []byte(`{"type": "invalid_type"}`),
			wantErr:    true,
			errMsg:     "compile schema",
		},
		"empty schema": {
			schemaData: []byte(`{}`),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator, err := yaml.NewValidator("test.json", tc.schemaData)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, validator)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, validator)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	validator, err := yaml.NewValidator("rules.json", []byte(ruleSchema))
	require.NoError(t, err)

	tcs := map[string]struct {
		data     string
		wantPath string
		wantErr  bool
	}{
		"valid": {
			data: "rules:\n  - column: BV\n    patterns: [FOC]\n",
		},
		"missing rules": {
			data:     "other: 1\n",
			wantErr:  true,
			wantPath: "$",
		},
		"bad column label": {
			data:     "rules:\n  - column: BV\n    patterns: [FOC]\n  - column: B1\n    patterns: [x]\n",
			wantErr:  true,
			wantPath: "$.rules[1].column",
		},
		"empty pattern": {
			data:     "rules:\n  - column: H\n    patterns: [test, \"\"]\n",
			wantErr:  true,
			wantPath: "$.rules[0].patterns[1]",
		},
		"no patterns": {
			data:     "rules:\n  - column: H\n    patterns: []\n",
			wantErr:  true,
			wantPath: "$.rules[0].patterns",
		},
		"missing patterns": {
			data:     "rules:\n  - column: H\n",
			wantErr:  true,
			wantPath: "$.rules[0]",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var data any
			require.NoError(t, yaml.Unmarshal([]byte(tc.data), &data))

			err := validator.Validate(data)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}

			var yerr *yaml.Error
			require.ErrorAs(t, err, &yerr)
			require.NotNil(t, yerr.Path)
			assert.Equal(t, tc.wantPath, yerr.Path.String())
		})
	}
}

type sample struct {
	Name  string   `json:"name"            jsonschema:"required,minLength=1"`
	Items []string `json:"items,omitempty"`
}

func TestSchemaGenerator(t *testing.T) {
	t.Parallel()

	v, err := yaml.NewValidatorFor("sample.json", &sample{})
	require.NoError(t, err)

	var ok any
	require.NoError(t, yaml.Unmarshal([]byte("name: x\nitems: [a]\n"), &ok))
	require.NoError(t, v.Validate(ok))

	var bad any
	require.NoError(t, yaml.Unmarshal([]byte("items: [a]\n"), &bad))
	require.Error(t, v.Validate(bad))
}

func TestDecoder_Strict(t *testing.T) {
	t.Parallel()

	var s sample
	require.NoError(t, yaml.Unmarshal([]byte("name: x\nextra: 1\n"), &s))
	assert.Equal(t, "x", s.Name)

	err := yaml.Unmarshal([]byte("name: x\nextra: 1\n"), &s, yaml.WithStrict())

	var yerr *yaml.Error
	require.ErrorAs(t, err, &yerr)
	assert.NotNil(t, yerr.Token)
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	b, err := yaml.Marshal(sample{Name: "x", Items: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "name: x\nitems:\n  - a\n  - b\n", string(b))
}
