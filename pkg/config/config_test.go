package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/xlclean/pkg/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()

	assert.Equal(t, config.APIVersion, cfg.APIVersion)
	assert.Equal(t, config.Kind, cfg.Kind)
	require.NotNil(t, cfg.Output)
	assert.Equal(t, "_CLEANED", cfg.Output.Suffix)
	require.NotNil(t, cfg.Filter)
	assert.Zero(t, cfg.Filter.Workers)
	assert.False(t, cfg.Filter.RequireAllColumns)
	require.NotNil(t, cfg.Picker)
	require.NotNil(t, cfg.UI)
	assert.Equal(t, "auto", cfg.UI.Theme)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cfg     *config.Config
		wantErr bool
	}{
		"defaults": {cfg: config.NewConfig()},
		"suffix with slash": {
			cfg:     &config.Config{Output: &config.OutputConfig{Suffix: "../x"}},
			wantErr: true,
		},
		"suffix with backslash": {
			cfg:     &config.Config{Output: &config.OutputConfig{Suffix: `a\b`}},
			wantErr: true,
		},
		"negative workers": {
			cfg:     &config.Config{Filter: &config.FilterConfig{Workers: -1}},
			wantErr: true,
		},
		"nil sections": {cfg: &config.Config{}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		check    func(t *testing.T, cfg *config.Config)
		contains string
	}{
		"full": {
			input: `apiVersion: xlclean.jacobcolvin.com/v1beta1
kind: Configuration
output:
  suffix: -clean
filter:
  workers: 4
  requireAllColumns: true
picker:
  directory: /data
ui:
  theme: monokai
`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()

				assert.Equal(t, "-clean", cfg.Output.Suffix)
				assert.Equal(t, 4, cfg.Filter.Workers)
				assert.True(t, cfg.Filter.RequireAllColumns)
				assert.Equal(t, "/data", cfg.Picker.Directory)
				assert.Equal(t, "monokai", cfg.UI.Theme)
			},
		},
		"header only": {
			input: "apiVersion: xlclean.jacobcolvin.com/v1beta1\nkind: Configuration\n",
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()

				assert.Equal(t, config.DefaultSuffix, cfg.Output.Suffix)
				assert.NotNil(t, cfg.Filter)
			},
		},
		"wrong api version": {
			input:    "apiVersion: v2\nkind: Configuration\n",
			contains: "apiVersion",
		},
		"wrong kind": {
			input:    "apiVersion: xlclean.jacobcolvin.com/v1beta1\nkind: Rules\n",
			contains: "kind",
		},
		"missing kind": {
			input:    "apiVersion: xlclean.jacobcolvin.com/v1beta1\n",
			contains: "kind",
		},
		"unknown field": {
			input:    "apiVersion: xlclean.jacobcolvin.com/v1beta1\nkind: Configuration\nrules: []\n",
			contains: "rules",
		},
		"negative workers": {
			input: `apiVersion: xlclean.jacobcolvin.com/v1beta1
kind: Configuration
filter:
  workers: -2
`,
			contains: "filter.workers",
		},
		"bad suffix": {
			input: `apiVersion: xlclean.jacobcolvin.com/v1beta1
kind: Configuration
output:
  suffix: a/b
`,
			contains: "path separator",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.NewLoaderFromBytes([]byte(tc.input)).Load()
			if tc.contains != "" {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tc.contains)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	t.Parallel()

	err := config.NewLoaderFromBytes([]byte("apiVersion: [unclosed\n")).Validate()
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		path := filepath.Join(root, "xlclean", "config.yaml")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.NewConfig(), cfg)

		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		assert.Empty(t, entries, "loading must not create files")
	})

	t.Run("written default loads back", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xlclean", "config.yaml")

		written, err := config.WriteDefault(path, false)
		require.NoError(t, err)
		assert.True(t, written)
		assert.FileExists(t, filepath.Join(filepath.Dir(path), "config.v1beta1.json"))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.NewConfig(), cfg)
	})

	t.Run("invalid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("kind: Nope\n"), 0o600))

		_, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})
}

func TestWriteDefault_Force(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom: true\n"), 0o600))

	written, err := config.WriteDefault(path, false)
	require.NoError(t, err)
	assert.False(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data))

	written, err = config.WriteDefault(path, true)
	require.NoError(t, err)
	assert.True(t, written)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: Configuration")

	backups, err := filepath.Glob(filepath.Join(dir, "config.yaml.*.old"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestGetPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	assert.Equal(t, filepath.Join("/xdg", "xlclean", "config.yaml"), config.GetPath())
}

func TestConfig_MarshalYAML(t *testing.T) {
	t.Parallel()

	b, err := config.NewConfig().MarshalYAML()
	require.NoError(t, err)

	cfg, err := config.NewLoaderFromBytes(b).Load()
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	b, err := config.Schema()
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"apiVersion"`)
	assert.Contains(t, s, config.APIVersion)
	assert.Contains(t, s, `"requireAllColumns"`)
}
