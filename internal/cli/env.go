package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars binds environment variables to the command's flags. Names are
// XLCLEAN_<FLAG_NAME>, with the flag name upper-cased and dashes replaced by
// underscores:
//   - Flag "log-level" becomes "XLCLEAN_LOG_LEVEL"
//   - Flag "require-all-columns" becomes "XLCLEAN_REQUIRE_ALL_COLUMNS"
//
// Arguments take precedence over environment variables, which take precedence
// over the configuration file and then the defaults. A flag set from the
// environment is marked as changed so that it overrides the configuration
// file.
//
// Flag usage strings are extended with the variable name for the help output.
func bindEnvVars(cmd *cobra.Command) {
	cmd.Flags().VisitAll(bindFlagToEnv)
	cmd.PersistentFlags().VisitAll(bindFlagToEnv)
}

func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	err := flag.Value.Set(envValue)
	if err != nil {
		// Keep the default.
		slog.Error("failed to set flag from environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", envValue),
			slog.Any("error", err),
		)

		return
	}

	flag.Changed = true
}

// flagToEnvName converts a flag name to its environment variable name.
// Example: "log-level" -> "XLCLEAN_LOG_LEVEL".
func flagToEnvName(flagName string) string {
	envName := strings.ReplaceAll(flagName, "-", "_")
	return strings.ToUpper(cmdName + "_" + envName)
}
