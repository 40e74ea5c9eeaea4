package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/lang"
)

// ConfigCmd creates the config command with its set, get and list
// subcommands.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent settings",
		Long: `Manage persistent settings stored in ~/.config/go-videocut/config.

Precedence is flags, then this file, then VIDEOCUT_* environment variables.

Settings:
` + settingsTable(),
		Example: `  videocut config set silence-db -- -35
  videocut config get cut-margin
  videocut config list`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Check and store a setting",
			Example: "  videocut config set min-silence 0.8\n  videocut config set recognizer whisper",
			Args:    cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return setSetting(env, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a setting, from the file or else the environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				k, err := config.LookupKey(args[0])
				if err != nil {
					return err
				}
				stored, err := config.Get(k.Name)
				if err != nil {
					return err
				}
				if v, _ := effective(env, map[string]string{k.Name: stored}, k); v != "" {
					_, _ = fmt.Fprintln(env.Stdout, v)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every setting that has a value",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return listSettings(env)
			},
		},
	)
	return cmd
}

func settingsTable() string {
	rows := make([]string, len(config.Keys))
	for i, k := range config.Keys {
		rows[i] = fmt.Sprintf("  %-18s %s (env: %s)", k.Name, k.Help, k.Env)
	}
	return strings.Join(rows, "\n")
}

// effective returns the value of k from the file contents, falling back to
// its environment variable. fromEnv reports the fallback.
func effective(env *Env, file map[string]string, k config.Key) (value string, fromEnv bool) {
	if v, ok := file[k.Name]; ok && v != "" {
		return v, false
	}
	v := env.Getenv(k.Env)
	return v, v != ""
}

// checkSetting applies rules the config package cannot know about.
func checkSetting(key, value string) error {
	switch key {
	case "language":
		return lang.Validate(value)
	case "recognizer":
		if value == "" {
			return nil
		}
		_, err := selectRecognizer(value, "")
		return err
	case "silence-db":
		if db, err := strconv.ParseFloat(value, 64); err == nil && db >= 0 {
			return fmt.Errorf("%w: silence-db must be negative, got %s", config.ErrInvalidValue, value)
		}
	}
	return nil
}

func setSetting(env *Env, key, value string) error {
	if _, err := config.LookupKey(key); err != nil {
		return err
	}
	if err := checkSetting(key, value); err != nil {
		return err
	}
	if err := config.Save(key, value); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

func listSettings(env *Env) error {
	file, err := config.List()
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, k := range config.Keys {
		v, fromEnv := effective(env, file, k)
		switch {
		case v == "":
		case fromEnv:
			fmt.Fprintf(&b, "%s=%s (from env)\n", k.Name, v)
		default:
			fmt.Fprintf(&b, "%s=%s\n", k.Name, v)
		}
	}

	if b.Len() == 0 {
		b.WriteString("No configuration set.\n\nAvailable settings:\n" + settingsTable() + "\n")
	}
	_, err = io.WriteString(env.Stdout, b.String())
	return err
}
