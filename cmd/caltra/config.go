// ABOUTME: CLI commands for viewing and changing the caltra config file.
// ABOUTME: Secrets are masked when shown; environment overrides are not saved.
package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/config"
	"github.com/spf13/cobra"
)

// configField maps a config key to its value in a Config.
type configField struct {
	get    func(c *config.Config) string
	set    func(c *config.Config, v string) error
	secret bool
}

func stringField(ptr func(c *config.Config) *string) configField {
	return configField{
		get: func(c *config.Config) string { return *ptr(c) },
		set: func(c *config.Config, v string) error { *ptr(c) = v; return nil },
	}
}

func secretField(ptr func(c *config.Config) *string) configField {
	f := stringField(ptr)
	f.secret = true
	return f
}

var configFields = map[string]configField{
	"backend":      stringField(func(c *config.Config) *string { return &c.Backend }),
	"data_dir":     stringField(func(c *config.Config) *string { return &c.DataDir }),
	"database_url": secretField(func(c *config.Config) *string { return &c.DatabaseURL }),
	"user_id":      stringField(func(c *config.Config) *string { return &c.UserID }),
	"listen_addr":  stringField(func(c *config.Config) *string { return &c.ListenAddr }),
	"cors_origin":  stringField(func(c *config.Config) *string { return &c.CORSOrigin }),
	"jwt_secret":   secretField(func(c *config.Config) *string { return &c.JWTSecret }),
	"api_key":      secretField(func(c *config.Config) *string { return &c.APIKey }),
	"model":        stringField(func(c *config.Config) *string { return &c.Model }),
	"base_url":     stringField(func(c *config.Config) *string { return &c.BaseURL }),
	"log_level":    stringField(func(c *config.Config) *string { return &c.LogLevel }),
	"log_format":   stringField(func(c *config.Config) *string { return &c.LogFormat }),
	"cookie_secure": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.CookieSecure) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("cookie_secure must be true or false")
			}
			c.CookieSecure = b
			return nil
		},
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + strings.Repeat("*", 8)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change settings",
	Long: `View or change settings in ~/.config/caltra/config.json.

Environment variables (and a .env file in the working directory) override
the file at runtime: CALTRA_BACKEND, CALTRA_DATA_DIR, DATABASE_URL,
CALTRA_USER_ID, OPENROUTER_API_KEY, CALTRA_MODEL, CALTRA_BASE_URL,
JWT_SECRET, CORS_ORIGIN, PORT, COOKIE_SECURE, CALTRA_LOG_LEVEL,
CALTRA_LOG_FORMAT.

EXAMPLES:

  caltra config show
  caltra config set backend postgres
  caltra config set database_url postgres://localhost/caltra
  caltra config set api_key sk-or-...`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show effective settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println(faint.Sprint(config.GetConfigPath()))
		for _, key := range configKeys() {
			f := configFields[key]
			v := f.get(c)
			if f.secret {
				v = maskSecret(v)
			}
			if v == "" {
				v = faint.Sprint("(unset)")
			}
			fmt.Printf("%s %s\n", padRight(key, 14), v)
		}
		fmt.Println()
		fmt.Printf("%s %s\n", padRight("backend", 14), faint.Sprintf("→ %s", c.GetBackend()))
		fmt.Printf("%s %s\n", padRight("data_dir", 14), faint.Sprintf("→ %s", c.GetDataDir()))
		fmt.Printf("%s %s\n", padRight("user_id", 14), faint.Sprintf("→ %s", c.GetUserID()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Change a setting",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		f, ok := configFields[key]
		if !ok {
			return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(configKeys(), ", "))
		}

		// Load the file alone so environment overrides are not written back.
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := f.set(c, value); err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		color.Green("✓ Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
