package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kwurst/create-gitlab-users/internal/domain"
	"github.com/kwurst/create-gitlab-users/internal/roster"
)

// Config holds settings aggregated from flags, env and an optional config file.
type Config struct {
	GitLab struct {
		URL       string
		TokenFile string `mapstructure:"token_file"`
		// InsecureSkipVerify disables TLS certificate checks against GitLab.
		InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
		Timeout            time.Duration
		SkipConfirmation   bool `mapstructure:"skip_confirmation"`
	}
	Roster struct {
		EmailDomain string `mapstructure:"email_domain"`
		Encoding    string
	}
	Audit struct {
		Path string
	}
	Log struct {
		Level string
	}
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"gitlab-url":           "gitlab.url",
	"token-file":           "gitlab.token_file",
	"insecure-skip-verify": "gitlab.insecure_skip_verify",
	"email-domain":         "roster.email_domain",
	"encoding":             "roster.encoding",
	"audit-db":             "audit.path",
	"log-level":            "log.level",
}

// RegisterFlags adds the flags that Load knows how to bind.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file (default ./config.{yaml,toml,json} if present)")
	flags.String("gitlab-url", "", "GitLab base URL")
	flags.String("token-file", "", "file holding the GitLab API token (default gitlabtoken.txt)")
	flags.Bool("insecure-skip-verify", false, "DANGER: do not verify the GitLab TLS certificate")
	flags.String("email-domain", "", "suffix appended to usernames to build email addresses")
	flags.String("encoding", "", "roster file encoding: utf-8, utf-16, latin-1, windows-1252")
	flags.String("audit-db", "", "record every run in this sqlite file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
}

// Load reads configuration from defaults, an optional config file, environment
// variables prefixed GITLAB_USERS_, and finally any flags set on the command line.
func Load(flags *pflag.FlagSet) (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("GITLAB_USERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("gitlab.url", "https://git.cs.worcester.edu")
	v.SetDefault("gitlab.token_file", "gitlabtoken.txt")
	v.SetDefault("gitlab.insecure_skip_verify", false)
	v.SetDefault("gitlab.timeout", "30s")
	v.SetDefault("gitlab.skip_confirmation", false)
	v.SetDefault("roster.email_domain", "@worcester.edu")
	v.SetDefault("roster.encoding", "utf-8")
	v.SetDefault("audit.path", "")
	v.SetDefault("log.level", "warn")

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.GitLab.URL) == "" {
		return errors.New("gitlab url is required")
	}
	if c.GitLab.Timeout <= 0 {
		return fmt.Errorf("gitlab timeout must be positive, got %s", c.GitLab.Timeout)
	}
	if c.Roster.EmailDomain == "" {
		return errors.New("roster email domain is required")
	}
	if _, err := roster.LookupEncoding(c.Roster.Encoding); err != nil {
		return err
	}
	return nil
}

// LoadToken returns the first line of the credential file with surrounding
// whitespace removed.
func LoadToken(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open token file: %w", domain.ErrIO, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("%w: read token file: %w", domain.ErrIO, err)
		}
		return "", fmt.Errorf("%w: token file %s is empty", domain.ErrIO, path)
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return "", fmt.Errorf("%w: token file %s is empty", domain.ErrIO, path)
	}
	return token, nil
}

// loadDotEnv fills unset environment variables from a .env file if one exists.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return
	}
	_ = godotenv.Load(path)
}
