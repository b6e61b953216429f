// Package config provides the configuration for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default log level for the CLI.
	DefaultLogLevel = "info"
	// DefaultGitHubBaseURL is the default base URL for the GitHub REST API.
	DefaultGitHubBaseURL = "https://api.github.com"
	// DefaultGitLabBaseURL is the default base URL for the GitLab REST API.
	DefaultGitLabBaseURL = "https://gitlab.com/api/v4"
	// DefaultRemote is the git remote that holds the working branch.
	DefaultRemote = "origin"
	// DefaultUpstreamRemote is the git remote that, when present, points at a fork's parent.
	DefaultUpstreamRemote = "upstream"
	// DefaultInteractiveUI is the manual selection front end.
	DefaultInteractiveUI = "tui"
	// DefaultMetricsExporter disables metrics export for ordinary CLI runs.
	DefaultMetricsExporter = "none"
	// DefaultMetricsEndpoint is the OTLP gRPC endpoint used with the otlp exporter.
	DefaultMetricsEndpoint = "localhost:4317"
	// DefaultPRTitleTemplate names a new pull request after its branch.
	DefaultPRTitleTemplate = "{{branch}}"

	// EnvVarLogLevel is the environment variable for the log level.
	EnvVarLogLevel = "LOG_LEVEL"

	redacted = "[REDACTED]"
)

// These variables are set at build time and describe the version and build of the application
var (
	Version   string
	Commit    string
	BuildTime = time.Now().Format("2006-01-02T15:04:05.000")
	BuiltBy   = "local"
	BuiltWith = runtime.Version()
)

// VersionString gives a full string of the version of the application.
func VersionString() string {
	return fmt.Sprintf(
		"%s on commit %s, built at %s with %s by %s",
		Version,
		Commit,
		BuildTime,
		BuiltWith,
		BuiltBy,
	)
}

// Config is the application configuration, set by flags, then by environment variables.
type Config struct {
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogPath        string `mapstructure:"LOG_PATH"`
	RepoDir        string `mapstructure:"REPO_DIR"`
	Remote         string `mapstructure:"REMOTE"`
	UpstreamRemote string `mapstructure:"UPSTREAM_REMOTE"`
	InteractiveUI  string `mapstructure:"INTERACTIVE_UI"`

	GitHub    GitHub    `mapstructure:",squash"`
	GitLab    GitLab    `mapstructure:",squash"`
	Telemetry Telemetry `mapstructure:",squash"`
	Templates Templates `mapstructure:",squash"`
}

// GitHub configures authentication to the GitHub API.
type GitHub struct {
	BaseURL    string `mapstructure:"GITHUB_BASE_URL"`
	GraphQLURL string `mapstructure:"GITHUB_GRAPHQL_URL"`
	// GitHub App configuration
	AppID          string `mapstructure:"GITHUB_APP_ID"`
	PrivateKey     string `mapstructure:"GITHUB_PRIVATE_KEY"`
	PrivateKeyFile string `mapstructure:"GITHUB_PRIVATE_KEY_FILE"`
	InstallationID string `mapstructure:"GITHUB_INSTALLATION_ID"`
	// Or use a simple GitHub token
	Token string `mapstructure:"GITHUB_TOKEN"`
}

// GitLab configures authentication to the GitLab API.
type GitLab struct {
	BaseURL string `mapstructure:"GITLAB_BASE_URL"`
	Token   string `mapstructure:"GITLAB_TOKEN"`
	// Hosts lists extra self-hosted GitLab hosts, comma separated.
	Hosts string `mapstructure:"GITLAB_HOSTS"`
}

// Telemetry configures metrics export.
type Telemetry struct {
	MetricsExporter string `mapstructure:"METRICS_EXPORTER"`
	MetricsEndpoint string `mapstructure:"METRICS_ENDPOINT"`
}

// Templates configures the text used for new pull requests.
type Templates struct {
	PRTitle string `mapstructure:"PR_TITLE_TEMPLATE"`
	PRBody  string `mapstructure:"PR_BODY_TEMPLATE"`
}

// GitLabHosts returns the configured extra GitLab hosts.
func (g GitLab) GitLabHosts() []string {
	var hosts []string
	for _, host := range strings.Split(g.Hosts, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, strings.ToLower(host))
		}
	}
	return hosts
}

// GetSecrets returns every secret value in the config so it can be redacted from logs.
func (c Config) GetSecrets() []string {
	var secrets []string
	for _, secret := range []string{c.GitHub.Token, c.GitHub.PrivateKey, c.GitLab.Token} {
		if secret != "" {
			secrets = append(secrets, secret)
		}
	}
	return secrets
}

// MarshalJSON renders the config with secrets masked, for debug logging.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	masked := plain(c)
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&masked.GitHub.Token)
	mask(&masked.GitHub.PrivateKey)
	mask(&masked.GitLab.Token)
	return json.Marshal(masked)
}

// Option is a function that can be used to configure loading the config.
type Option func(*configOptions)

type configOptions struct {
	configFile string
	viper      *viper.Viper
	command    *cobra.Command
}

// WithConfigFile sets the exact config file to load.
func WithConfigFile(configFile string) Option {
	return func(cfg *configOptions) {
		cfg.configFile = configFile
	}
}

// WithViper sets a custom viper instance to use. Useful for testing.
func WithViper(v *viper.Viper) Option {
	return func(cfg *configOptions) {
		cfg.viper = v
	}
}

// WithCommand binds the flags of the command being executed, so that flags set on a
// subcommand take precedence over environment variables.
func WithCommand(cmd *cobra.Command) Option {
	return func(cfg *configOptions) {
		cfg.command = cmd
	}
}

// Load loads config from flags, environment variables and a .env file.
func Load(options ...Option) (Config, error) {
	opts := &configOptions{
		configFile: ".env",
		viper:      viper.GetViper(),
	}
	for _, opt := range options {
		opt(opts)
	}

	v := opts.viper
	if v == nil {
		v = viper.New()
		setupViperDefaults(v)
	}

	if opts.command != nil {
		for _, field := range Fields {
			flag := opts.command.Flags().Lookup(field.Flag)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(field.EnvVar, flag); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag %s: %w", field.Flag, err)
			}
		}
	}

	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// MustLoad is Load but panics if there is an error.
func MustLoad(options ...Option) Config {
	cfg, err := Load(options...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func init() {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if Version == "" {
			Version = buildInfo.Main.Version
		}
		if Commit == "" {
			Commit = buildInfo.Main.Sum
		}
		BuiltWith = buildInfo.GoVersion
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "dev"
	}

	setupViperDefaults(viper.GetViper())
}

// setupViperDefaults applies every field default and binds the environment.
func setupViperDefaults(v *viper.Viper) {
	for _, field := range Fields {
		if field.Default != nil {
			v.SetDefault(field.EnvVar, field.Default)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := bindEnvsFromStruct(v, reflect.TypeOf(Config{})); err != nil {
		panic(err)
	}

	v.AutomaticEnv()
}

// bindEnvsFromStruct binds environment variables to viper based on struct tags.
// Avoids having to manually viper.BindEnv for each field.
func bindEnvsFromStruct(v *viper.Viper, t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("type %s is not a struct", t.Name())
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		if strings.Contains(tag, ",squash") {
			if err := bindEnvsFromStruct(v, field.Type); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(tag); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", tag, err)
		}
	}
	return nil
}
