package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/spf13/pflag"
)

type loggerKey struct{}

// EnvPrefix prefixes every environment variable the CLI reads.
// Nested keys use a double underscore: LEAPRDF_TARGET__HOST -> target.host.
const EnvPrefix = "LEAPRDF_"

// configNames are probed in the working directory when --config is unset.
var configNames = []string{"leaprdf.yaml", "leaprdf.yml"}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"backend":  "target.type",
	"host":     "target.host",
	"port":     "target.port",
	"path":     "target.path",
	"user":     "target.user",
	"password": "target.password",
	"env":      "environment",
}

// ResetConfig discards any previously loaded state.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig builds the CLI configuration. Later layers win:
// defaults, config file, selected environment, LEAPRDF_ vars, changed flags.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	ResetConfig()
	configFileUsed = locateConfig(cfgFile)

	layers := []struct {
		name string
		load func() error
	}{
		{"defaults", loadDefaults},
		{"config file", loadFile},
		{"environment overlay", func() error { return overlayEnvironment(flags) }},
		{"env vars", loadEnvVars},
		{"flags", func() error { return loadFlags(flags) }},
	}
	for _, l := range layers {
		if err := l.load(); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot()
	finalizeTarget(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	currentConfig = &cfg
	return &cfg, nil
}

func locateConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadDefaults() error {
	return k.Load(confmap.Provider(map[string]any{
		"output":      DefaultOutput,
		"layout":      string(core.LayoutHash),
		"prefix":      core.DefaultPrefix,
		"parallelism": core.DefaultParallelism,
		"batch_size":  core.DefaultBatchSize,
	}, "."), nil)
}

func loadFile() error {
	if configFileUsed == "" {
		return nil
	}
	if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
		return fmt.Errorf("%s: %w", configFileUsed, err)
	}
	return nil
}

// overlayEnvironment merges environments.<name> over the top level. It runs
// before env vars and flags so those still take precedence.
func overlayEnvironment(flags *pflag.FlagSet) error {
	name := selectedEnvironment(flags)
	if name == "" {
		return nil
	}
	key := "environments." + name
	if !k.Exists(key) {
		return fmt.Errorf("environment %q is not defined in the config file", name)
	}
	return k.Merge(k.Cut(key))
}

func loadEnvVars() error {
	return k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
}

// loadFlags applies only flags the user set, so their zero values never
// mask the file or the environment.
func loadFlags(flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	return k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		return key, posflag.FlagVal(flags, f)
	}), nil)
}

// selectedEnvironment returns the environment named by flag, env var or
// config file, in that order of precedence.
func selectedEnvironment(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup("env"); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	if v := os.Getenv(EnvPrefix + "ENVIRONMENT"); v != "" {
		return v
	}
	return k.String("environment")
}

// projectRoot is the directory of the config file, or the working directory
// when there is none.
func projectRoot() string {
	if configFileUsed != "" {
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			return filepath.Dir(abs)
		}
	}
	wd, _ := os.Getwd()
	return wd
}

func finalizeTarget(cfg *Config) {
	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	t := cfg.Target
	ApplyTargetDefaults(t)
	for _, field := range []*string{&t.Host, &t.User, &t.Password, &t.Path} {
		*field = expandEnvVars(*field)
	}
	if IsFileBacked(t) && t.Path != "" && !filepath.IsAbs(t.Path) {
		t.Path = filepath.Join(cfg.ProjectRoot, t.Path)
	}
}

// GetConfigFileUsed returns the path of the loaded config file, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration from the last LoadConfig call.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger returns a context carrying the logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context, or a discarding
// logger when none was installed.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} references with their values. Unset
// variables are left as written.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if val, ok := os.LookupEnv(envRef.FindStringSubmatch(ref)[1]); ok && val != "" {
			return val
		}
		return ref
	})
}
