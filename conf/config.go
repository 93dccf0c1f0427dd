package conf

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

/* ========================================================================
 * Config Loader
 * ========================================================================
 * One way to load configuration for every siteplane service: a YAML or
 * JSON file with ${VAR} / ${VAR:-default} placeholders, overridable via
 * prefixed environment variables.
 * ======================================================================== */

// Loader loads configuration into a struct.
type Loader interface {
	Load(config any) error
}

type viperLoader struct {
	configPath string
	configName string
	configType string
	envPrefix  string
}

var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// expandEnvPlaceholders substitutes ${VAR} and ${VAR:-default} before the
// file reaches viper, with bash semantics: unset or empty falls back to
// the default.
func expandEnvPlaceholders(raw string) string {
	return envPlaceholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := envPlaceholderPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}

		name := sub[1]
		def := ""
		if len(sub) >= 3 {
			def = sub[2]
		}

		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		return def
	})
}

// NewLoader creates a loader searching configPath for configName with the
// given type (yaml, json). Environment overrides use the SITEPLANE prefix.
func NewLoader(configPath, configName, configType string) Loader {
	return NewLoaderWithEnvPrefix(configPath, configName, configType, "SITEPLANE")
}

// NewLoaderWithEnvPrefix is NewLoader with a custom environment prefix.
func NewLoaderWithEnvPrefix(configPath, configName, configType, envPrefix string) Loader {
	return &viperLoader{
		configPath: configPath,
		configName: configName,
		configType: configType,
		envPrefix:  envPrefix,
	}
}

func (l *viperLoader) Load(config any) error {
	// Let viper locate the file first, so AddConfigPath/SetConfigName
	// search semantics are preserved.
	finder := viper.New()
	finder.AddConfigPath(l.configPath)
	finder.SetConfigName(l.configName)
	finder.SetConfigType(l.configType)

	finder.SetEnvPrefix(l.envPrefix)
	finder.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	finder.AutomaticEnv()

	if err := finder.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	configFile := finder.ConfigFileUsed()

	// Second pass over the raw bytes: expand placeholders before viper
	// parses them.
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return err
		}
		expanded := expandEnvPlaceholders(string(raw))

		v.SetConfigType(l.configType)
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return err
		}
	}

	return v.Unmarshal(config, viper.DecodeHook(decodeHooks()))
}

// decodeHooks parses "5m" style durations and comma-separated lists into
// their typed fields.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
