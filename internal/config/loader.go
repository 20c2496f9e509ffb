package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: ATENFLUX_JOBS_BATCH_SIZE sets
// jobs.batch_size.
const EnvPrefix = "ATENFLUX"

// Load layers environment variables over the config file over DefaultConfig.
// An empty path searches ./atenflux.yaml, ./configs and ~/.atenflux; finding
// nothing there is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("atenflux")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only sees keys viper already knows about.
	registerDefaults(v, "", reflect.ValueOf(defaults).Elem())
	return v
}

func searchDirs() []string {
	dirs := []string{".", "./configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".atenflux"))
	}
	return dirs
}

// registerDefaults walks the mapstructure tags of a config struct and sets
// every leaf as a viper default.
func registerDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		value := rv.Field(i)
		if value.Kind() == reflect.Struct {
			registerDefaults(v, key, value)
			continue
		}
		v.SetDefault(key, value.Interface())
	}
}
