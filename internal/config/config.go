// Package config loads settings for the host and the controller from
// defaults, an optional config file, VGAMEPADNET_* environment variables and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VGAMEPADNET"

// load parses args into fs, then layers defaults, the file named by
// --config, the environment and the parsed flags, and decodes into out.
func load(fs *pflag.FlagSet, args []string, defaults map[string]any, out any) error {
	fs.String("config", "", "config file (yaml, toml or json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Join(bindErr, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if file, _ := fs.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
