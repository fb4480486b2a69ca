// Package config loads chunk-store configurations from files.
//
// A configuration is a map with a "type" key naming a registered store type
// (see store.Register)
// plus whatever parameters that type needs.
// The file may be YAML, JSON, or TOML, according to its extension.
// Any top-level or nested value may be overridden by an environment variable
// named BZZ_ followed by the upper-cased key path joined with underscores,
// e.g. BZZ_NESTED_ROOT for the "root" parameter of the "nested" store.
package config

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

// EnvPrefix is the prefix of environment variables that override configuration values.
const EnvPrefix = "BZZ"

// Load reads the configuration file at path.
func Load(path string) (map[string]interface{}, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	return v.AllSettings(), nil
}

// Open creates the store described by conf.
func Open(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
	typ, err := store.String(conf, "type")
	if err != nil {
		return nil, err
	}
	s, err := store.Create(ctx, typ, conf)
	return s, errors.Wrapf(err, "creating %s-type store", typ)
}

// OpenFile creates the store described by the configuration file at path.
func OpenFile(ctx context.Context, path string) (bzz.Store, error) {
	conf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, conf)
}
