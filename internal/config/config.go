// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates the ambient defaults every subcommand shares. The
// merge config document (the list of input files for one merge run) is
// a distinct, explicit input handled by internal/mergeconfig instead.
type Config struct {
	Index    IndexConfig    `mapstructure:"index"`
	Discover DiscoverConfig `mapstructure:"discover"`
}

// IndexConfig holds the defaults shared by the index and merge commands.
type IndexConfig struct {
	ChunkSize    int64  `mapstructure:"chunksize"`
	Delimiter    string `mapstructure:"delimiter"`
	StdoutMirror bool   `mapstructure:"stdoutmirror"`
}

// DiscoverConfig holds the defaults for format auto-detection.
type DiscoverConfig struct {
	SampleLines int `mapstructure:"samplelines"`
}

// DefaultChunkSize matches the mapping's "fixed line count" window when
// no override is configured.
const DefaultChunkSize = 1000

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			ChunkSize:    DefaultChunkSize,
			Delimiter:    "\t",
			StdoutMirror: false,
		},
		Discover: DiscoverConfig{
			SampleLines: 64,
		},
	}
}

// Load reads ./logtrail.yaml (if present) and LOGTRAIL_* environment
// variables into a Config seeded with the package defaults, following
// the teacher's config.Load SetEnvPrefix/SetEnvKeyReplacer pattern.
func Load() (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("logtrail")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("LOGTRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DelimiterByte resolves the configured delimiter string to the single
// byte the core packages expect. Any string that is not exactly one byte
// long falls back to rowio.DefaultDelimiter's value (tab).
func (c IndexConfig) DelimiterByte() byte {
	if len(c.Delimiter) != 1 {
		return '\t'
	}
	return c.Delimiter[0]
}

// bindEnvs registers every field of cfg with viper so environment
// variables are consulted even when no config file sets the key.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
