/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dirpx.dev/tdx/apis"
)

// EnvPrefix prefixes every environment override, e.g. TDX_MAX_DEPTH.
const EnvPrefix = "TDX"

// Load builds a Config from defaults, an optional YAML file at path and
// TDX_* environment variables, in increasing order of precedence.
func Load(path string) (apis.Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("require_registration", def.RequireRegistration)
	v.SetDefault("max_depth", def.MaxDepth)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return apis.Config{}, fmt.Errorf("tdx(config): read %s: %w", path, err)
		}
	}

	var cfg apis.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return apis.Config{}, fmt.Errorf("tdx(config): unmarshal: %w", err)
	}
	return NewConfig(
		WithRequireRegistration(cfg.RequireRegistration),
		WithMaxDepth(cfg.MaxDepth),
		WithLogLevel(cfg.LogLevel),
	), nil
}

// NewLogger builds the logger described by cfg.LogLevel. An empty level or
// "off" yields a no-op logger; anything else a production JSON logger.
func NewLogger(cfg apis.Config) (*zap.Logger, error) {
	switch strings.ToLower(cfg.LogLevel) {
	case "", "off", "none":
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("tdx(config): log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
