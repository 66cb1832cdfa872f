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
	"dirpx.dev/tdx/apis"
)

const (
	// DefaultRequireRegistration represents the default for RequireRegistration.
	// Types are reflected opportunistically unless strict mode is requested.
	DefaultRequireRegistration = false
	// DefaultMaxDepth represents the default for MaxDepth.
	// Real inheritance chains are far shallower than 64.
	DefaultMaxDepth = 64
	// DefaultLogLevel represents the default for LogLevel (logging disabled).
	DefaultLogLevel = ""
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure MaxDepth is valid.
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		RequireRegistration: DefaultRequireRegistration,
		MaxDepth:            DefaultMaxDepth,
		LogLevel:            DefaultLogLevel,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithRequireRegistration sets the RequireRegistration option.
func WithRequireRegistration(require bool) Option {
	return func(c *apis.Config) {
		c.RequireRegistration = require
	}
}

// WithMaxDepth sets the MaxDepth option.
// A non-positive value resets to the default.
func WithMaxDepth(depth int) Option {
	return func(c *apis.Config) {
		if depth <= 0 {
			c.MaxDepth = DefaultMaxDepth
			return
		}
		c.MaxDepth = depth
	}
}

// WithLogLevel sets the LogLevel option.
func WithLogLevel(level string) Option {
	return func(c *apis.Config) {
		c.LogLevel = level
	}
}
