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

package apis

// Config carries read-only knobs that influence registration policy and
// ancestor walks. It is passed by value and should be treated as immutable
// by implementations.
type Config struct {
	// RequireRegistration turns on strict mode: queries for a type that is
	// neither registered nor intrinsic fail with ErrRegistrationRequired.
	RequireRegistration bool `mapstructure:"require_registration"`

	// MaxDepth bounds base-chain and interface walks.
	// Acts as a safety guard against cyclic or pathological metadata.
	MaxDepth int `mapstructure:"max_depth"`

	// LogLevel is a zap level name; "" or "off" disables logging.
	LogLevel string `mapstructure:"log_level"`
}
