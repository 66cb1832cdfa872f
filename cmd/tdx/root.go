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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirpx.dev/tdx"
	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/builder"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

// env is what every subcommand works against once flags are parsed.
type env struct {
	cfg apis.Config
	log *zap.Logger
	src *metadata.MemorySource
	g   *typegraph.Graph
}

type rootOptions struct {
	cfgFile  string
	metadata string
	strict   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tdx",
		Short: "Inspect type descriptors of a metadata library",
		Long: `tdx loads a metadata library described in YAML and prints the
attributes, properties, events and converters the descriptor cache reports
for its types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (TDX_* environment variables also apply)")
	root.PersistentFlags().StringVar(&opts.metadata, "metadata", "", "YAML metadata library")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "require registration before queries")

	root.AddCommand(newTypesCmd(opts), newDescribeCmd(opts), newInstantiateCmd(opts))
	return root
}

// load reads config and metadata and installs a fresh global snapshot.
func (o *rootOptions) load() (*env, error) {
	if o.metadata == "" {
		return nil, fmt.Errorf("--metadata is required")
	}
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.strict {
		cfg.RequireRegistration = true
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	src, err := metadata.LoadYAMLFile(o.metadata)
	if err != nil {
		return nil, err
	}
	if err := tdx.SetAll(&cfg, nil, nil, nil, builder.New(builder.WithLogger(log))); err != nil {
		log.Warn("previous registrations dropped", zap.Error(err))
	}
	return &env{cfg: cfg, log: log, src: src, g: typegraph.New(src, typegraph.WithLogger(log))}, nil
}

// resolve accepts any signature text: "Sample.Widget", "System.Int32[]",
// "Sample.Box`1<System.String>".
func (e *env) resolve(text string) (*typegraph.Node, error) {
	sig, err := metadata.ParseSig(text)
	if err != nil {
		return nil, err
	}
	return e.g.Resolve(sig)
}
