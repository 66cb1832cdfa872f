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

	"dirpx.dev/tdx"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

func newInstantiateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instantiate DEF ARG...",
		Short: "Construct a generic instantiation and print its properties",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			def, err := e.g.ResolveDefinition(metadata.TypeRef(args[0]))
			if err != nil {
				return err
			}
			targs := make([]*typegraph.Node, 0, len(args)-1)
			for _, a := range args[1:] {
				n, err := e.resolve(a)
				if err != nil {
					return err
				}
				targs = append(targs, n)
			}
			n, err := e.g.Instantiate(def, targs...)
			if err != nil {
				return err
			}
			props, err := tdx.PropertiesOf(n, nil)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "type: %s\n", n)
			writeProperties(w, props)
			return nil
		},
	}
}
