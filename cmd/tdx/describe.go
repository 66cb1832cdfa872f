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
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dirpx.dev/tdx"
	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	var register bool
	cmd := &cobra.Command{
		Use:   "describe TYPE",
		Short: "Print the descriptors of one type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			t, err := e.resolve(args[0])
			if err != nil {
				return err
			}
			if register {
				if err := tdx.Register(t); err != nil {
					return err
				}
			}
			return describe(cmd.OutOrStdout(), t)
		},
	}
	cmd.Flags().BoolVar(&register, "register", false, "register the type before describing it")
	return cmd
}

func describe(w io.Writer, t *typegraph.Node) error {
	attrs, err := tdx.AttributesOf(t)
	if err != nil {
		return err
	}
	props, err := tdx.PropertiesOf(t, nil)
	if err != nil {
		return err
	}
	events, err := tdx.EventsOf(t)
	if err != nil {
		return err
	}
	conv, err := tdx.ConverterOf(t, nil)
	if err != nil {
		return err
	}
	dp, err := tdx.DefaultPropertyOf(t)
	if err != nil {
		return err
	}
	de, err := tdx.DefaultEventOf(t)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "type:      %s\n", tdx.ClassName(t))
	fmt.Fprintf(w, "converter: %s\n", conv.Kind())
	if dp != nil {
		fmt.Fprintf(w, "default property: %s\n", dp.Name)
	}
	if de != nil {
		fmt.Fprintf(w, "default event: %s\n", de.Name)
	}

	fmt.Fprintf(w, "attributes (%d):\n", attrs.Len())
	for a := range attrs.All() {
		fmt.Fprintf(w, "  %s\n", formatAttribute(a))
	}
	writeProperties(w, props)
	fmt.Fprintf(w, "events (%d):\n", events.Len())
	for ev := range events.All() {
		fmt.Fprintf(w, "  %s %s\n", ev.Name, ev.HandlerType)
	}
	return nil
}

func writeProperties(w io.Writer, props *apis.PropertyCollection) {
	fmt.Fprintf(w, "properties (%d):\n", props.Len())
	for p := range props.All() {
		mode := "rw"
		if p.ReadOnly {
			mode = "ro"
		}
		fmt.Fprintf(w, "  %s %s %s\n", p.Name, p.Type, mode)
	}
}

func formatAttribute(a metadata.Attribute) string {
	if len(a.Args) == 0 {
		return string(a.Type)
	}
	args := make([]string, len(a.Args))
	for i, v := range a.Args {
		args[i] = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s(%s)", a.Type, strings.Join(args, ", "))
}
