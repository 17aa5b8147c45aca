/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

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

package cmd

import (
	"fmt"

	"github.com/openGemini/ts-planner/app"
	"github.com/spf13/cobra"
)

func newExplainCommand(command *app.Command, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain",
		Short: "Print the operators and pipelines of a fragment instance",
		Example: `
$ ts-planner explain --plan /tmp/fragment.json --dop 4

$ ts-planner explain --plan - --format json < /tmp/fragment.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := prepare(command, opts)
			if err != nil {
				return err
			}
			frag, err := app.LoadFragment(opts.Plan)
			if err != nil {
				return err
			}
			e, err := server.Explain(frag, opts.DOP)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				data, err := e.JSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), e.String())
			return err
		},
	}
}
