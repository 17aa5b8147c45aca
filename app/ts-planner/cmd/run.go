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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/ts-planner/app"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type runSummary struct {
	Instance string      `json:"instance"`
	Rows     map[int]int `json:"rows"`
	Output   int         `json:"output_rows"`
	Elapsed  string      `json:"elapsed"`
	Trace    string      `json:"trace,omitempty"`
}

func newRunCommand(command *app.Command, opts *Options) *cobra.Command {
	var metrics bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compile a fragment instance and drive its pipelines",
		Long: `Compile a fragment instance and drive its pipelines to completion.
Exchanges reading other fragment instances are ended before the run, a last
query is answered from the last cache.`,
		Example: `
$ ts-planner run --plan /tmp/fragment.json --dop 4 --metrics`,
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

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			report, err := server.Run(ctx, frag, opts.DOP)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeReport(out, report, opts.Format); err != nil {
				return err
			}
			if metrics {
				return server.WriteMetrics(out)
			}
			return nil
		},
	}
	runCmd.Flags().BoolVar(&metrics, "metrics", false, "Print the planner metrics after the run.")
	return runCmd
}

func writeReport(w io.Writer, report *app.RunReport, format string) error {
	summary := runSummary{
		Instance: report.Explanation.Instance,
		Rows:     report.Rows,
		Elapsed:  report.Elapsed.String(),
	}
	for _, b := range report.Output {
		summary.Output += b.RowCount()
	}

	if format == "json" {
		summary.Trace = report.Trace.String()
		data, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	ids := make([]int, 0, len(summary.Rows))
	for id := range summary.Rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fmt.Fprintf(w, "instance: %s\n", summary.Instance)
	for _, id := range ids {
		fmt.Fprintf(w, "pipeline %d: %d rows\n", id, summary.Rows[id])
	}
	fmt.Fprintf(w, "output: %d rows\n", summary.Output)
	fmt.Fprintf(w, "elapsed: %s\n", summary.Elapsed)
	_, err := fmt.Fprintln(w, report.Trace.String())
	return err
}
