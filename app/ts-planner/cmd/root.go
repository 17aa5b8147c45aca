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
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/spf13/cobra"
)

const (
	DEFAULT_FORMAT = "text"
	DEFAULT_HOST   = "127.0.0.1"
	DEFAULT_PORT   = 10740
)

// Options are the flags shared by every sub command.
type Options struct {
	Config string
	Plan   string
	DOP    int
	Format string
	Host   string
	Port   int
}

func (o *Options) endpoint() exchange.TEndPoint {
	return exchange.TEndPoint{IP: o.Host, Port: o.Port}
}

func (o *Options) checkFormat() error {
	switch o.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unsupported format %q, expect text or json", o.Format)
	}
}

// NewRootCommand builds the ts-planner command tree.
func NewRootCommand(info app.ServerInfo) *cobra.Command {
	opts := &Options{}
	command := app.NewCommand(info)

	rootCmd := &cobra.Command{
		Use:   "ts-planner",
		Short: "openGemini fragment instance planner",
		Long:  `ts-planner compiles query fragments into operator trees and pipelines`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "Configuration file, defaults are used when empty.")
	rootCmd.PersistentFlags().StringVarP(&opts.Plan, "plan", "p", "", "Json encoded fragment instance, - reads stdin.")
	rootCmd.PersistentFlags().IntVar(&opts.DOP, "dop", 0, "Degree of parallelism, the configured one when not positive.")
	rootCmd.PersistentFlags().StringVar(&opts.Format, "format", DEFAULT_FORMAT, "Output format: text or json.")
	rootCmd.PersistentFlags().StringVar(&opts.Host, "host", DEFAULT_HOST, "Address of the local data exchange endpoint.")
	rootCmd.PersistentFlags().IntVar(&opts.Port, "port", DEFAULT_PORT, "Port of the local data exchange endpoint.")

	rootCmd.AddCommand(
		newExplainCommand(command, opts),
		newRunCommand(command, opts),
		newVersionCommand(command),
	)
	return rootCmd
}

// prepare loads the configuration and the fragment instance and builds the
// server compiling it.
func prepare(command *app.Command, opts *Options) (*app.Server, error) {
	if err := opts.checkFormat(); err != nil {
		return nil, err
	}
	if opts.Plan == "" {
		return nil, fmt.Errorf("--plan is required")
	}
	if err := command.InitConfig(opts.Config); err != nil {
		return nil, err
	}
	app.LogStarting("ts-planner", &command.Info)
	return app.NewServer(command.Config, opts.endpoint())
}
