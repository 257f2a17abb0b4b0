/*
Copyright 2021 Stefan Prodan

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
	"os"
	"time"

	"github.com/fluxcd/pkg/ssa"
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/stefanprodan/kubeconnector/pkg/config"
)

var VERSION = "0.1.0-dev.0"

const PROJECT = "kubeconnector"

var rootCmd = &cobra.Command{
	Use:           PROJECT,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A command line utility to build, converge and expose Kubernetes workloads.",
	Long: `Kubeconnector builds Kubernetes workloads from flags and converges them on a cluster.

Build, converge and expose deployments:

- kubeconnector deploy <name> --image <image> [--port] [--env] [--secret-env] [--expose] [--wait]
- kubeconnector expose deployment <name> --port <port>
- kubeconnector wait deployment <name>
- kubeconnector create secret <name> --from-literal <key>=<value>
- kubeconnector apply -f <path> [--inventory-name] [--prune] [--wait]

Inspect and remove the converged objects:

- kubeconnector get pods <deployment>
- kubeconnector get inventories
- kubeconnector get inventory <name>
- kubeconnector delete deployment <name>
- kubeconnector delete inventory <name>
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootArgs.verbose {
			ctrllog.SetLogger(zap.New(zap.WriteTo(cmd.ErrOrStderr()), zap.UseDevMode(true)))
		}
	},
}

type rootFlags struct {
	timeout time.Duration
	verbose bool
}

var (
	rootArgs = rootFlags{}
	logger   = stderrLogger{stderr: os.Stderr}
	cfg      = config.NewConfig()
)

var kubeconfigArgs = genericclioptions.NewConfigFlags(false)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", time.Minute,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().BoolVar(&rootArgs.verbose, "verbose", false,
		"Print the reconciler logs to stderr.")

	kubeconfigArgs.Timeout = nil
	kubeconfigArgs.Namespace = nil
	kubeconfigArgs.AddFlags(rootCmd.PersistentFlags())

	defaultNamespace := "default"
	kubeconfigArgs.Namespace = &defaultNamespace
	rootCmd.PersistentFlags().StringVarP(kubeconfigArgs.Namespace, "namespace", "n", *kubeconfigArgs.Namespace, "The namespace of the objects.")

	rootCmd.DisableAutoGenTag = true
	rootCmd.SetOut(os.Stdout)
}

func main() {
	loadConfig()
	if err := rootCmd.Execute(); err != nil {
		logger.Println(`✗`, err)
		os.Exit(1)
	}
}

func loadConfig() {
	if c, err := config.Read(""); err != nil {
		logger.Println(`✗`, fmt.Errorf("loading the config failed, error: %w", err))
	} else {
		cfg = c
	}
}

func fieldOwner() ssa.Owner {
	return cfg.ManagerOptions().Owner
}
