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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/stefanprodan/kubeconnector/pkg/builder"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create merges objects built from flags.",
}

var createSecretCmd = &cobra.Command{
	Use:   "secret [name]",
	Short: "Create a Secret from literal values, an existing Secret is updated if its data differs.",
	Example: `  # Create a secret holding a token
  kubeconnector create secret podinfo-token --from-literal token=s3cr3t -n apps
`,
	RunE: runCreateSecretCmd,
}

type createSecretFlags struct {
	literals   []string
	secretType string
	labels     []string
}

var createSecretArgs createSecretFlags

func init() {
	createSecretCmd.Flags().StringSliceVar(&createSecretArgs.literals, "from-literal", nil, "Secret data in the key=value format.")
	createSecretCmd.Flags().StringVar(&createSecretArgs.secretType, "type", string(corev1.SecretTypeOpaque), "The type of the secret.")
	createSecretCmd.Flags().StringSliceVar(&createSecretArgs.labels, "label", nil, "Labels in the key=value format.")

	createCmd.AddCommand(createSecretCmd)
	rootCmd.AddCommand(createCmd)
}

func runCreateSecretCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a secret name")
	}

	data, err := parseKeyValues(createSecretArgs.literals)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("you must specify the secret data with --from-literal")
	}

	labels, err := parseKeyValues(createSecretArgs.labels)
	if err != nil {
		return err
	}

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}

	secret := builder.NewSecret(resMgr).
		Namespace(*kubeconfigArgs.Namespace).
		Name(args[0]).
		Type(corev1.SecretType(createSecretArgs.secretType))
	for _, k := range sortedKeys(data) {
		secret.StringData(k, data[k])
	}
	for _, k := range sortedKeys(labels) {
		secret.Label(k, labels[k])
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	change, err := secret.Merge(ctx)
	if err != nil {
		return err
	}
	logger.Println(change.String())

	return nil
}
