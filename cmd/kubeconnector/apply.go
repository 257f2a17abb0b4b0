/*
Copyright 2021 Stefan Prodan
Copyright 2021 The Flux authors

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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fluxcd/pkg/ssa"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply merges the Kubernetes objects read from YAML files.",
	Example: `  # Merge the objects from a multi-doc YAML file and wait for them to become ready
  kubeconnector apply -f ./deploy/app.yaml --wait

  # Merge the objects read from stdin and record them in an inventory
  cat app.yaml | kubeconnector apply -f- --inventory-name app --prune
`,
	RunE: runApplyCmd,
}

type applyFlags struct {
	filename      []string
	inventoryName string
	prune         bool
	wait          bool
}

var applyArgs applyFlags

func init() {
	applyCmd.Flags().StringSliceVarP(&applyArgs.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all YAML files in the directory will be read. To read from stdin, use '-'.")
	applyCmd.Flags().StringVar(&applyArgs.inventoryName, "inventory-name", "", "Record the applied objects in the named inventory.")
	applyCmd.Flags().BoolVar(&applyArgs.prune, "prune", false, "Delete the objects recorded in the inventory that were not applied.")
	applyCmd.Flags().BoolVar(&applyArgs.wait, "wait", false, "Wait for the applied objects to become ready.")

	rootCmd.AddCommand(applyCmd)
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	if len(applyArgs.filename) == 0 {
		return fmt.Errorf("you must specify at least one file with -f")
	}
	if applyArgs.prune && applyArgs.inventoryName == "" {
		return fmt.Errorf("--prune requires an inventory name")
	}

	objects, err := readObjects(cmd.InOrStdin(), applyArgs.filename)
	if err != nil {
		return err
	}
	logger.Println(fmt.Sprintf("applying %v manifest(s)...", len(objects)))

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	mergeOpts := resMgr.DefaultMergeOptions()
	if applyArgs.inventoryName != "" {
		mergeOpts.Hooks = append(mergeOpts.Hooks,
			connector.OwnerLabels(resMgr.Owner(), applyArgs.inventoryName, *kubeconfigArgs.Namespace))
	}

	changeSet, err := resMgr.MergeAll(ctx, objects, mergeOpts)
	if err != nil {
		return err
	}
	for _, change := range changeSet.Entries {
		logger.Println(change.String())
	}

	if applyArgs.inventoryName != "" {
		if err := applyInventory(ctx, resMgr, applyArgs.inventoryName, objects, applyArgs.prune); err != nil {
			return err
		}
	}

	if applyArgs.wait {
		logger.Println("waiting for resources to become ready...")
		waitOpts := resMgr.DefaultWaitOptions()
		waitOpts.Timeout = rootArgs.timeout
		for _, object := range objects {
			if err := resMgr.Wait(ctx, object, waitOpts); err != nil {
				return err
			}
		}
		logger.Println(`✓`, "all resources are ready")
	}

	return nil
}

// readObjects decodes the objects from the given files, '-' reads from stdin.
// Objects without a namespace are placed in the command's namespace.
func readObjects(stdin io.Reader, filenames []string) ([]client.Object, error) {
	var objects []client.Object
	for _, filename := range filenames {
		var data []byte
		var err error
		if filename == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = readManifests(filename)
		}
		if err != nil {
			return nil, err
		}

		objs, err := ssa.ReadObjects(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s decode failed, error: %w", filename, err)
		}
		for _, obj := range objs {
			if obj.GetNamespace() == "" && !isClusterScoped(obj.GetKind()) {
				obj.SetNamespace(*kubeconfigArgs.Namespace)
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// readManifests returns the content of a file, or of all the YAML files in a directory.
func readManifests(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return os.ReadFile(path)
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, file := range files {
		if file.IsDir() || !matchExt(file.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, file.Name()))
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n---\n")
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func matchExt(f string) bool {
	ext := filepath.Ext(f)
	return ext == ".yaml" || ext == ".yml"
}

func isClusterScoped(kind string) bool {
	switch kind {
	case "Namespace", "ClusterRole", "ClusterRoleBinding", "CustomResourceDefinition", "PersistentVolume", "StorageClass":
		return true
	default:
		return false
	}
}
