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

	"github.com/fluxcd/pkg/ssa"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/builder"
	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [name]",
	Short: "Deploy builds a Deployment from flags and converges it on the cluster.",
	Example: `  # Deploy a web server, expose it on port 8080 and wait for it to become ready
  kubeconnector deploy podinfo -n apps --image ghcr.io/stefanprodan/podinfo:6.1.6 \
	--port 9898 --expose 9898 --wait

  # Load an environment variable from a secret key
  kubeconnector deploy podinfo --image ghcr.io/stefanprodan/podinfo:6.1.6 \
	--secret-env PODINFO_TOKEN=podinfo-token:token

  # Record the objects in an inventory and remove the services no longer exposed
  kubeconnector deploy podinfo --image ghcr.io/stefanprodan/podinfo:6.1.6 \
	--expose 9898 --inventory-name podinfo --prune

  # Print the objects without applying them
  kubeconnector deploy podinfo --image ghcr.io/stefanprodan/podinfo:6.1.6 --expose 9898 --dry-run
`,
	RunE: runDeployCmd,
}

type deployFlags struct {
	image          string
	replicas       int32
	ports          []int32
	env            []string
	secretEnv      []string
	secretVolumes  []string
	selector       []string
	labels         []string
	command        []string
	args           []string
	pullPolicy     string
	pullSecret     string
	serviceAccount string
	hostNetwork    bool
	nodeSelector   []string
	readinessPort  int32
	recreate       bool
	expose         []int32
	wait           bool
	dryRun         bool
	inventoryName  string
	prune          bool
}

var deployArgs deployFlags

func init() {
	deployCmd.Flags().StringVar(&deployArgs.image, "image", "", "The container image.")
	deployCmd.Flags().Int32Var(&deployArgs.replicas, "replicas", 1, "The number of pods.")
	deployCmd.Flags().Int32SliceVar(&deployArgs.ports, "port", nil, "The TCP ports declared by the container.")
	deployCmd.Flags().StringSliceVar(&deployArgs.env, "env", nil, "Environment variables in the NAME=value format.")
	deployCmd.Flags().StringSliceVar(&deployArgs.secretEnv, "secret-env", nil,
		"Environment variables loaded from secret keys in the NAME=secret:key format.")
	deployCmd.Flags().StringSliceVar(&deployArgs.secretVolumes, "secret-volume", nil,
		"Secrets mounted in the container in the secret=/mount/path format.")
	deployCmd.Flags().StringSliceVar(&deployArgs.selector, "selector", nil,
		"The pod selector labels in the key=value format, defaults to app=<name>.")
	deployCmd.Flags().StringSliceVar(&deployArgs.labels, "label", nil, "Labels set on the Deployment in the key=value format.")
	deployCmd.Flags().StringSliceVar(&deployArgs.command, "command", nil, "The container entrypoint.")
	deployCmd.Flags().StringSliceVar(&deployArgs.args, "args", nil, "The container arguments.")
	deployCmd.Flags().StringVar(&deployArgs.pullPolicy, "pull-policy", "", "The image pull policy, can be Always, IfNotPresent or Never.")
	deployCmd.Flags().StringVar(&deployArgs.pullSecret, "pull-secret", "", "The name of the image pull secret.")
	deployCmd.Flags().StringVar(&deployArgs.serviceAccount, "service-account", "", "The service account of the pods.")
	deployCmd.Flags().BoolVar(&deployArgs.hostNetwork, "host-network", false, "Run the pods in the host network namespace.")
	deployCmd.Flags().StringSliceVar(&deployArgs.nodeSelector, "node-selector", nil, "Node labels in the key=value format.")
	deployCmd.Flags().Int32Var(&deployArgs.readinessPort, "readiness-port", 0, "The port checked by a TCP readiness probe.")
	deployCmd.Flags().BoolVar(&deployArgs.recreate, "recreate", false, "Replace all pods at once instead of a rolling update.")
	deployCmd.Flags().Int32SliceVar(&deployArgs.expose, "expose", nil, "Create a Service named <name>-<port> for each port.")
	deployCmd.Flags().BoolVar(&deployArgs.wait, "wait", false, "Wait for the Deployment to become ready.")
	deployCmd.Flags().BoolVar(&deployArgs.dryRun, "dry-run", false, "Print the objects as YAML without applying them.")
	deployCmd.Flags().StringVar(&deployArgs.inventoryName, "inventory-name", "", "Record the applied objects in the named inventory.")
	deployCmd.Flags().BoolVar(&deployArgs.prune, "prune", false, "Delete the objects recorded in the inventory that were not applied.")

	rootCmd.AddCommand(deployCmd)
}

func runDeployCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a deployment name")
	}
	name := args[0]
	if deployArgs.image == "" {
		return fmt.Errorf("you must specify a container image with --image")
	}
	if deployArgs.prune && deployArgs.inventoryName == "" {
		return fmt.Errorf("--prune requires an inventory name")
	}

	var resMgr *resmgr.ResourceManager
	if !deployArgs.dryRun {
		m, err := newResourceManager(kubeconfigArgs)
		if err != nil {
			return err
		}
		resMgr = m
	}

	deployment, err := buildDeployment(resMgr, name, *kubeconfigArgs.Namespace)
	if err != nil {
		return err
	}

	services := make([]*builder.Service, 0, len(deployArgs.expose))
	for _, port := range deployArgs.expose {
		services = append(services, deployment.Service(port))
	}

	objects := []client.Object{deployment.Model()}
	for _, svc := range services {
		objects = append(objects, svc.Model())
	}

	if deployArgs.dryRun {
		yml, err := objectsToYAML(objects)
		if err != nil {
			return err
		}
		rootCmd.Print(yml)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	var hooks []connector.Callback
	if deployArgs.inventoryName != "" {
		hooks = append(hooks, connector.OwnerLabels(resMgr.Owner(), deployArgs.inventoryName, *kubeconfigArgs.Namespace))
	}

	change, err := deployment.Merge(ctx, hooks...)
	if err != nil {
		return err
	}
	logger.Println(change.String())

	for _, svc := range services {
		change, err := svc.Merge(ctx, hooks...)
		if err != nil {
			return err
		}
		logger.Println(change.String())
	}

	if deployArgs.inventoryName != "" {
		if err := applyInventory(ctx, resMgr, deployArgs.inventoryName, objects, deployArgs.prune); err != nil {
			return err
		}
	}

	if deployArgs.wait {
		logger.Println("waiting for the deployment to become ready...")
		if err := deployment.Ready(ctx, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println(`✓`, deployment.Identity(), "ready")
	}

	return nil
}

func buildDeployment(resMgr *resmgr.ResourceManager, name, namespace string) (*builder.Deployment, error) {
	selector := map[string]string{"app": name}
	if len(deployArgs.selector) > 0 {
		s, err := parseKeyValues(deployArgs.selector)
		if err != nil {
			return nil, err
		}
		selector = s
	}

	labels, err := parseKeyValues(deployArgs.labels)
	if err != nil {
		return nil, err
	}

	env, err := parseKeyValues(deployArgs.env)
	if err != nil {
		return nil, err
	}

	secretEnv, err := parseSecretRefs(deployArgs.secretEnv)
	if err != nil {
		return nil, err
	}

	secretVolumes, err := parseKeyValues(deployArgs.secretVolumes)
	if err != nil {
		return nil, err
	}

	nodeSelector, err := parseKeyValues(deployArgs.nodeSelector)
	if err != nil {
		return nil, err
	}

	container := builder.NewContainer(name).Image(deployArgs.image)
	for _, port := range deployArgs.ports {
		container.TCPPort(port)
	}
	for _, k := range sortedKeys(env) {
		container.Env(k, env[k])
	}
	for _, k := range secretRefNames(secretEnv) {
		ref := secretEnv[k]
		container.SecretEnv(k, ref.key, builder.NewSecret(resMgr).Namespace(namespace).Name(ref.secret))
	}
	if len(deployArgs.command) > 0 {
		container.Command(deployArgs.command...)
	}
	if len(deployArgs.args) > 0 {
		container.Args(deployArgs.args...)
	}
	if deployArgs.pullPolicy != "" {
		container.ImagePullPolicy(corev1.PullPolicy(deployArgs.pullPolicy))
	}
	if deployArgs.readinessPort > 0 {
		container.ReadinessProbeTCP(deployArgs.readinessPort, 5, 10, 3)
	}

	deployment := builder.NewDeployment(resMgr).
		Namespace(namespace).
		Name(name).
		Replicas(deployArgs.replicas).
		Containers(container)

	for _, k := range sortedKeys(selector) {
		deployment.Selector(k, selector[k])
	}
	for _, k := range sortedKeys(labels) {
		deployment.Label(k, labels[k])
	}
	for _, secretName := range sortedKeys(secretVolumes) {
		volume := builder.NewVolume(secretName).Secret(secretName)
		deployment.Volumes(volume)
		container.VolumeMount(volume, secretVolumes[secretName])
	}
	if deployArgs.hostNetwork {
		deployment.HostNetwork()
	}
	if deployArgs.serviceAccount != "" {
		deployment.ServiceAccount(deployArgs.serviceAccount)
	}
	if len(nodeSelector) > 0 {
		deployment.NodeSelector(nodeSelector)
	}
	if deployArgs.pullSecret != "" {
		deployment.ImagePullSecret(builder.NewSecret(resMgr).Namespace(namespace).Name(deployArgs.pullSecret))
	}
	if deployArgs.recreate {
		deployment.Strategy(builder.Recreate())
	}

	return deployment, nil
}

func objectsToYAML(objects []client.Object) (string, error) {
	list := make([]*unstructured.Unstructured, 0, len(objects))
	for _, object := range objects {
		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(object)
		if err != nil {
			return "", fmt.Errorf("%s conversion failed, error: %w", connector.IdentityOf(object), err)
		}
		u := &unstructured.Unstructured{Object: content}
		gvk, err := connector.GVKOf(object)
		if err != nil {
			return "", err
		}
		u.SetGroupVersionKind(gvk)
		list = append(list, u)
	}

	return ssa.ObjectsToYAML(list)
}
