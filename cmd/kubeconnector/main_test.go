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
	"bytes"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/mattn/go-shellwords"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

var testClient client.Client

func TestMain(m *testing.M) {
	testClient = fake.NewClientBuilder().
		WithScheme(connector.NewScheme()).
		Build()

	newConnector = func(rcg genericclioptions.RESTClientGetter) (connector.Connector, error) {
		return connector.NewKubeConnector(testClient, fieldOwner().Field), nil
	}

	cfg.Wait.Interval = metav1.Duration{Duration: 100 * time.Millisecond}

	os.Exit(m.Run())
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz1234567890")

func randStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

func executeCommand(cmd string) (string, error) {
	defer resetCmdArgs()
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)

	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	logger.stderr = rootCmd.ErrOrStderr()

	_, err = rootCmd.ExecuteC()
	result := buf.String()

	return result, err
}

func resetCmdArgs() {
	rootArgs = rootFlags{timeout: time.Minute}
	rootCmd.PersistentFlags().Lookup("timeout").Changed = false

	deployArgs = deployFlags{replicas: 1}
	applyArgs = applyFlags{}
	exposeDeploymentArgs = exposeDeploymentFlags{}
	createSecretArgs = createSecretFlags{secretType: string(corev1.SecretTypeOpaque)}
	deleteDeploymentArgs = deleteDeploymentFlags{}
	deleteInventoryArgs = deleteInventoryFlags{wait: true}
}
