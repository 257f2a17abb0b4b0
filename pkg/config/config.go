package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fluxcd/pkg/ssa"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

const (
	ConfigKind        = "Config"
	ConfigApiVersion  = "kubeconnector.dev/v1"
	FieldManagerName  = "kubeconnector"
	FieldManagerGroup = "kubeconnector.dev"
)

type Config struct {
	metav1.TypeMeta `json:",inline"`

	// ApplyOrder holds the list of the Kubernetes API Kinds that
	// describes in which order they are reconciled.
	ApplyOrder *KindOrder `json:"applyOrder,omitempty"`

	// FieldManager holds the manager name and group used for create and update requests.
	FieldManager *FieldManager `json:"fieldManager,omitempty"`

	// Wait holds the readiness polling defaults.
	Wait *Wait `json:"wait,omitempty"`

	// Concurrency is either LastWriterWins or VersionConditioned.
	Concurrency resmgr.ConcurrencyPolicy `json:"concurrency,omitempty"`

	// Validate enables the local structural checks performed before merge.
	Validate *bool `json:"validate,omitempty"`
}

type FieldManager struct {
	// Name sets the field manager for the reconciled objects.
	Name string `json:"name"`

	// Group sets the owner label key prefix.
	Group string `json:"group"`
}

// KindOrder holds the list of the Kubernetes API Kinds that
// describes in which order they are reconciled.
type KindOrder struct {
	// First contains the list of Kubernetes API Kinds
	// that are applied first and delete last.
	First []string `json:"first"`

	// Last contains the list of Kubernetes API Kinds
	// that are applied last and delete first.
	Last []string `json:"last"`
}

type Wait struct {
	// Interval between two readiness checks.
	Interval metav1.Duration `json:"interval"`

	// Timeout for a readiness wait.
	Timeout metav1.Duration `json:"timeout"`
}

// NewConfig returns a config with the default apply order.
func NewConfig() *Config {
	validate := true
	return &Config{
		TypeMeta: metav1.TypeMeta{
			Kind:       ConfigKind,
			APIVersion: ConfigApiVersion,
		},
		ApplyOrder:   defaultKindOrder(),
		FieldManager: defaultFieldManager(),
		Wait:         defaultWait(),
		Concurrency:  resmgr.LastWriterWins,
		Validate:     &validate,
	}
}

func defaultKindOrder() *KindOrder {
	return &KindOrder{
		First: ssa.ReconcileOrder.First,
		Last:  ssa.ReconcileOrder.Last,
	}
}

func defaultFieldManager() *FieldManager {
	return &FieldManager{
		Name:  FieldManagerName,
		Group: FieldManagerGroup,
	}
}

func defaultWait() *Wait {
	return &Wait{
		Interval: metav1.Duration{Duration: resmgr.DefaultWaitInterval},
		Timeout:  metav1.Duration{Duration: resmgr.DefaultWaitTimeout},
	}
}

// DefaultConfigPath returns '$HOME/.kubeconnector/config'
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".kubeconnector/config"), nil
}

// Read loads the config from the specified path,
// if the config file is not found, a default is returned.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("$HOME dir can't be determined, error: %w", err)
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(cfgData, cfg); err != nil {
		return nil, err
	}

	defaults := NewConfig()
	if cfg.ApplyOrder == nil {
		cfg.ApplyOrder = defaults.ApplyOrder
	}

	if cfg.FieldManager == nil {
		cfg.FieldManager = defaults.FieldManager
	}

	if cfg.Wait == nil {
		cfg.Wait = defaults.Wait
	}

	if cfg.Concurrency == "" {
		cfg.Concurrency = defaults.Concurrency
	}

	if cfg.Validate == nil {
		cfg.Validate = defaults.Validate
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.FieldManager.Name == "" {
		return fmt.Errorf("the field manager name can't be empty")
	}

	if c.FieldManager.Group == "" {
		return fmt.Errorf("the field manager group can't be empty")
	}

	if c.Wait.Interval.Duration <= 0 {
		return fmt.Errorf("the wait interval must be greater than zero")
	}

	switch c.Concurrency {
	case resmgr.LastWriterWins, resmgr.VersionConditioned:
	default:
		return fmt.Errorf("unknown concurrency policy '%s', can be '%s' or '%s'",
			c.Concurrency, resmgr.LastWriterWins, resmgr.VersionConditioned)
	}

	return nil
}

// ManagerOptions returns the resource manager options described by the config.
func (c *Config) ManagerOptions() resmgr.Options {
	opts := resmgr.DefaultOptions()

	if c.FieldManager != nil {
		opts.Owner = ssa.Owner{
			Field: c.FieldManager.Name,
			Group: c.FieldManager.Group,
		}
	}

	if c.ApplyOrder != nil {
		opts.KindOrder = resmgr.KindOrder{
			First: c.ApplyOrder.First,
			Last:  c.ApplyOrder.Last,
		}
	}

	if c.Wait != nil {
		opts.WaitInterval = c.Wait.Interval.Duration
		opts.WaitTimeout = c.Wait.Timeout.Duration
	}

	if c.Concurrency != "" {
		opts.Concurrency = c.Concurrency
	}

	if c.Validate != nil {
		opts.Validate = *c.Validate
	}

	return opts
}

// WaitTimeout returns the configured readiness timeout or the given fallback.
func (c *Config) WaitTimeout(fallback time.Duration) time.Duration {
	if c.Wait == nil || c.Wait.Timeout.Duration <= 0 {
		return fallback
	}
	return c.Wait.Timeout.Duration
}

// Write saves the config at the given path, if no path is specified
// it will create or override '$HOME/.kubeconnector/config'.
func (c *Config) Write(configPath string) error {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), os.FileMode(0755)); err != nil {
		return err
	}

	cfgData, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, cfgData, os.FileMode(0666)); err != nil {
		return err
	}

	return nil
}
