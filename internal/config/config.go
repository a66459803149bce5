// Package config provides configuration management for the reconciler.
// Configuration is read from a Kubernetes ConfigMap (optionally overridden by a
// Secret) or from a local YAML file, then completed with defaults, command-line
// overrides and validation.
package config

import (
	"context"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/stackvista/snapshot-reconciler/internal/connection"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
)

// configKey is the data key holding the YAML document in ConfigMaps and Secrets
const configKey = "config"

// Config represents the merged configuration
type Config struct {
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" validate:"required"`
}

// ElasticsearchConfig holds Elasticsearch-specific configuration
type ElasticsearchConfig struct {
	Connection ConnectionConfig `yaml:"connection" validate:"required"`
	Service    ServiceConfig    `yaml:"service"`
	Scan       ScanConfig       `yaml:"scan"`
	Restore    RestoreConfig    `yaml:"restore"`
}

// ConnectionConfig describes how to reach the cluster directly
type ConnectionConfig struct {
	Server   string `yaml:"server" validate:"required"`
	Port     int    `yaml:"port" validate:"required,min=1,max=65535"`
	Protocol string `yaml:"protocol" validate:"required,oneof=http https"`
	Username string `yaml:"username"`
	Password string `yaml:"password" validate:"excluded_without=Username"` // From secret
}

// ServiceConfig holds the Kubernetes service to port-forward to.
// Port-forwarding is only used when Name is set.
type ServiceConfig struct {
	Name                 string `yaml:"name"`
	Port                 int    `yaml:"port" validate:"min=1,max=65535"`
	LocalPortForwardPort int    `yaml:"localPortForwardPort" validate:"min=1,max=65535"`
}

// ScanConfig selects the snapshots considered by a scan
type ScanConfig struct {
	Repository      string `yaml:"repository"`
	SnapshotPattern string `yaml:"snapshotPattern" validate:"required"`
}

// RestoreConfig holds restore request settings
type RestoreConfig struct {
	IgnoreIndexSettings []string `yaml:"ignoreIndexSettings" validate:"dive,required"`
}

// Defaults returns the configuration used for any value left unset
func Defaults() *Config {
	return &Config{
		Elasticsearch: ElasticsearchConfig{
			Connection: ConnectionConfig{
				Server:   connection.DefaultServer,
				Port:     connection.DefaultPort,
				Protocol: connection.DefaultProtocol,
			},
			Service: ServiceConfig{
				Port:                 connection.DefaultPort,
				LocalPortForwardPort: connection.DefaultPort,
			},
			Scan: ScanConfig{
				SnapshotPattern: "*",
			},
			Restore: RestoreConfig{
				IgnoreIndexSettings: append([]string(nil), elasticsearch.DefaultIgnoreIndexSettings...),
			},
		},
	}
}

// LoadConfig loads and merges configuration from ConfigMap and Secret
// ConfigMap provides base configuration, Secret overrides it
// Unset values fall back to Defaults and the result is validated
func LoadConfig(clientset kubernetes.Interface, namespace, configMapName, secretName string) (*Config, error) {
	ctx := context.Background()
	config := &Config{}

	if configMapName == "" {
		return nil, fmt.Errorf("ConfigMap name is required")
	}

	cm, err := clientset.CoreV1().ConfigMaps(namespace).Get(ctx, configMapName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap '%s': %w", configMapName, err)
	}

	configData, ok := cm.Data[configKey]
	if !ok {
		return nil, fmt.Errorf("ConfigMap '%s' does not contain '%s' key", configMapName, configKey)
	}
	if err := yaml.Unmarshal([]byte(configData), config); err != nil {
		return nil, fmt.Errorf("failed to parse ConfigMap config: %w", err)
	}

	// Load Secret if it exists (overrides ConfigMap)
	if secretName != "" {
		secret, err := clientset.CoreV1().Secrets(namespace).Get(ctx, secretName, metav1.GetOptions{})
		if err != nil {
			// Secret is optional - only used for overrides
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Secret '%s' not found, using ConfigMap only\n", secretName)
		} else if secretData, ok := secret.Data[configKey]; ok {
			var secretConfig Config
			if err := yaml.Unmarshal(secretData, &secretConfig); err != nil {
				return nil, fmt.Errorf("failed to parse Secret config: %w", err)
			}
			if err := config.Merge(&secretConfig); err != nil {
				return nil, fmt.Errorf("failed to merge Secret config: %w", err)
			}
		}
	}

	if err := config.Complete(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigFile loads configuration from a local YAML file
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if err := config.Complete(); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge overlays the non-zero values of overrides onto c
func (c *Config) Merge(overrides *Config) error {
	if overrides == nil {
		return nil
	}
	return mergo.Merge(c, *overrides, mergo.WithOverride)
}

// Complete fills unset values from Defaults and validates the result
func (c *Config) Complete() error {
	if err := mergo.Merge(c, *Defaults()); err != nil {
		return fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Connection builds the connection descriptor for the configured cluster
func (c *Config) Connection() *connection.Info {
	conn := c.Elasticsearch.Connection
	opts := []connection.Option{
		connection.WithServer(conn.Server),
		connection.WithPort(conn.Port),
		connection.WithProtocol(conn.Protocol),
	}
	if conn.Username != "" {
		opts = append(opts, connection.WithCredentials(conn.Username, conn.Password))
	}
	return connection.New(opts...)
}

// PortForwardEnabled reports whether the cluster is reached through a
// Kubernetes port-forward
func (c *Config) PortForwardEnabled() bool {
	return c.Elasticsearch.Service.Name != ""
}

type Context struct {
	Config *CLIConfig
}

type CLIConfig struct {
	Namespace     string
	Kubeconfig    string
	Debug         bool
	Quiet         bool
	ConfigMapName string
	SecretName    string
	ConfigFile    string
	OutputFormat  string // table, json

	// Overrides holds values set on the command line; zero values are ignored
	Overrides Config
}

func NewContext() *Context {
	return &Context{
		Config: &CLIConfig{},
	}
}
