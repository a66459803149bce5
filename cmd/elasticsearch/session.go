package elasticsearch

import (
	"errors"
	"fmt"

	"github.com/stackvista/snapshot-reconciler/cmd/portforward"
	"github.com/stackvista/snapshot-reconciler/internal/config"
	"github.com/stackvista/snapshot-reconciler/internal/connection"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/internal/k8s"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
)

var errRepositoryRequired = errors.New("snapshot repository is required (set elasticsearch.scan.repository or --repository)")

// session bundles what every subcommand needs to talk to the cluster
type session struct {
	log      *logger.Logger
	cfg      *config.Config
	esClient *elasticsearch.Client
	closers  []func()
}

// Close releases the port-forward, if any
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// repository returns the configured snapshot repository
func (s *session) repository() (string, error) {
	repository := s.cfg.Elasticsearch.Scan.Repository
	if repository == "" {
		return "", errRepositoryRequired
	}
	return repository, nil
}

func newSession(cliCtx *config.Context) (*session, error) {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)
	s := &session{log: log}

	cfg, k8sClient, err := loadConfig(cliCtx)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg

	info := cfg.Connection()

	if cfg.PortForwardEnabled() {
		if k8sClient == nil {
			return nil, fmt.Errorf("service '%s' is configured for port-forwarding but no --namespace was given", cfg.Elasticsearch.Service.Name)
		}
		svc := cfg.Elasticsearch.Service
		pf, err := portforward.SetupPortForward(k8sClient, cliCtx.Config.Namespace, svc.Name, svc.LocalPortForwardPort, svc.Port, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pf.Close)
		info = info.With(connection.WithServer("localhost"), connection.WithPort(pf.LocalPort))
	}

	log.Debugf("Connecting to %s", info)

	esClient, err := elasticsearch.NewClient(info, elasticsearch.WithIgnoreIndexSettings(cfg.Elasticsearch.Restore.IgnoreIndexSettings))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	s.esClient = esClient

	return s, nil
}

// loadConfig reads configuration from the cluster when a namespace is given,
// from --config otherwise, and applies command-line overrides on top
func loadConfig(cliCtx *config.Context) (*config.Config, *k8s.Client, error) {
	var (
		cfg       *config.Config
		k8sClient *k8s.Client
		err       error
	)

	switch {
	case cliCtx.Config.Namespace != "":
		k8sClient, err = k8s.NewClient(cliCtx.Config.Kubeconfig, cliCtx.Config.Debug)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
		}
		cfg, err = config.LoadConfig(k8sClient.Clientset(), cliCtx.Config.Namespace, cliCtx.Config.ConfigMapName, cliCtx.Config.SecretName)
	case cliCtx.Config.ConfigFile != "":
		cfg, err = config.LoadConfigFile(cliCtx.Config.ConfigFile)
	default:
		cfg = config.Defaults()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applyOverrides(cfg, &cliCtx.Config.Overrides); err != nil {
		return nil, nil, err
	}
	return cfg, k8sClient, nil
}

func applyOverrides(cfg *config.Config, overrides *config.Config) error {
	if err := cfg.Merge(overrides); err != nil {
		return fmt.Errorf("failed to apply command-line overrides: %w", err)
	}
	if err := cfg.Complete(); err != nil {
		return err
	}
	return nil
}
