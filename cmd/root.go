package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvista/snapshot-reconciler/cmd/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/cmd/version"
	"github.com/stackvista/snapshot-reconciler/internal/config"
)

const defaultConfigName = "snapshot-reconciler-config"

var (
	cliCtx *config.Context
)

// addClusterConfigFlags adds configuration flags needed by commands that talk to the cluster
func addClusterConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cliCtx.Config.Namespace, "namespace", "", "Kubernetes namespace holding the configuration (omit to connect directly)")
	flags.StringVar(&cliCtx.Config.Kubeconfig, "kubeconfig", "", "Path to kubeconfig file (default: ~/.kube/config)")
	flags.BoolVar(&cliCtx.Config.Debug, "debug", false, "Enable debug output")
	flags.BoolVarP(&cliCtx.Config.Quiet, "quiet", "q", false, "Suppress operational messages (only show errors and data output)")
	flags.StringVar(&cliCtx.Config.ConfigMapName, "configmap", defaultConfigName, "ConfigMap name containing configuration")
	flags.StringVar(&cliCtx.Config.SecretName, "secret", defaultConfigName, "Secret name containing configuration overrides")
	flags.StringVar(&cliCtx.Config.ConfigFile, "config", "", "Path to a YAML configuration file (used when --namespace is not set)")
	flags.StringVarP(&cliCtx.Config.OutputFormat, "output", "o", "table", "Output format (table, json)")

	conn := &cliCtx.Config.Overrides.Elasticsearch.Connection
	flags.StringVar(&conn.Server, "server", "", "Elasticsearch host (default localhost)")
	flags.IntVar(&conn.Port, "port", 0, "Elasticsearch port (default 9200)")
	flags.StringVar(&conn.Protocol, "protocol", "", "Elasticsearch protocol, http or https (default http)")
	flags.StringVar(&conn.Username, "username", "", "Elasticsearch username")
	flags.StringVar(&conn.Password, "password", "", "Elasticsearch password")
}

func init() {
	cliCtx = config.NewContext()

	esCmd := elasticsearch.Cmd(cliCtx)
	addClusterConfigFlags(esCmd)
	rootCmd.AddCommand(esCmd)

	rootCmd.AddCommand(version.Cmd())
}

var rootCmd = &cobra.Command{
	Use:   "snapshot-reconciler",
	Short: "Restore Elasticsearch indices missing from the cluster",
	Long: `A CLI tool that compares the indices of an Elasticsearch cluster against the successful
snapshots of a repository and restores every missing index from the most recent snapshot holding it.`,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
