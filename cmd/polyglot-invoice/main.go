package main

import (
	"fmt"
	"os"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/service"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "polyglot-invoice",
		Short:         "Turn spoken sales in Southeast Asian languages into invoices",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(invoiceCmd())
	rootCmd.AddCommand(transcribeCmd())
	return rootCmd
}

// setup loads configuration and installs the logrus factory. Logs go to stderr so
// command output on stdout stays machine readable.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	logging.SetLoggerFactory(logging.NewLogrusFactory(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return cfg, nil
}

func newService(cfg *config.Config, reg *metrics.Registry) (*service.Service, error) {
	svc, err := service.NewFromConfig(cfg, reg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return svc, nil
}
