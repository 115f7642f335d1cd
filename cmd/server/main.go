package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "siteconfig",
		Short:         "Portfolio site configuration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Inside Lambda the binary is started without arguments.
		RunE: func(cmd *cobra.Command, args []string) error {
			if runningInLambda() {
				return runLambda(cmd.Context(), opts)
			}
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration directory or file")

	root.AddCommand(
		newServeCmd(opts),
		newLambdaCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func runningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}
