package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/serverless"
	"github.com/majorjayant/siteconfig/pkg/logger"
)

func newLambdaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve API Gateway proxy events from the Lambda runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLambda(cmd.Context(), opts)
		},
	}
}

// runLambda blocks inside the Lambda runtime loop. The stack is built once
// per execution environment and reused across invocations.
func runLambda(ctx context.Context, opts *rootOptions) error {
	cfg, generated, err := prepareConfig(opts.configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, generated, bootstrapOptions{MountRoot: true}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Shutdown(context.Background()); err != nil {
			log.Warn("runtime shutdown", zap.Error(err))
		}
	}()

	adapter := serverless.NewAdapter(stack.Router)
	lambda.StartWithOptions(adapter.Handle, lambda.WithContext(ctx))
	return nil
}
