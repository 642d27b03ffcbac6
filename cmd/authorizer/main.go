package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stefando/ingestGatewayAWS/internal/auth"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var authorizer *auth.Authorizer

func init() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Get().Error("failed to read configuration", "error", err)
		os.Exit(1)
	}
	logger := log.Setup(cfg.LogLevel)

	if len(cfg.AllowedIssuers) == 0 {
		logger.Error("ALLOWED_ISSUERS environment variable not set")
		os.Exit(1)
	}

	authorizer = auth.NewAuthorizer(auth.NewValidator(cfg.AllowedIssuers, logger), logger)
	logger.Info("authorizer initialized", "issuers", cfg.AllowedIssuers)
}

func main() {
	lambda.Start(authorizer.Handle)
}
