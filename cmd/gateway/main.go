package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stefando/ingestGatewayAWS/internal/api"
	"github.com/stefando/ingestGatewayAWS/internal/app"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var handler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// init wires the gateway once per cold start.
func init() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Get().Error("failed to read configuration", "error", err)
		os.Exit(1)
	}
	logger := log.Setup(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := app.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	gw, err := app.NewGateway(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to initialize gateway", "error", err)
		os.Exit(1)
	}

	handler = api.LambdaHandler(gw.Router, logger)
}

func main() {
	lambda.Start(handler)
}
