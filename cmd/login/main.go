package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"

	"github.com/stefando/ingestGatewayAWS/internal/api"
	"github.com/stefando/ingestGatewayAWS/internal/app"
	"github.com/stefando/ingestGatewayAWS/internal/auth"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var handler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func init() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Get().Error("failed to read configuration", "error", err)
		os.Exit(1)
	}
	logger := log.Setup(cfg.LogLevel)

	if cfg.StackName == "" && cfg.CognitoClientID == "" {
		logger.Error("STACK_NAME or COGNITO_CLIENT_ID environment variable must be set")
		os.Exit(1)
	}

	awsCfg, err := app.LoadAWSConfig(context.Background(), cfg.Region)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	login := auth.NewLoginService(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.CognitoClientID, cfg.StackName)
	handler = api.LambdaHandler(api.NewLoginRouter(login, logger), logger)
	logger.Info("login service initialized", "stack", cfg.StackName, "region", awsCfg.Region)
}

func main() {
	lambda.Start(handler)
}
