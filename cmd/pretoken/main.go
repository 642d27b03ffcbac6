package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stefando/ingestGatewayAWS/internal/auth"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// One function is deployed per tenant user pool; TENANT_ID names that tenant.
func main() {
	logger := log.Setup(os.Getenv("LOG_LEVEL"))
	lambda.Start(auth.PreTokenHandler(os.Getenv("TENANT_ID"), logger))
}
