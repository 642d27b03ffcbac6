package auth

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*TokenInfo, error)
}

// Authorizer is an API Gateway REQUEST authorizer.
type Authorizer struct {
	validator TokenValidator
	logger    *slog.Logger
}

func NewAuthorizer(validator TokenValidator, logger *slog.Logger) *Authorizer {
	return &Authorizer{validator: validator, logger: log.WithComponent(logger, "authorizer")}
}

// Handle returns Allow with the tenant in the context for a valid token and Deny otherwise.
// It never returns an error, since API Gateway would turn that into a 500.
func (a *Authorizer) Handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	logger := a.logger.With(
		slog.String("request_id", event.RequestContext.RequestID),
		slog.String("method_arn", event.MethodArn),
	)

	authHeader, ok := AuthorizationHeader(event.Headers)
	if !ok {
		logger.Info("authorization failed: no Authorization header")
		return AuthorizerResponse("unauthorized", false, event.MethodArn, nil), nil
	}

	info, err := a.validator.Validate(ctx, StripBearerPrefix(authHeader))
	if err != nil {
		logger.Info("authorization failed", "error", err)
		return AuthorizerResponse("unauthorized", false, event.MethodArn, nil), nil
	}

	logger.Info("authorization successful", "tenant_id", info.TenantID, "username", info.Username)
	return AuthorizerResponse(info.TenantID, true, event.MethodArn, map[string]interface{}{
		"tenant_id":        info.TenantID,
		"username":         info.Username,
		"token_expiration": strconv.FormatInt(info.Expiration, 10), // context values must be strings
	}), nil
}

// AuthorizerResponse creates a standardized authorizer response.
func AuthorizerResponse(principalID string, allow bool, methodArn string, context map[string]interface{}) events.APIGatewayCustomAuthorizerResponse {
	effect := "Allow"
	if !allow {
		effect = "Deny"
	}
	resp := events.APIGatewayCustomAuthorizerResponse{
		PrincipalID:    principalID,
		PolicyDocument: GeneratePolicy(effect, methodArn),
	}
	if context != nil {
		resp.Context = context
	}
	return resp
}

// GeneratePolicy builds the execute-api policy for resource.
func GeneratePolicy(effect, resource string) events.APIGatewayCustomAuthorizerPolicy {
	return events.APIGatewayCustomAuthorizerPolicy{
		Version: "2012-10-17",
		Statement: []events.IAMPolicyStatement{{
			Action:   []string{"execute-api:Invoke"},
			Effect:   effect,
			Resource: []string{resource},
		}},
	}
}
