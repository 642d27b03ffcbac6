package auth

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// TenantClaim is the token claim that binds a caller to one tenant.
const TenantClaim = "tenant_id"

// AddTenantClaim stamps tenantID into both the ID and the access token.
// The authorizer reads it back from whichever token the client presents.
func AddTenantClaim(event events.CognitoEventUserPoolsPreTokenGenV2_0, tenantID string) events.CognitoEventUserPoolsPreTokenGenV2_0 {
	details := &event.Response.ClaimsAndScopeOverrideDetails

	if details.IDTokenGeneration.ClaimsToAddOrOverride == nil {
		details.IDTokenGeneration.ClaimsToAddOrOverride = make(map[string]interface{})
	}
	details.IDTokenGeneration.ClaimsToAddOrOverride[TenantClaim] = tenantID

	if details.AccessTokenGeneration.ClaimsToAddOrOverride == nil {
		details.AccessTokenGeneration.ClaimsToAddOrOverride = make(map[string]interface{})
	}
	details.AccessTokenGeneration.ClaimsToAddOrOverride[TenantClaim] = tenantID
	return event
}

// PreTokenHandler returns a Cognito pre token generation (V2_0) trigger for a
// tenant-specific user pool. With an empty tenantID the event passes through.
func PreTokenHandler(tenantID string, logger *slog.Logger) func(context.Context, events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
	logger = log.WithComponent(logger, "pretoken")

	return func(ctx context.Context, event events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
		if tenantID == "" {
			logger.Warn("TENANT_ID not set, skipping tenant claim", "user", event.UserName)
			return event, nil
		}
		logger.Info("adding tenant claim", "user", event.UserName, "tenant_id", tenantID)
		return AddTenantClaim(event, tenantID), nil
	}
}
