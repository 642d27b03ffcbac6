package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the part of the Cognito client the login service uses.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	cognitoidentityprovider.ListUserPoolsAPIClient
	cognitoidentityprovider.ListUserPoolClientsAPIClient
	DescribeUserPoolClient(ctx context.Context, params *cognitoidentityprovider.DescribeUserPoolClientInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolClientOutput, error)
}

// LoginService exchanges a username and password for Cognito tokens.
type LoginService struct {
	cognitoClient CognitoAPI
	clientID      string
	stackName     string
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Tenant   string `json:"tenant"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the tokens returned to the client.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// NewLoginService creates a login service.
// With a clientID every login goes to that app client. Without one, the pool
// and client are discovered per tenant from the stack naming convention
// {stack}-{tenant}-user-pool and {stack}-{tenant}-client.
func NewLoginService(client CognitoAPI, clientID, stackName string) *LoginService {
	return &LoginService{
		cognitoClient: client,
		clientID:      clientID,
		stackName:     stackName,
	}
}

// Authenticate runs USER_PASSWORD_AUTH against the tenant's app client.
func (s *LoginService) Authenticate(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	clientID := s.clientID
	if clientID == "" {
		if req.Tenant == "" || s.stackName == "" {
			return nil, fmt.Errorf("either a client ID or a tenant and stack name are required")
		}
		userPoolID, err := s.findUserPoolByName(ctx, fmt.Sprintf("%s-%s-user-pool", s.stackName, req.Tenant))
		if err != nil {
			return nil, fmt.Errorf("failed to find user pool for tenant %s: %w", req.Tenant, err)
		}
		clientID, err = s.findUserPoolClient(ctx, userPoolID, fmt.Sprintf("%s-%s-client", s.stackName, req.Tenant))
		if err != nil {
			return nil, fmt.Errorf("failed to find user pool client: %w", err)
		}
	}

	result, err := s.cognitoClient.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(clientID),
		AuthParameters: map[string]string{
			"USERNAME": req.Username,
			"PASSWORD": req.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if result.AuthenticationResult == nil {
		// A challenge (new password, MFA) cannot be answered non-interactively.
		return nil, fmt.Errorf("unexpected authentication response: challenge %s", result.ChallengeName)
	}

	ar := result.AuthenticationResult
	return &LoginResponse{
		AccessToken:  aws.ToString(ar.AccessToken),
		IDToken:      aws.ToString(ar.IdToken),
		RefreshToken: aws.ToString(ar.RefreshToken),
		ExpiresIn:    ar.ExpiresIn,
		TokenType:    "Bearer",
	}, nil
}

func (s *LoginService) findUserPoolByName(ctx context.Context, poolName string) (string, error) {
	paginator := cognitoidentityprovider.NewListUserPoolsPaginator(s.cognitoClient, &cognitoidentityprovider.ListUserPoolsInput{
		MaxResults: aws.Int32(60),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list user pools: %w", err)
		}
		for _, pool := range page.UserPools {
			if aws.ToString(pool.Name) == poolName {
				return aws.ToString(pool.Id), nil
			}
		}
	}

	return "", fmt.Errorf("no user pool named %s", poolName)
}

func (s *LoginService) findUserPoolClient(ctx context.Context, userPoolID, clientName string) (string, error) {
	paginator := cognitoidentityprovider.NewListUserPoolClientsPaginator(s.cognitoClient, &cognitoidentityprovider.ListUserPoolClientsInput{
		UserPoolId: aws.String(userPoolID),
		MaxResults: aws.Int32(60),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list clients of pool %s: %w", userPoolID, err)
		}
		for _, client := range page.UserPoolClients {
			if aws.ToString(client.ClientName) == clientName {
				return aws.ToString(client.ClientId), nil
			}
			out, err := s.cognitoClient.DescribeUserPoolClient(ctx, &cognitoidentityprovider.DescribeUserPoolClientInput{
				UserPoolId: aws.String(userPoolID),
				ClientId:   client.ClientId,
			})
			if err != nil {
				continue
			}
			if out.UserPoolClient != nil && aws.ToString(out.UserPoolClient.ClientName) == clientName {
				return aws.ToString(client.ClientId), nil
			}
		}
	}

	return "", fmt.Errorf("no app client named %s", clientName)
}
