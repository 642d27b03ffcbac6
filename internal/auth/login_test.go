package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	input   *cognitoidentityprovider.InitiateAuthInput
	result  *types.AuthenticationResultType
	err     error
	pools   []types.UserPoolDescriptionType
	clients []types.UserPoolClientDescription
	names   map[string]string // client id -> name, for DescribeUserPoolClient
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	out := &cognitoidentityprovider.InitiateAuthOutput{AuthenticationResult: f.result}
	if f.result == nil {
		out.ChallengeName = types.ChallengeNameTypeNewPasswordRequired
	}
	return out, nil
}

func (f *fakeCognito) ListUserPools(context.Context, *cognitoidentityprovider.ListUserPoolsInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolsOutput, error) {
	return &cognitoidentityprovider.ListUserPoolsOutput{UserPools: f.pools}, nil
}

func (f *fakeCognito) ListUserPoolClients(context.Context, *cognitoidentityprovider.ListUserPoolClientsInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolClientsOutput, error) {
	return &cognitoidentityprovider.ListUserPoolClientsOutput{UserPoolClients: f.clients}, nil
}

func (f *fakeCognito) DescribeUserPoolClient(_ context.Context, in *cognitoidentityprovider.DescribeUserPoolClientInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolClientOutput, error) {
	name, ok := f.names[aws.ToString(in.ClientId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &cognitoidentityprovider.DescribeUserPoolClientOutput{
		UserPoolClient: &types.UserPoolClientType{ClientName: aws.String(name)},
	}, nil
}

func tokens() *types.AuthenticationResultType {
	return &types.AuthenticationResultType{
		AccessToken:  aws.String("access"),
		IdToken:      aws.String("id"),
		RefreshToken: aws.String("refresh"),
		ExpiresIn:    3600,
	}
}

func TestAuthenticateWithClientID(t *testing.T) {
	fake := &fakeCognito{result: tokens()}
	svc := NewLoginService(fake, "client-123", "")

	resp, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "id", resp.IDToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, int32(3600), resp.ExpiresIn)
	assert.Equal(t, "Bearer", resp.TokenType)

	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, fake.input.AuthFlow)
	assert.Equal(t, "client-123", aws.ToString(fake.input.ClientId))
	assert.Equal(t, map[string]string{"USERNAME": "alice", "PASSWORD": "pw"}, fake.input.AuthParameters)
}

func TestAuthenticateDiscoversTenantClient(t *testing.T) {
	fake := &fakeCognito{
		result: tokens(),
		pools: []types.UserPoolDescriptionType{
			{Id: aws.String("pool-other"), Name: aws.String("ingest-globex-user-pool")},
			{Id: aws.String("pool-acme"), Name: aws.String("ingest-acme-user-pool")},
		},
		clients: []types.UserPoolClientDescription{
			{ClientId: aws.String("c1")},
			{ClientId: aws.String("c2")},
		},
		names: map[string]string{"c1": "something-else", "c2": "ingest-acme-client"},
	}
	svc := NewLoginService(fake, "", "ingest")

	_, err := svc.Authenticate(context.Background(), &LoginRequest{Tenant: "acme", Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "c2", aws.ToString(fake.input.ClientId))
}

func TestAuthenticateFailures(t *testing.T) {
	_, err := NewLoginService(&fakeCognito{}, "c", "").Authenticate(context.Background(), &LoginRequest{Username: "alice"})
	assert.Error(t, err)

	_, err = NewLoginService(&fakeCognito{}, "", "").Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "pw"})
	assert.Error(t, err)

	_, err = NewLoginService(&fakeCognito{err: errors.New("NotAuthorizedException")}, "c", "").
		Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "pw"})
	assert.ErrorContains(t, err, "NotAuthorizedException")

	_, err = NewLoginService(&fakeCognito{}, "c", "").
		Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "pw"})
	assert.ErrorContains(t, err, "NEW_PASSWORD_REQUIRED")

	_, err = NewLoginService(&fakeCognito{}, "", "ingest").
		Authenticate(context.Background(), &LoginRequest{Tenant: "acme", Username: "alice", Password: "pw"})
	assert.ErrorContains(t, err, "no user pool named")
}
