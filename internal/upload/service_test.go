package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

func testAWSConfig() aws.Config {
	return aws.Config{
		Region:      "eu-central-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
}

type fakeSTS struct {
	input *sts.AssumeRoleInput
	err   error
}

func (f *fakeSTS) AssumeRole(_ context.Context, in *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("ASIASCOPED"),
			SecretAccessKey: aws.String("scoped-secret"),
			SessionToken:    aws.String("scoped-token"),
			Expiration:      aws.Time(time.Now().Add(time.Hour)),
		},
	}, nil
}

func decodePolicy(t *testing.T, encoded string) map[string]interface{} {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestAuthorizeWithBaseCredentials(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer(testAWSConfig(), WithLogger(log.Discard()), WithClock(func() time.Time { return now }))

	cred, err := issuer.Authorize(context.Background(), "ingest-landing", "T1/raw_data/ERP/sales.csv", 300*time.Second)
	require.NoError(t, err)

	assert.Contains(t, cred.URL, "ingest-landing")
	assert.Equal(t, "T1/raw_data/ERP/sales.csv", cred.Fields["key"])
	assert.NotEmpty(t, cred.Fields["policy"])
	assert.NotEmpty(t, cred.Fields["X-Amz-Signature"])
	assert.Equal(t, "AWS4-HMAC-SHA256", cred.Fields["X-Amz-Algorithm"])
	assert.Contains(t, cred.Fields["X-Amz-Credential"], "AKIDEXAMPLE/")
	assert.NotContains(t, cred.Fields, "X-Amz-Security-Token")
	assert.Equal(t, now.Add(300*time.Second), cred.ExpiresAt)

	doc := decodePolicy(t, cred.Fields["policy"])
	assert.Contains(t, doc, "expiration")
	assert.Contains(t, doc["conditions"], map[string]interface{}{"key": "T1/raw_data/ERP/sales.csv"})
}

func TestAuthorizeMaxObjectSizeCondition(t *testing.T) {
	issuer := NewIssuer(testAWSConfig(), WithMaxObjectSize(1<<20), WithLogger(log.Discard()))

	cred, err := issuer.Authorize(context.Background(), "b", "t/raw_data/s/f.csv", time.Minute)
	require.NoError(t, err)

	doc := decodePolicy(t, cred.Fields["policy"])
	assert.Contains(t, doc["conditions"], []interface{}{"content-length-range", float64(1), float64(1 << 20)})
}

func TestAuthorizeWithTenantRole(t *testing.T) {
	stsClient := &fakeSTS{}
	issuer := NewIssuer(testAWSConfig(),
		WithTenantRole(stsClient, "arn:aws:iam::123456789012:role/tenant-access"),
		WithLogger(log.Discard()))

	cred, err := issuer.Authorize(context.Background(), "ingest-landing", "acme/raw_data/ERP/sales.csv", 300*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "scoped-token", cred.Fields["X-Amz-Security-Token"])
	assert.Contains(t, cred.Fields["X-Amz-Credential"], "ASIASCOPED/")

	require.NotNil(t, stsClient.input)
	assert.Equal(t, "arn:aws:iam::123456789012:role/tenant-access", aws.ToString(stsClient.input.RoleArn))
	assert.Equal(t, int32(900), aws.ToInt32(stsClient.input.DurationSeconds))
	require.Len(t, stsClient.input.Tags, 1)
	assert.Equal(t, "tenant_id", aws.ToString(stsClient.input.Tags[0].Key))
	assert.Equal(t, "acme", aws.ToString(stsClient.input.Tags[0].Value))
	assert.Contains(t, aws.ToString(stsClient.input.Policy), "arn:aws:s3:::ingest-landing/acme/raw_data/ERP/sales.csv")
}

func TestAuthorizeSessionCoversLongTTL(t *testing.T) {
	stsClient := &fakeSTS{}
	issuer := NewIssuer(testAWSConfig(), WithTenantRole(stsClient, "arn:role"), WithLogger(log.Discard()))

	_, err := issuer.Authorize(context.Background(), "b", "t/raw_data/s/f.csv", 40*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int32(2400), aws.ToInt32(stsClient.input.DurationSeconds))
}

func TestAuthorizeAssumeRoleFailure(t *testing.T) {
	stsClient := &fakeSTS{err: errors.New("AccessDenied")}
	issuer := NewIssuer(testAWSConfig(), WithTenantRole(stsClient, "arn:role"), WithLogger(log.Discard()))

	_, err := issuer.Authorize(context.Background(), "b", "t/raw_data/s/f.csv", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.NotEqual(t, gateway.KindValidation, gateway.KindOf(err))
}

func TestAuthorizeValidation(t *testing.T) {
	issuer := NewIssuer(testAWSConfig(), WithLogger(log.Discard()))

	tests := []struct {
		name string
		key  string
		ttl  time.Duration
	}{
		{"empty key", "", time.Minute},
		{"absolute key", "/t/raw_data/s/f", time.Minute},
		{"traversal", "t/../other/f", time.Minute},
		{"empty segment", "t//f", time.Minute},
		{"backslash", `t\raw_data\f`, time.Minute},
		{"zero ttl", "t/raw_data/s/f", 0},
		{"ttl too long", "t/raw_data/s/f", 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Authorize(context.Background(), "b", tt.key, tt.ttl)
			assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
		})
	}

	_, err := issuer.Authorize(context.Background(), "", "t/raw_data/s/f", time.Minute)
	assert.Equal(t, gateway.KindInternal, gateway.KindOf(err))
}

func TestObjectPolicy(t *testing.T) {
	var doc policyDocument
	require.NoError(t, json.Unmarshal([]byte(ObjectPolicy("bkt", "a/b.csv")), &doc))
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, []string{"s3:PutObject"}, doc.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::bkt/a/b.csv"}, doc.Statement[0].Resource)
}

func TestSessionName(t *testing.T) {
	name := sessionName("tenant with spaces/and#chars")
	assert.LessOrEqual(t, len(name), 64)
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "/")
}
