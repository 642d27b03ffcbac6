package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

const (
	// MinSessionDuration is the minimum duration for AWS STS AssumeRole (15 minutes)
	MinSessionDuration = 900 * time.Second

	// MaxPresignTTL is the longest lifetime a single upload credential may have.
	MaxPresignTTL = time.Hour
)

// RoleAssumer is the part of the STS client the issuer uses.
type RoleAssumer interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Issuer produces presigned POST credentials for exactly one object key.
//
// Without a role ARN the credential is signed with the base configuration.
// With one, the issuer first assumes the role with a tenant session tag and an
// inline policy that only allows s3:PutObject on the requested key, then signs
// with those scoped credentials.
type Issuer struct {
	awsConfig     aws.Config
	stsClient     RoleAssumer
	roleArn       string
	maxObjectSize int64
	logger        *slog.Logger
	now           func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithTenantRole enables tenant scoping via STS AssumeRole.
func WithTenantRole(stsClient RoleAssumer, roleArn string) Option {
	return func(i *Issuer) {
		i.stsClient = stsClient
		i.roleArn = roleArn
	}
}

// WithMaxObjectSize adds a content-length-range condition to every credential.
func WithMaxObjectSize(n int64) Option {
	return func(i *Issuer) { i.maxObjectSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithClock overrides the time source used for expiry timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an issuer over the given AWS configuration.
func NewIssuer(cfg aws.Config, opts ...Option) *Issuer {
	i := &Issuer{
		awsConfig: cfg,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = log.WithComponent(i.logger, "upload")
	return i
}

// Authorize implements gateway.CredentialIssuer.
func (i *Issuer) Authorize(ctx context.Context, bucket, objectKey string, ttl time.Duration) (*gateway.Credential, error) {
	if err := validate(bucket, objectKey, ttl); err != nil {
		return nil, err
	}

	client, err := i.clientFor(ctx, bucket, objectKey, ttl)
	if err != nil {
		return nil, err
	}

	var conditions []interface{}
	if i.maxObjectSize > 0 {
		conditions = append(conditions, []interface{}{"content-length-range", 1, i.maxObjectSize})
	}

	expiresAt := i.now().UTC().Add(ttl)
	presigned, err := s3.NewPresignClient(client).PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = ttl
		o.Conditions = conditions
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", objectKey, err)
	}

	fields := make(map[string]string, len(presigned.Values))
	for k, v := range presigned.Values {
		fields[k] = v
	}

	i.logger.Debug("presigned upload", "bucket", bucket, "key", objectKey, "scoped", i.roleArn != "")
	return &gateway.Credential{
		URL:       presigned.URL,
		Fields:    fields,
		ExpiresAt: expiresAt,
	}, nil
}

// clientFor returns an S3 client whose credentials are limited to objectKey
// when tenant scoping is enabled.
func (i *Issuer) clientFor(ctx context.Context, bucket, objectKey string, ttl time.Duration) (*s3.Client, error) {
	if i.roleArn == "" || i.stsClient == nil {
		return s3.NewFromConfig(i.awsConfig), nil
	}

	tenantID, _, _ := strings.Cut(objectKey, "/")
	duration := MinSessionDuration
	if ttl > duration {
		duration = ttl
	}

	creds, err := AssumeRoleForTenant(ctx, i.stsClient, i.roleArn, tenantID, ObjectPolicy(bucket, objectKey), int32(duration/time.Second))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(i.awsConfig, func(o *s3.Options) {
		o.Credentials = aws.NewCredentialsCache(
			aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
				return creds, nil
			}),
		)
	}), nil
}

// AssumeRoleForTenant assumes an IAM role with a tenant session tag.
// A non-empty policy further restricts the session to what it allows.
func AssumeRoleForTenant(ctx context.Context, stsClient RoleAssumer, roleArn, tenantID, policy string, durationSeconds int32) (aws.Credentials, error) {
	if tenantID == "" {
		return aws.Credentials{}, fmt.Errorf("tenant ID cannot be empty")
	}
	if roleArn == "" {
		return aws.Credentials{}, fmt.Errorf("role ARN cannot be empty")
	}

	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(sessionName(tenantID)),
		Tags: []types.Tag{
			{
				Key:   aws.String("tenant_id"),
				Value: aws.String(tenantID),
			},
		},
		DurationSeconds: aws.Int32(durationSeconds),
	}
	if policy != "" {
		input.Policy = aws.String(policy)
	}

	out, err := stsClient.AssumeRole(ctx, input)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to assume role for tenant %s: %w", tenantID, err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("assume role for tenant %s returned no credentials", tenantID)
	}

	c := out.Credentials
	return aws.Credentials{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretAccessKey),
		SessionToken:    aws.ToString(c.SessionToken),
		Source:          "AssumeRoleProvider",
		CanExpire:       c.Expiration != nil,
		Expires:         aws.ToTime(c.Expiration),
	}, nil
}

// sessionName builds a RoleSessionName within the STS limits (64 chars of [\w+=,.@-]).
func sessionName(tenantID string) string {
	var b strings.Builder
	for _, r := range tenantID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', strings.ContainsRune("_+=,.@-", r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := fmt.Sprintf("tenant-%s-%d", b.String(), time.Now().Unix())
	if len(name) > 64 {
		name = name[len(name)-64:]
	}
	return name
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// ObjectPolicy returns an IAM session policy allowing uploads to one object only.
func ObjectPolicy(bucket, objectKey string) string {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:   "Allow",
			Action:   []string{"s3:PutObject"},
			Resource: []string{fmt.Sprintf("arn:aws:s3:::%s/%s", bucket, objectKey)},
		}},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

func validate(bucket, objectKey string, ttl time.Duration) error {
	if bucket == "" {
		return gateway.InternalError(fmt.Errorf("upload bucket is not configured"))
	}
	if objectKey == "" || strings.HasPrefix(objectKey, "/") || strings.ContainsAny(objectKey, "\\\x00") {
		return gateway.ValidationError("Invalid object key.")
	}
	for _, seg := range strings.Split(objectKey, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return gateway.ValidationError("Invalid object key.")
		}
	}
	if ttl <= 0 || ttl > MaxPresignTTL {
		return gateway.ValidationError("Upload expiry must be between 1 and %d seconds.", int(MaxPresignTTL/time.Second))
	}
	return nil
}
