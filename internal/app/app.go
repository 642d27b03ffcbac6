// Package app builds the gateway from configuration. It is shared by the
// Lambda entrypoint and the local server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stefando/ingestGatewayAWS/internal/api"
	"github.com/stefando/ingestGatewayAWS/internal/completion"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
	"github.com/stefando/ingestGatewayAWS/internal/upload"
	"github.com/stefando/ingestGatewayAWS/internal/workflow"
)

// Gateway is a fully wired gateway service and its HTTP router.
type Gateway struct {
	Service *gateway.Service
	Router  *chi.Mux
	close   func() error
}

// Close releases the completion store.
func (g *Gateway) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// LoadAWSConfig loads the default AWS configuration, pinned to region when set.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewGateway wires issuer, completion detector and workflow dispatcher from cfg.
func NewGateway(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = log.OrDefault(logger)

	issuerOpts := []upload.Option{upload.WithLogger(logger)}
	if cfg.TenantRoleARN != "" {
		issuerOpts = append(issuerOpts, upload.WithTenantRole(sts.NewFromConfig(awsCfg), cfg.TenantRoleARN))
	}
	issuer := upload.NewIssuer(awsCfg, issuerOpts...)

	store, closeStore, err := NewCompletionStore(ctx, cfg.Completion, awsCfg)
	if err != nil {
		return nil, err
	}
	detector := completion.NewDetector(store, cfg.Completion.TTL, logger)
	dispatcher := workflow.NewGlueDispatcher(glue.NewFromConfig(awsCfg), logger)

	svc := gateway.NewService(gateway.Config{
		Bucket:       cfg.Bucket,
		WorkflowName: cfg.WorkflowName,
		PresignTTL:   cfg.PresignTTL,
		Defaults: gateway.Defaults{
			TenantID:     cfg.DefaultTenantID,
			SourceSystem: cfg.DefaultSourceSystem,
		},
	}, issuer, detector, dispatcher, logger)

	logger.Info("gateway initialized",
		"bucket", cfg.Bucket,
		"workflow", cfg.WorkflowName,
		"completion_store", cfg.Completion.Store,
		"tenant_scoping", cfg.TenantRoleARN != "",
	)
	return &Gateway{
		Service: svc,
		Router:  api.NewRouter(svc, logger),
		close:   closeStore,
	}, nil
}

// NewCompletionStore opens the completion store selected by cc.Store.
// The returned func closes it.
func NewCompletionStore(ctx context.Context, cc config.CompletionConfig, awsCfg aws.Config) (completion.Store, func() error, error) {
	noop := func() error { return nil }

	switch cc.Store {
	case config.StoreDynamoDB:
		return completion.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cc.Table), noop, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cc.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cc.RedisAddr, err)
		}
		return completion.NewRedisStore(client, cc.RedisPrefix), client.Close, nil

	case config.StoreSQLite:
		store, err := completion.OpenSQLite(ctx, cc.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.StoreMemory:
		return completion.NewMemoryStore(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown completion store %q", cc.Store)
	}
}
