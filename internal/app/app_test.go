package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/ingestGatewayAWS/internal/completion"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

func testAWSConfig() aws.Config {
	return aws.Config{
		Region:      "eu-central-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Bucket = "ingest-landing"
	cfg.Completion.Store = config.StoreMemory
	return &cfg
}

func TestNewGatewayServesPresignedURLs(t *testing.T) {
	gw, err := NewGateway(context.Background(), testConfig(), testAWSConfig(), log.Discard())
	require.NoError(t, err)
	defer gw.Close()

	rec := httptest.NewRecorder()
	gw.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presigned-urls?tenant_id=T1&file_name=sales.csv&source_system=ERP&is_last=False", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"key":"T1/raw_data/ERP/sales.csv"`)

	rec = httptest.NewRecorder()
	gw.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presigned-urls?tenant_id=T1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewGatewayRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = ""
	_, err := NewGateway(context.Background(), cfg, testAWSConfig(), log.Discard())
	assert.Error(t, err)
}

func TestNewCompletionStore(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := NewCompletionStore(ctx, config.CompletionConfig{Store: config.StoreMemory}, testAWSConfig())
	require.NoError(t, err)
	assert.IsType(t, &completion.MemoryStore{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = NewCompletionStore(ctx, config.CompletionConfig{
		Store:      config.StoreSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "completion.db"),
	}, testAWSConfig())
	require.NoError(t, err)
	assert.IsType(t, &completion.SQLiteStore{}, store)
	assert.NoError(t, closeFn())

	store, _, err = NewCompletionStore(ctx, config.CompletionConfig{Store: config.StoreDynamoDB, Table: "t"}, testAWSConfig())
	require.NoError(t, err)
	assert.IsType(t, &completion.DynamoStore{}, store)

	_, _, err = NewCompletionStore(ctx, config.CompletionConfig{Store: config.StoreRedis, RedisAddr: "127.0.0.1:1"}, testAWSConfig())
	assert.Error(t, err)

	_, _, err = NewCompletionStore(ctx, config.CompletionConfig{Store: "etcd"}, testAWSConfig())
	assert.Error(t, err)
}
