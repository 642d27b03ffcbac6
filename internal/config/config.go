package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPresignTTL matches the five minute window the upload client expects.
	DefaultPresignTTL = 300 * time.Second

	// MaxPresignTTL caps how long an upload credential may stay valid.
	MaxPresignTTL = time.Hour

	// DefaultCompletionTTL bounds how long a batch completion mark is kept.
	DefaultCompletionTTL = 24 * time.Hour

	DefaultWorkflowName  = "data_ingestion_workflow"
	DefaultTenantID      = "DEFAULT_TENANT"
	DefaultSourceSystem  = "DEFAULT_SOURCE"
	DefaultCatalogTable  = "sales_and_accounting_raw"
	DefaultListenAddr    = ":8080"
	DefaultSQLitePath    = "./data/completion.db"
	DefaultRedisPrefix   = "ingest:completion:"
	DefaultCompletionTbl = "ingest-batch-completion"
)

// Completion store backends.
const (
	StoreDynamoDB = "dynamodb"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config is the single explicit configuration passed to every component constructor.
type Config struct {
	Region       string        `yaml:"region"`
	Bucket       string        `yaml:"bucket"`
	WorkflowName string        `yaml:"workflow_name"`
	PresignTTL   time.Duration `yaml:"presign_ttl"`

	// TenantRoleARN enables per-object STS scoping of upload credentials when set.
	TenantRoleARN string `yaml:"tenant_role_arn"`

	DefaultTenantID     string `yaml:"default_tenant_id"`
	DefaultSourceSystem string `yaml:"default_source_system"`

	Completion CompletionConfig `yaml:"completion"`

	LogLevel   string `yaml:"log_level"`
	ListenAddr string `yaml:"listen_addr"`

	// AllowedIssuers is the OIDC issuer allow-list used by the authorizer.
	AllowedIssuers []string `yaml:"allowed_issuers"`

	// CognitoClientID is used by the upload client to log in.
	CognitoClientID string `yaml:"cognito_client_id"`
	// StackName locates per-tenant user pools when no client id is configured.
	StackName string `yaml:"stack_name"`

	CatalogTable string `yaml:"catalog_table"`
}

// CompletionConfig selects and parameterises the completion-state store.
type CompletionConfig struct {
	Store       string        `yaml:"store"`
	Table       string        `yaml:"table"`
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
	SQLitePath  string        `yaml:"sqlite_path"`
}

// Defaults returns a Config with every optional field populated.
func Defaults() Config {
	return Config{
		WorkflowName:        DefaultWorkflowName,
		PresignTTL:          DefaultPresignTTL,
		DefaultTenantID:     DefaultTenantID,
		DefaultSourceSystem: DefaultSourceSystem,
		Completion: CompletionConfig{
			Store:       StoreDynamoDB,
			Table:       DefaultCompletionTbl,
			TTL:         DefaultCompletionTTL,
			RedisPrefix: DefaultRedisPrefix,
			SQLitePath:  DefaultSQLitePath,
		},
		LogLevel:     "INFO",
		ListenAddr:   DefaultListenAddr,
		CatalogTable: DefaultCatalogTable,
	}
}

// FromEnv builds a Config from defaults overlaid with the process environment.
func FromEnv() (*Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a YAML file on top of the defaults, then overlays the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("AWS_REGION", &cfg.Region)
	str("S3_TARGET_BUCKET", &cfg.Bucket)
	str("GLUE_WORKFLOW_NAME", &cfg.WorkflowName)
	str("TENANT_ACCESS_ROLE_ARN", &cfg.TenantRoleARN)
	str("DEFAULT_TENANT_ID", &cfg.DefaultTenantID)
	str("DEFAULT_SOURCE_SYSTEM", &cfg.DefaultSourceSystem)
	str("COMPLETION_STORE", &cfg.Completion.Store)
	str("COMPLETION_TABLE", &cfg.Completion.Table)
	str("REDIS_ADDR", &cfg.Completion.RedisAddr)
	str("REDIS_PREFIX", &cfg.Completion.RedisPrefix)
	str("SQLITE_PATH", &cfg.Completion.SQLitePath)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("COGNITO_CLIENT_ID", &cfg.CognitoClientID)
	str("STACK_NAME", &cfg.StackName)
	str("CATALOG_TABLE", &cfg.CatalogTable)

	if v, ok := lookup("PRESIGN_TTL_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PRESIGN_TTL_SECONDS %q: %w", v, err)
		}
		cfg.PresignTTL = time.Duration(n) * time.Second
	}
	if v, ok := lookup("COMPLETION_TTL_HOURS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COMPLETION_TTL_HOURS %q: %w", v, err)
		}
		cfg.Completion.TTL = time.Duration(n) * time.Hour
	}
	if v, ok := lookup("ALLOWED_ISSUERS"); ok && v != "" {
		cfg.AllowedIssuers = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings the gateway cannot run without.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("S3_TARGET_BUCKET is not set")
	}
	if c.PresignTTL <= 0 || c.PresignTTL > MaxPresignTTL {
		return fmt.Errorf("presign ttl must be between 1s and %v, got %v", MaxPresignTTL, c.PresignTTL)
	}
	if c.Completion.TTL <= 0 {
		return fmt.Errorf("completion ttl must be positive, got %v", c.Completion.TTL)
	}

	switch c.Completion.Store {
	case StoreDynamoDB:
		if c.Completion.Table == "" {
			return fmt.Errorf("COMPLETION_TABLE is required for the dynamodb store")
		}
	case StoreRedis:
		if c.Completion.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreSQLite:
		if c.Completion.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown completion store %q", c.Completion.Store)
	}
	return nil
}
