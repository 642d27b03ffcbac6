package transform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/stefando/ingestGatewayAWS/internal/log"
	"github.com/stefando/ingestGatewayAWS/internal/rawdata"
)

// S3API is the part of the S3 client the job uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CleanPrefix is where a tenant's clean parquet output lands.
func CleanPrefix(tenantID string) string {
	return "clean_data/" + strings.ToLower(tenantID) + "/"
}

// JobResult describes one transform run.
type JobResult struct {
	Sources   []string
	OutputKey string // empty when no row survived cleaning
	Stats     Stats
}

// Job cleans every CSV object of one catalog table and writes a single parquet file.
type Job struct {
	client S3API
	bucket string
	tmpDir string
	logger *slog.Logger
	now    func() time.Time
}

func NewJob(client S3API, bucket, tmpDir string, logger *slog.Logger) *Job {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Job{
		client: client,
		bucket: bucket,
		tmpDir: tmpDir,
		logger: log.WithComponent(logger, "transform"),
		now:    time.Now,
	}
}

// Run reads {tenant}/data_catalog/{table}/ and writes clean_data/{tenant}/{table}-{date}-{id}.parquet.
func (j *Job) Run(ctx context.Context, tenantID, table string, skipRows int) (*JobResult, error) {
	if tenantID == "" || table == "" {
		return nil, fmt.Errorf("tenant and table are required")
	}

	processed := j.now().UTC().Format("2006-01-02")
	opts := CleanOptions{ClientID: tenantID, ProcessedDate: processed, SkipRows: skipRows}
	prefix := rawdata.CatalogPrefix(tenantID) + table + "/"
	res := &JobResult{}

	logger := j.logger.With(slog.String("tenant_id", tenantID), slog.String("table", table))
	logger.Info("reading catalog table", "bucket", j.bucket, "prefix", prefix)

	var rows []Row
	paginator := s3.NewListObjectsV2Paginator(j.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(j.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			got, stats, err := j.cleanObject(ctx, key, opts)
			if err != nil {
				return nil, err
			}
			rows = append(rows, got...)
			res.Sources = append(res.Sources, key)
			res.Stats.add(stats)
		}
	}

	if res.Stats.Dropped > 0 {
		logger.Warn("dropped rows failing order value validation", "dropped", res.Stats.Dropped)
	}
	if len(rows) == 0 {
		logger.Warn("no rows to write", "sources", len(res.Sources))
		return res, nil
	}

	name := fmt.Sprintf("%s-%s-%s.parquet", table, processed, uuid.NewString())
	local := filepath.Join(j.tmpDir, name)
	if err := WriteParquet(local, rows); err != nil {
		return nil, err
	}
	defer os.Remove(local)

	key := CleanPrefix(tenantID) + name
	if err := j.upload(ctx, local, key, len(rows)); err != nil {
		return nil, err
	}
	res.OutputKey = key

	logger.Info("wrote clean data", "key", key, "rows", len(rows), "sources", len(res.Sources))
	return res, nil
}

func (j *Job) cleanObject(ctx context.Context, key string, opts CleanOptions) ([]Row, Stats, error) {
	out, err := j.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	rows, stats, err := Clean(out.Body, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("clean %s: %w", path.Base(key), err)
	}
	return rows, stats, nil
}

func (j *Job) upload(ctx context.Context, local, key string, records int) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open temp file for upload: %w", err)
	}
	defer f.Close()

	_, err = j.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(j.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.apache.parquet"),
		Metadata: map[string]string{
			"record-count": strconv.Itoa(records),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}
