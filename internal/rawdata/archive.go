// Package rawdata organizes a tenant's landing zone after a batch completes.
//
// Every object under {tenant}/raw_data/ is copied twice:
//
//	{tenant}/historical_raw_data/{YYYY_MM_DD_HH}/{source}/{file}   audit trail
//	{tenant}/data_catalog/{table}/{source}_{file}                  crawler layout, table = file name without extension
//
// The source prefix keeps same-named files from different source systems
// apart. Originals are left in place.
package rawdata

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// TimestampLayout names the historical archive folders.
const TimestampLayout = "2006_01_02_15"

// S3API is the part of the S3 client the archiver uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// Copy records one source object and where it was copied to.
type Copy struct {
	SourceKey  string
	Source     string // source system folder, empty for files directly under raw_data/
	HistoryKey string
	CatalogKey string
	Table      string
}

// Result summarizes an archive run.
type Result struct {
	Timestamp string
	Copies    []Copy
}

type Archiver struct {
	client S3API
	bucket string
	logger *slog.Logger
	now    func() time.Time
}

func NewArchiver(client S3API, bucket string, logger *slog.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		logger: log.WithComponent(logger, "rawdata"),
		now:    time.Now,
	}
}

// RawPrefix, HistoryPrefix and CatalogPrefix are the tenant's storage areas.
func RawPrefix(tenantID string) string     { return tenantID + "/raw_data/" }
func HistoryPrefix(tenantID string) string { return tenantID + "/historical_raw_data/" }
func CatalogPrefix(tenantID string) string { return tenantID + "/data_catalog/" }

// Archive copies the tenant's raw objects into the history and catalog areas.
// The first failed copy aborts the run.
func (a *Archiver) Archive(ctx context.Context, tenantID string) (*Result, error) {
	if tenantID == "" || strings.Contains(tenantID, "/") {
		return nil, fmt.Errorf("invalid tenant id %q", tenantID)
	}

	res := &Result{Timestamp: a.now().UTC().Format(TimestampLayout)}
	prefix := RawPrefix(tenantID)
	a.logger.Info("starting raw data management", "tenant_id", tenantID, "bucket", a.bucket, "prefix", prefix)

	seen := make(map[string]string)
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}

			c := catalogCopy(tenantID, res.Timestamp, key)
			if prev, ok := seen[c.CatalogKey]; ok {
				return res, fmt.Errorf("%s and %s both map to %s", prev, key, c.CatalogKey)
			}
			seen[c.CatalogKey] = key

			if err := a.copyObject(ctx, c.SourceKey, c.HistoryKey); err != nil {
				return res, err
			}
			if err := a.copyObject(ctx, c.SourceKey, c.CatalogKey); err != nil {
				return res, err
			}
			res.Copies = append(res.Copies, c)
		}
	}

	if len(res.Copies) == 0 {
		a.logger.Warn("no files found in raw path", "prefix", prefix)
	} else {
		a.logger.Info("raw data management completed", "tenant_id", tenantID, "files", len(res.Copies))
	}
	return res, nil
}

// catalogCopy derives the history and catalog keys for one raw object.
func catalogCopy(tenantID, timestamp, key string) Copy {
	rel := strings.TrimPrefix(key, RawPrefix(tenantID))
	fileName := path.Base(rel)
	table := strings.TrimSuffix(fileName, path.Ext(fileName))

	c := Copy{
		SourceKey:  key,
		HistoryKey: HistoryPrefix(tenantID) + timestamp + "/" + rel,
		Table:      table,
	}
	catalogName := fileName
	if dir := path.Dir(rel); dir != "." {
		c.Source = dir
		catalogName = strings.ReplaceAll(dir, "/", "_") + "_" + fileName
	}
	c.CatalogKey = CatalogPrefix(tenantID) + table + "/" + catalogName
	return c
}

func (a *Archiver) copyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := a.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(a.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(a.bucket, srcKey)),
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcKey, dstKey, err)
	}
	a.logger.Debug("copied object", "from", srcKey, "to", dstKey)
	return nil
}

// copySource builds the URL-encoded bucket/key form CopyObject expects.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
