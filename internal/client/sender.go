// Package client uploads a folder of extracted files through the gateway as one batch.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// Config describes where and as whom files are sent.
type Config struct {
	Endpoint     string // full presigned-urls URL, e.g. https://api.example.com/v1/presigned-urls
	TenantID     string
	SourceSystem string
	APIKey       string // sent as x-api-key when set
	Token        string // bearer token for the authorizer when set
	Keep         bool   // keep local files after a successful upload
}

// FileResult is the outcome for one file.
type FileResult struct {
	Name    string
	IsLast  bool
	Status  int // upload status code, 0 when the upload was never attempted
	Deleted bool
	Err     error
}

// Report summarizes one SendDir run.
type Report struct {
	BatchID string
	Files   []FileResult
}

// Failed returns the number of files that were not uploaded.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Sender requests upload credentials from the gateway and posts files to storage.
type Sender struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	newBatchID func() string
}

func NewSender(cfg Config, httpClient *http.Client, logger *slog.Logger) *Sender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Sender{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log.WithComponent(logger, "client"),
		newBatchID: uuid.NewString,
	}
}

// SendDir uploads every regular file in dir, in name order, as one batch.
// Only the final file carries the last-file signal. A failure on one file is
// recorded in the report and the run continues with the next file.
func (s *Sender) SendDir(ctx context.Context, dir string) (*Report, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{BatchID: s.newBatchID()}
	if len(files) == 0 {
		s.logger.Warn("no files found to upload", "dir", dir)
		return report, nil
	}

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		isLast := i == len(files)-1
		res := s.sendFile(ctx, filepath.Join(dir, name), name, isLast, report.BatchID)
		report.Files = append(report.Files, res)

		logger := s.logger.With("file", name, "position", i+1, "total", len(files), "is_last", isLast)
		if res.Err != nil {
			logger.Error("file upload failed", "error", res.Err)
			continue
		}
		logger.Info("file uploaded", "status", res.Status, "deleted", res.Deleted)
	}
	return report, nil
}

func (s *Sender) sendFile(ctx context.Context, path, name string, isLast bool, batchID string) FileResult {
	res := FileResult{Name: name, IsLast: isLast}

	cred, err := s.RequestCredential(ctx, name, isLast, batchID)
	if err != nil {
		res.Err = err
		return res
	}

	res.Status, err = s.Upload(ctx, cred, path)
	if err != nil {
		res.Err = err
		return res
	}

	if !s.cfg.Keep {
		if err := os.Remove(path); err != nil {
			res.Err = fmt.Errorf("uploaded but failed to delete %s: %w", path, err)
			return res
		}
		res.Deleted = true
	}
	return res
}

// RequestCredential asks the gateway for an upload credential for fileName.
func (s *Sender) RequestCredential(ctx context.Context, fileName string, isLast bool, batchID string) (*gateway.Credential, error) {
	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", s.cfg.Endpoint, err)
	}
	q := u.Query()
	q.Set("file_name", fileName)
	q.Set("is_last", lastFlag(isLast))
	if s.cfg.TenantID != "" {
		q.Set("tenant_id", s.cfg.TenantID)
	}
	if s.cfg.SourceSystem != "" {
		q.Set("source_system", s.cfg.SourceSystem)
	}
	if batchID != "" {
		q.Set("batch_id", batchID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("x-api-key", s.cfg.APIKey)
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request presigned url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read presigned url response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
			return nil, fmt.Errorf("presigned url request failed (status %d): %s", resp.StatusCode, msg.Message)
		}
		return nil, fmt.Errorf("presigned url request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cred gateway.Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("decode presigned url response: %w", err)
	}
	if cred.URL == "" {
		return nil, fmt.Errorf("presigned url response has no url")
	}
	return &cred, nil
}

// Upload posts the file at path to the storage endpoint named in cred.
// Storage answers a successful POST with 204 No Content.
func (s *Sender) Upload(ctx context.Context, cred *gateway.Credential, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(cred.Fields))
	for k := range cred.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, cred.Fields[k]); err != nil {
			return 0, err
		}
	}
	// The file must be the last field of the form.
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cred.URL, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("upload %s failed (status %d): %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.StatusCode, nil
}

// listFiles returns the names of regular files in dir, sorted.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func lastFlag(isLast bool) string {
	if isLast {
		return "True"
	}
	return "False"
}
