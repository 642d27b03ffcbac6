package gateway

import (
	"strconv"
	"strings"
	"time"
)

// MissingFileNameMessage is returned when the request carries no file_name.
const MissingFileNameMessage = "Missing file_name parameter."

// Input is the raw, unvalidated request as it arrives at the boundary.
type Input struct {
	TenantID     string
	FileName     string
	SourceSystem string
	IsLast       string
	BatchID      string

	// AuthorizedTenant is the tenant bound to the caller's token, if any.
	AuthorizedTenant string
}

// UploadRequest is a validated request. Build it with Defaults.Parse.
type UploadRequest struct {
	TenantID     string
	FileName     string
	SourceSystem string
	IsLast       bool
	BatchID      string
}

// Defaults are the sentinel values used for absent routing fields.
type Defaults struct {
	TenantID     string
	SourceSystem string
}

// Parse validates in and fills absent tenant/source fields with the sentinels.
// now supplies the batch marker when the client sent no batch_id.
func (d Defaults) Parse(in Input, now time.Time) (UploadRequest, error) {
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return UploadRequest{}, ValidationError(MissingFileNameMessage)
	}

	tenant := strings.TrimSpace(in.TenantID)
	authorized := strings.TrimSpace(in.AuthorizedTenant)
	switch {
	case tenant == "" && authorized != "":
		tenant = authorized
	case tenant != "" && authorized != "" && tenant != authorized:
		return UploadRequest{}, ValidationError("tenant_id does not match the authorized tenant.")
	case tenant == "":
		tenant = d.TenantID
	}

	source := strings.TrimSpace(in.SourceSystem)
	if source == "" {
		source = d.SourceSystem
	}

	isLast := false
	if v := strings.TrimSpace(in.IsLast); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return UploadRequest{}, ValidationError("Invalid is_last value %q.", v)
		}
		isLast = b
	}

	batchID := strings.TrimSpace(in.BatchID)
	if batchID == "" {
		batchID = now.UTC().Format("2006-01-02")
	}

	fields := []struct {
		name, value string
		keyPart     bool
	}{
		{"tenant_id", tenant, true},
		{"source_system", source, true},
		{"batch_id", batchID, true},
		{"file_name", fileName, false},
	}
	for _, f := range fields {
		if !isSafeSegment(f.value, f.keyPart) {
			return UploadRequest{}, ValidationError("Invalid %s parameter.", f.name)
		}
	}

	return UploadRequest{
		TenantID:     tenant,
		FileName:     fileName,
		SourceSystem: source,
		IsLast:       isLast,
		BatchID:      batchID,
	}, nil
}

// isSafeSegment reports whether v can be used as a single object key segment.
// Batch key parts additionally may not contain the '#' separator.
func isSafeSegment(v string, keyPart bool) bool {
	if v == "" || v == "." || v == ".." {
		return false
	}
	if strings.ContainsAny(v, "/\\\x00") {
		return false
	}
	return !keyPart || !strings.Contains(v, "#")
}

// ObjectKey is the landing-zone key for the uploaded file.
func (r UploadRequest) ObjectKey() string {
	return r.TenantID + "/raw_data/" + r.SourceSystem + "/" + r.FileName
}

// BatchKey identifies the logical batch this file belongs to.
func (r UploadRequest) BatchKey() string {
	return r.TenantID + "#" + r.SourceSystem + "#" + r.BatchID
}

// WorkflowParams are the run properties handed to the downstream workflow.
func (r UploadRequest) WorkflowParams() map[string]string {
	return map[string]string{
		"tenant_id":     r.TenantID,
		"source_system": r.SourceSystem,
		"batch_id":      r.BatchID,
		"batch_key":     r.BatchKey(),
		"object_key":    r.ObjectKey(),
	}
}
