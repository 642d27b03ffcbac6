package gateway_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
)

var defaults = gateway.Defaults{TenantID: "DEFAULT_TENANT", SourceSystem: "DEFAULT_SOURCE"}

var fixedNow = time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

func TestParseBuildsObjectKey(t *testing.T) {
	req, err := defaults.Parse(gateway.Input{
		TenantID:     "T1",
		FileName:     "sales.csv",
		SourceSystem: "ERP",
		IsLast:       "False",
	}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "T1/raw_data/ERP/sales.csv", req.ObjectKey())
	assert.False(t, req.IsLast)
	assert.Equal(t, "T1#ERP#2026-03-14", req.BatchKey())
}

func TestParseObjectKeyIsDeterministic(t *testing.T) {
	inputs := []gateway.Input{
		{TenantID: "acme", FileName: "a.csv", SourceSystem: "sap"},
		{TenantID: "4097bdae-065c", FileName: "customer_masters.csv", SourceSystem: "Zucchetti_System"},
		{TenantID: "t", FileName: "report #3.csv", SourceSystem: "s"},
	}
	for _, in := range inputs {
		a, err := defaults.Parse(in, fixedNow)
		require.NoError(t, err)
		b, err := defaults.Parse(in, fixedNow.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, in.TenantID+"/raw_data/"+in.SourceSystem+"/"+in.FileName, a.ObjectKey())
		assert.Equal(t, a.ObjectKey(), b.ObjectKey())
	}
}

func TestParseDefaults(t *testing.T) {
	req, err := defaults.Parse(gateway.Input{FileName: "x.csv"}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "DEFAULT_TENANT", req.TenantID)
	assert.Equal(t, "DEFAULT_SOURCE", req.SourceSystem)
	assert.False(t, req.IsLast)
	assert.Equal(t, "2026-03-14", req.BatchID)
}

func TestParseBatchIDFromClient(t *testing.T) {
	req, err := defaults.Parse(gateway.Input{TenantID: "T1", FileName: "x.csv", SourceSystem: "ERP", BatchID: "run-42"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "T1#ERP#run-42", req.BatchKey())
}

func TestParseIsLast(t *testing.T) {
	for _, v := range []string{"True", "true", "TRUE", "1"} {
		req, err := defaults.Parse(gateway.Input{FileName: "x.csv", IsLast: v}, fixedNow)
		require.NoError(t, err, v)
		assert.True(t, req.IsLast, v)
	}
	for _, v := range []string{"False", "false", "0", ""} {
		req, err := defaults.Parse(gateway.Input{FileName: "x.csv", IsLast: v}, fixedNow)
		require.NoError(t, err, v)
		assert.False(t, req.IsLast, v)
	}

	_, err := defaults.Parse(gateway.Input{FileName: "x.csv", IsLast: "maybe"}, fixedNow)
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
}

func TestParseMissingFileName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		_, err := defaults.Parse(gateway.Input{TenantID: "T1", FileName: name}, fixedNow)
		require.Error(t, err)
		assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
		assert.Contains(t, gateway.PublicMessage(err), "Missing file_name")
	}
}

func TestParseRejectsPathEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   gateway.Input
		want string
	}{
		{"dotdot file", gateway.Input{FileName: ".."}, "file_name"},
		{"slash in file", gateway.Input{FileName: "../other/x.csv"}, "file_name"},
		{"backslash in file", gateway.Input{FileName: `a\b.csv`}, "file_name"},
		{"slash in tenant", gateway.Input{TenantID: "T1/raw_data", FileName: "x.csv"}, "tenant_id"},
		{"dotdot tenant", gateway.Input{TenantID: "..", FileName: "x.csv"}, "tenant_id"},
		{"slash in source", gateway.Input{SourceSystem: "ERP/x", FileName: "x.csv"}, "source_system"},
		{"hash in source", gateway.Input{SourceSystem: "ERP#1", FileName: "x.csv"}, "source_system"},
		{"hash in batch", gateway.Input{BatchID: "a#b", FileName: "x.csv"}, "batch_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := defaults.Parse(tt.in, fixedNow)
			require.Error(t, err)
			assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
			assert.Contains(t, gateway.PublicMessage(err), tt.want)
		})
	}
}

func TestParseAuthorizedTenant(t *testing.T) {
	req, err := defaults.Parse(gateway.Input{FileName: "x.csv", AuthorizedTenant: "acme"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "acme", req.TenantID)

	req, err = defaults.Parse(gateway.Input{TenantID: "acme", FileName: "x.csv", AuthorizedTenant: "acme"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "acme", req.TenantID)

	_, err = defaults.Parse(gateway.Input{TenantID: "globex", FileName: "x.csv", AuthorizedTenant: "acme"}, fixedNow)
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
}

func TestWorkflowParams(t *testing.T) {
	req, err := defaults.Parse(gateway.Input{TenantID: "T1", FileName: "x.csv", SourceSystem: "ERP", BatchID: "b1"}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"tenant_id":     "T1",
		"source_system": "ERP",
		"batch_id":      "b1",
		"batch_key":     "T1#ERP#b1",
		"object_key":    "T1/raw_data/ERP/x.csv",
	}, req.WorkflowParams())
}
