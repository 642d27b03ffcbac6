package gateway_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("AccessDenied")
	tests := []struct {
		name    string
		err     error
		kind    gateway.ErrorKind
		status  int
		message string
	}{
		{"validation", gateway.ValidationError("Missing file_name parameter."), gateway.KindValidation, http.StatusBadRequest, "Missing file_name parameter."},
		{"authorization", gateway.AuthorizationError(cause), gateway.KindAuthorization, http.StatusInternalServerError, "Failed to generate upload URL."},
		{"dispatch", gateway.DispatchError("workflow rejected", cause), gateway.KindDispatch, http.StatusInternalServerError, "workflow rejected"},
		{"internal", gateway.InternalError(cause), gateway.KindInternal, http.StatusInternalServerError, "Internal Server Error"},
		{"foreign", cause, gateway.KindInternal, http.StatusInternalServerError, "Internal Server Error"},
		{"wrapped", fmt.Errorf("handler: %w", gateway.ValidationError("bad")), gateway.KindValidation, http.StatusBadRequest, "bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, gateway.KindOf(tt.err))
			assert.Equal(t, tt.status, gateway.StatusCode(tt.err))
			assert.Equal(t, tt.message, gateway.PublicMessage(tt.err))
		})
	}
	assert.Equal(t, http.StatusOK, gateway.StatusCode(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := gateway.AuthorizationError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "NOT_COMPLETE", gateway.NotComplete.String())
	assert.Equal(t, "FIRST_COMPLETION", gateway.FirstCompletion.String())
	assert.Equal(t, "ALREADY_COMPLETED", gateway.AlreadyCompleted.String())
}
