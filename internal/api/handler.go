package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
)

// handlePresignedURLs issues an upload credential for the file named in the query.
func handlePresignedURLs(h UploadHandler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := inputFromQuery(r.URL.Query())
		if tenantID, ok := GetTenantID(r.Context()); ok {
			in.AuthorizedTenant = tenantID
		}

		res, err := h.Handle(r.Context(), in)
		if err != nil {
			status := gateway.StatusCode(err)
			if status >= http.StatusInternalServerError {
				logger.Error("presigned url request failed",
					"request_id", middleware.GetReqID(r.Context()),
					"kind", gateway.KindOf(err).String(),
					"error", err,
				)
			}
			writeMessage(w, status, gateway.PublicMessage(err))
			return
		}

		writeJSON(w, http.StatusOK, res.Credential)
	}
}

func inputFromQuery(q url.Values) gateway.Input {
	isLast := q.Get("is_last")
	if isLast == "" {
		isLast = q.Get("last_file")
	}
	return gateway.Input{
		TenantID:     q.Get("tenant_id"),
		FileName:     q.Get("file_name"),
		SourceSystem: q.Get("source_system"),
		IsLast:       isLast,
		BatchID:      q.Get("batch_id"),
	}
}
