package shared

import (
	"net/http"

	"hradmin/internal/domain/audit"
	"hradmin/internal/platform/logger"
	"hradmin/internal/platform/requestctx"
	"hradmin/internal/transport/http/middleware"
)

// RecordAudit stores an audit entry for a mutation that already succeeded.
// A failed write is logged and never fails the request.
func RecordAudit(r *http.Request, recorder audit.Recorder, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	ctx := r.Context()
	actorID := ""
	if user, ok := middleware.GetUser(ctx); ok {
		actorID = user.UserID
	}
	entry := audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		IP:         requestctx.GetClientIP(ctx),
		Before:     before,
		After:      after,
	}
	if err := recorder.Record(ctx, entry); err != nil {
		logger.From(ctx).Warn("audit write failed", "action", action, "entityId", entityID, "err", err)
	}
}
