package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// writeAudit records an admin mutation. Failures are logged and never fail the mutation.
func writeAudit(ctx context.Context, w auditWriter, logger *zap.Logger, actor models.Actor, action, resource, resourceID string, oldValues, newValues map[string]interface{}) {
	if w == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if actor.UserID != "" {
		entry.UserID = &actor.UserID
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := w.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("write audit log failed", zap.String("action", action), zap.Error(err))
	}
}
