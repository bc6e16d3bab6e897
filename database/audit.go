package database

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

// RecordAuditEvent appends one terminal pipeline action to the audit trail.
func (d Datasource) RecordAuditEvent(ctx context.Context, event *model.AuditEvent) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving audit event to db")
	defer span.End()

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal audit payload", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO audit_events (id, entity_type, entity_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.EntityType, event.EntityID, event.Action, payloadJSON, event.CreatedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record audit event", err)
	}
	return nil
}
