package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Event types appended by the engine.
const (
	TemplateCreated   = "template.created"
	TemplateUpdated   = "template.updated"
	TemplateDeleted   = "template.deleted"
	TaskItemCreated   = "task_item.created"
	TaskItemUpdated   = "task_item.updated"
	TaskItemDeleted   = "task_item.deleted"
	AssignmentCreated = "assignment.created"
	AssignmentDeleted = "assignment.deleted"
	CompletionSet     = "completion.set"
	APIKeyCreated     = "api_key.created"
	APIKeyDeleted     = "api_key.deleted"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Append records an audit event inside the caller's transaction so the event
// commits or rolls back with the write it describes.
func (w Writer) Append(ctx context.Context, tx *sqlx.Tx, evtType, companyID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO events(ts,type,company_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`),
		ts, evtType, companyID, entityKind, entityID, actorID, string(data))
	return err
}
