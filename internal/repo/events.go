package repo

import (
	"context"

	"teamtask/internal/domain"
)

// LatestEvents returns the company's most recent audit events, newest first.
func (r Repo) LatestEvents(ctx context.Context, companyID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	res := []domain.Event{}
	err := selectAll(ctx, r.DB, &res, `SELECT id,ts,type,company_id,entity_kind,entity_id,actor_id,payload_json
FROM events WHERE company_id=? ORDER BY id DESC LIMIT ?`, companyID, limit)
	return res, err
}
