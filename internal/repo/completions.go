package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"teamtask/internal/domain"
)

const completionColumns = `tc.id,tc.assignment_id,tc.task_template_id,tc.user_id,tc.completed_at,tc.updated_at`

// UpsertCompletion writes the user's mark for one task item of one assignment.
// The unique (assignment, task, user) key turns a repeated write into an
// update, so concurrent toggles never produce a second row.
func (r Repo) UpsertCompletion(ctx context.Context, tx *sqlx.Tx, c domain.Completion) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO task_completions(id,assignment_id,task_template_id,user_id,completed_at,updated_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT(assignment_id,task_template_id,user_id) DO UPDATE SET completed_at=excluded.completed_at, updated_at=excluded.updated_at`,
		c.ID, c.AssignmentID, c.TaskTemplateID, c.UserID, nullableStringPtr(c.CompletedAt), c.UpdatedAt)
	return err
}

func (r Repo) GetCompletion(ctx context.Context, tx *sqlx.Tx, assignmentID, taskTemplateID, userID string) (domain.Completion, error) {
	var c domain.Completion
	err := get(ctx, r.q(tx), &c, `SELECT `+completionColumns+` FROM task_completions tc
WHERE tc.assignment_id=? AND tc.task_template_id=? AND tc.user_id=?`, assignmentID, taskTemplateID, userID)
	return c, err
}

// ListCompletions returns the marks recorded against an assignment of the
// company, optionally narrowed to one user, in task display order.
func (r Repo) ListCompletions(ctx context.Context, companyID, assignmentID, userID string) ([]domain.CompletionView, error) {
	query := `SELECT ` + completionColumns + `, tt.title AS task_title, tt.sort_order
FROM task_completions tc
JOIN task_assignments ta ON ta.id = tc.assignment_id AND ta.company_id = ?
JOIN task_templates tt ON tt.id = tc.task_template_id
WHERE tc.assignment_id = ?`
	args := []any{companyID, assignmentID}
	if userID != "" {
		query += ` AND tc.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY tt.sort_order, tt.id, tc.user_id`
	res := []domain.CompletionView{}
	err := selectAll(ctx, r.DB, &res, query, args...)
	return res, err
}
