package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"teamtask/internal/domain"
)

const assignmentColumns = `ta.id,ta.company_id,ta.template_id,ta.assigned_date,ta.assignee_id,ta.scheduled,ta.created_at`

// EnsureScheduledAssignment inserts the scheduled occurrence of a template on a
// date unless one already exists. The partial unique index on
// (template_id, assigned_date) makes the insert a no-op for the loser of a race,
// so callers never check-then-insert. Reports whether a row was created.
func (r Repo) EnsureScheduledAssignment(ctx context.Context, tx *sqlx.Tx, a domain.Assignment) (bool, error) {
	q := r.q(tx)
	res, err := q.ExecContext(ctx, q.Rebind(`INSERT INTO task_assignments(id,company_id,template_id,assigned_date,assignee_id,scheduled,created_at)
VALUES (?,?,?,?,NULL,1,?)
ON CONFLICT DO NOTHING`), a.ID, a.CompanyID, a.TemplateID, a.AssignedDate, a.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertAssignment stores an explicit (unscheduled) occurrence.
func (r Repo) InsertAssignment(ctx context.Context, tx *sqlx.Tx, a domain.Assignment) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO task_assignments(id,company_id,template_id,assigned_date,assignee_id,scheduled,created_at) VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.CompanyID, a.TemplateID, a.AssignedDate, nullableStringPtr(a.AssigneeID), boolInt(a.Scheduled), a.CreatedAt)
	return err
}

func (r Repo) GetAssignment(ctx context.Context, tx *sqlx.Tx, companyID, id string) (domain.Assignment, error) {
	var a domain.Assignment
	err := get(ctx, r.q(tx), &a, `SELECT `+assignmentColumns+` FROM task_assignments ta WHERE ta.id=? AND ta.company_id=?`, id, companyID)
	return a, err
}

// GetScheduledAssignment returns the materialized occurrence of a template on a date.
func (r Repo) GetScheduledAssignment(ctx context.Context, tx *sqlx.Tx, companyID, templateID, date string) (domain.Assignment, error) {
	var a domain.Assignment
	err := get(ctx, r.q(tx), &a, `SELECT `+assignmentColumns+` FROM task_assignments ta
WHERE ta.company_id=? AND ta.template_id=? AND ta.assigned_date=? AND ta.scheduled=1`, companyID, templateID, date)
	return a, err
}

// DeleteAssignment removes one occurrence; its completions cascade.
func (r Repo) DeleteAssignment(ctx context.Context, tx *sqlx.Tx, companyID, id string) error {
	return execOne(ctx, r.q(tx), `DELETE FROM task_assignments WHERE id=? AND company_id=?`, id, companyID)
}

// ListAssignmentViews returns every occurrence of the company on date, joined
// with template and assignee details, ordered by template name.
func (r Repo) ListAssignmentViews(ctx context.Context, companyID, date string) ([]domain.AssignmentView, error) {
	res := []domain.AssignmentView{}
	err := selectAll(ctx, r.DB, &res, `SELECT `+assignmentColumns+`,
  tlt.name AS template_name, tlt.type AS template_type, tlt.period_type,
  tlt.day_of_week, tlt.day_of_month, tlt.recur_month, tlt.recur_day,
  u.display_name AS assignee_name
FROM task_assignments ta
JOIN task_list_templates tlt ON tlt.id = ta.template_id
LEFT JOIN users u ON u.id = ta.assignee_id
WHERE ta.company_id = ? AND ta.assigned_date = ?
ORDER BY tlt.name, ta.id`, companyID, date)
	return res, err
}

// SummaryRow is one task item of one occurrence with the viewer's mark.
type SummaryRow struct {
	AssignmentID string `db:"assignment_id"`
	domain.SummaryTask
}

// ListSummaryRows returns the task items of every occurrence on date, left
// joined with userID's completions, in display order.
func (r Repo) ListSummaryRows(ctx context.Context, companyID, date, userID string) ([]SummaryRow, error) {
	res := []SummaryRow{}
	err := selectAll(ctx, r.DB, &res, `SELECT ta.id AS assignment_id, tt.id AS task_template_id, tt.title, tt.sort_order,
  tc.completed_at AS my_completed_at
FROM task_assignments ta
JOIN task_templates tt ON tt.template_id = ta.template_id
LEFT JOIN task_completions tc ON tc.assignment_id = ta.id AND tc.task_template_id = tt.id AND tc.user_id = ?
WHERE ta.company_id = ? AND ta.assigned_date = ?
ORDER BY ta.id, tt.sort_order, tt.id`, userID, companyID, date)
	return res, err
}

// CountAssignments counts occurrences of the company on date.
func (r Repo) CountAssignments(ctx context.Context, companyID, date string) (int, error) {
	var n int
	err := get(ctx, r.DB, &n, `SELECT COUNT(*) FROM task_assignments WHERE company_id=? AND assigned_date=?`, companyID, date)
	return n, err
}

// SetAssignmentAssignee changes who an occurrence belongs to; nil makes it shared.
func (r Repo) SetAssignmentAssignee(ctx context.Context, tx *sqlx.Tx, companyID, id string, assigneeID *string) error {
	return execOne(ctx, r.q(tx), `UPDATE task_assignments SET assignee_id=? WHERE id=? AND company_id=?`,
		nullableStringPtr(assigneeID), id, companyID)
}
