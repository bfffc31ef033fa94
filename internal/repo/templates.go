package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"teamtask/internal/domain"
)

const templateColumns = `id,company_id,name,type,period_type,day_of_week,day_of_month,recur_month,recur_day,created_at,updated_at`

func (r Repo) InsertTemplate(ctx context.Context, tx *sqlx.Tx, t domain.Template) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO task_list_templates(`+templateColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.CompanyID, t.Name, t.Type, t.PeriodType,
		nullableIntPtr(t.DayOfWeek), nullableIntPtr(t.DayOfMonth), nullableIntPtr(t.RecurMonth), nullableIntPtr(t.RecurDay),
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) UpdateTemplate(ctx context.Context, tx *sqlx.Tx, t domain.Template) error {
	return execOne(ctx, r.q(tx), `UPDATE task_list_templates SET name=?, type=?, period_type=?, day_of_week=?, day_of_month=?, recur_month=?, recur_day=?, updated_at=?
WHERE id=? AND company_id=?`,
		t.Name, t.Type, t.PeriodType,
		nullableIntPtr(t.DayOfWeek), nullableIntPtr(t.DayOfMonth), nullableIntPtr(t.RecurMonth), nullableIntPtr(t.RecurDay),
		t.UpdatedAt, t.ID, t.CompanyID)
}

func (r Repo) GetTemplate(ctx context.Context, tx *sqlx.Tx, companyID, id string) (domain.Template, error) {
	var t domain.Template
	err := get(ctx, r.q(tx), &t, `SELECT `+templateColumns+` FROM task_list_templates WHERE id=? AND company_id=?`, id, companyID)
	return t, err
}

// DeleteTemplate removes a template; its task items, assignments and completions cascade.
func (r Repo) DeleteTemplate(ctx context.Context, tx *sqlx.Tx, companyID, id string) error {
	return execOne(ctx, r.q(tx), `DELETE FROM task_list_templates WHERE id=? AND company_id=?`, id, companyID)
}

func (r Repo) ListTemplates(ctx context.Context, companyID string) ([]domain.Template, error) {
	res := []domain.Template{}
	err := selectAll(ctx, r.DB, &res, `SELECT `+templateColumns+` FROM task_list_templates WHERE company_id=? ORDER BY name, id`, companyID)
	return res, err
}

// ListTemplatesByKind returns the company's templates of one recurrence kind.
func (r Repo) ListTemplatesByKind(ctx context.Context, companyID, kind string) ([]domain.Template, error) {
	res := []domain.Template{}
	err := selectAll(ctx, r.DB, &res, `SELECT `+templateColumns+` FROM task_list_templates WHERE company_id=? AND period_type=? ORDER BY id`, companyID, kind)
	return res, err
}

const taskItemColumns = `tt.id,tt.template_id,tt.title,tt.sort_order,tt.created_at,tt.updated_at`

func (r Repo) InsertTaskItem(ctx context.Context, tx *sqlx.Tx, it domain.TaskItem) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO task_templates(id,template_id,title,sort_order,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		it.ID, it.TemplateID, it.Title, it.SortOrder, it.CreatedAt, it.UpdatedAt)
	return err
}

// NextSortOrder returns one past the highest sort order in the template.
func (r Repo) NextSortOrder(ctx context.Context, tx *sqlx.Tx, templateID string) (int, error) {
	var next int
	err := get(ctx, r.q(tx), &next, `SELECT COALESCE(MAX(sort_order),0)+1 FROM task_templates WHERE template_id=?`, templateID)
	return next, err
}

func (r Repo) UpdateTaskItem(ctx context.Context, tx *sqlx.Tx, it domain.TaskItem) error {
	return execOne(ctx, r.q(tx), `UPDATE task_templates SET title=?, sort_order=?, updated_at=? WHERE id=? AND template_id=?`,
		it.Title, it.SortOrder, it.UpdatedAt, it.ID, it.TemplateID)
}

// GetTaskItem loads an item only when its template belongs to the company.
func (r Repo) GetTaskItem(ctx context.Context, tx *sqlx.Tx, companyID, templateID, id string) (domain.TaskItem, error) {
	var it domain.TaskItem
	err := get(ctx, r.q(tx), &it, `SELECT `+taskItemColumns+`
FROM task_templates tt
JOIN task_list_templates tlt ON tlt.id = tt.template_id AND tlt.company_id = ?
WHERE tt.id = ? AND tt.template_id = ?`, companyID, id, templateID)
	return it, err
}

func (r Repo) DeleteTaskItem(ctx context.Context, tx *sqlx.Tx, companyID, templateID, id string) error {
	return execOne(ctx, r.q(tx), `DELETE FROM task_templates
WHERE id=? AND template_id=? AND template_id IN (SELECT id FROM task_list_templates WHERE company_id=?)`, id, templateID, companyID)
}

// ListTaskItems returns a template's items in display order, ties broken by id.
func (r Repo) ListTaskItems(ctx context.Context, companyID, templateID string) ([]domain.TaskItem, error) {
	res := []domain.TaskItem{}
	err := selectAll(ctx, r.DB, &res, `SELECT `+taskItemColumns+`
FROM task_templates tt
JOIN task_list_templates tlt ON tlt.id = tt.template_id AND tlt.company_id = ?
WHERE tt.template_id = ?
ORDER BY tt.sort_order, tt.id`, companyID, templateID)
	return res, err
}
