package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"teamtask/internal/domain"
	"teamtask/internal/engine/auth"
	"teamtask/internal/engine/recurrence"
	"teamtask/internal/events"
	"teamtask/internal/repo"
)

type Engine struct {
	DB     *sqlx.DB
	Repo   repo.Repo
	Events events.Writer
	Log    *log.Logger
	Now    func() time.Time
}

func New(db *sqlx.DB, logger *log.Logger) Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Log:    logger,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) events() events.Writer {
	w := e.Events
	w.Now = e.now
	return w
}

func newID() string {
	return uuid.NewString()
}

// TemplateInput carries the fields of a template create or update. Nil
// fields are left unchanged on update.
type TemplateInput struct {
	Name       *string
	Type       *string
	PeriodType *string
	DayOfWeek  *int
	DayOfMonth *int
	RecurMonth *int
	RecurDay   *int
}

func templateRule(t domain.Template) recurrence.Rule {
	return recurrence.Rule{
		Kind:       recurrence.Kind(t.PeriodType),
		DayOfWeek:  t.DayOfWeek,
		DayOfMonth: t.DayOfMonth,
		RecurMonth: t.RecurMonth,
		RecurDay:   t.RecurDay,
	}
}

func applyRule(t *domain.Template, r recurrence.Rule) {
	t.PeriodType = string(r.Kind)
	t.DayOfWeek = r.DayOfWeek
	t.DayOfMonth = r.DayOfMonth
	t.RecurMonth = r.RecurMonth
	t.RecurDay = r.RecurDay
}

func (e Engine) CreateTemplate(ctx context.Context, actor auth.Actor, in TemplateInput) (domain.Template, error) {
	if err := auth.RequireManager(actor); err != nil {
		return domain.Template{}, err
	}
	name, typ, kind := trimmed(in.Name), trimmed(in.Type), trimmed(in.PeriodType)
	if name == "" || typ == "" || kind == "" {
		return domain.Template{}, ValidationError{Field: "name", Message: "name, type, period_type required"}
	}
	// Parameters of other kinds are dropped rather than rejected on create.
	rule := recurrence.Rule{
		Kind:       recurrence.Kind(kind),
		DayOfWeek:  in.DayOfWeek,
		DayOfMonth: in.DayOfMonth,
		RecurMonth: in.RecurMonth,
		RecurDay:   in.RecurDay,
	}.Normalize()
	if err := rule.Validate(); err != nil {
		return domain.Template{}, asValidation(err)
	}
	now := e.stamp()
	t := domain.Template{
		ID:        newID(),
		CompanyID: actor.CompanyID,
		Name:      name,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRule(&t, rule)

	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Template{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTemplate(ctx, tx, t); err != nil {
		return domain.Template{}, fmt.Errorf("insert template: %w", err)
	}
	if err := e.events().Append(ctx, tx, events.TemplateCreated, t.CompanyID, "template", t.ID, actor.UserID, events.EventPayload{
		"name":        t.Name,
		"period_type": t.PeriodType,
	}); err != nil {
		return domain.Template{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Template{}, err
	}
	return t, nil
}

func (e Engine) GetTemplate(ctx context.Context, actor auth.Actor, id string) (domain.Template, error) {
	t, err := e.Repo.GetTemplate(ctx, nil, actor.CompanyID, id)
	if err != nil {
		return t, notFound("template", err)
	}
	return t, nil
}

func (e Engine) ListTemplates(ctx context.Context, actor auth.Actor) ([]domain.Template, error) {
	return e.Repo.ListTemplates(ctx, actor.CompanyID)
}

// UpdateTemplate applies a partial update. Switching period_type clears the
// parameters of the previous kind; the resulting rule must be complete.
func (e Engine) UpdateTemplate(ctx context.Context, actor auth.Actor, id string, in TemplateInput) (domain.Template, error) {
	if err := auth.RequireManager(actor); err != nil {
		return domain.Template{}, err
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Template{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTemplate(ctx, tx, actor.CompanyID, id)
	if err != nil {
		return t, notFound("template", err)
	}
	if v := trimmed(in.Name); v != "" {
		t.Name = v
	}
	if v := trimmed(in.Type); v != "" {
		t.Type = v
	}
	rule := templateRule(t)
	if v := trimmed(in.PeriodType); v != "" {
		rule.Kind = recurrence.Kind(v)
	}
	if in.DayOfWeek != nil {
		rule.DayOfWeek = in.DayOfWeek
	}
	if in.DayOfMonth != nil {
		rule.DayOfMonth = in.DayOfMonth
	}
	if in.RecurMonth != nil {
		rule.RecurMonth = in.RecurMonth
	}
	if in.RecurDay != nil {
		rule.RecurDay = in.RecurDay
	}
	rule = rule.Normalize()
	if err := rule.Validate(); err != nil {
		return domain.Template{}, asValidation(err)
	}
	applyRule(&t, rule)
	t.UpdatedAt = e.stamp()

	if err := e.Repo.UpdateTemplate(ctx, tx, t); err != nil {
		return domain.Template{}, notFound("template", err)
	}
	if err := e.events().Append(ctx, tx, events.TemplateUpdated, t.CompanyID, "template", t.ID, actor.UserID, events.EventPayload{
		"name":        t.Name,
		"period_type": t.PeriodType,
	}); err != nil {
		return domain.Template{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Template{}, err
	}
	return t, nil
}

// DeleteTemplate removes a template with its task items, assignments and completions.
func (e Engine) DeleteTemplate(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.RequireManager(actor); err != nil {
		return err
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTemplate(ctx, tx, actor.CompanyID, id); err != nil {
		return notFound("template", err)
	}
	if err := e.events().Append(ctx, tx, events.TemplateDeleted, actor.CompanyID, "template", id, actor.UserID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// TaskItemInput carries the fields of a task item create or update.
type TaskItemInput struct {
	Title     *string
	SortOrder *int
}

func (e Engine) ListTaskItems(ctx context.Context, actor auth.Actor, templateID string) ([]domain.TaskItem, error) {
	if _, err := e.Repo.GetTemplate(ctx, nil, actor.CompanyID, templateID); err != nil {
		return nil, notFound("template", err)
	}
	return e.Repo.ListTaskItems(ctx, actor.CompanyID, templateID)
}

// CreateTaskItem appends an item to a template. Without a sort order the item
// goes after the current last one.
func (e Engine) CreateTaskItem(ctx context.Context, actor auth.Actor, templateID string, in TaskItemInput) (domain.TaskItem, error) {
	if err := auth.RequireManager(actor); err != nil {
		return domain.TaskItem{}, err
	}
	title := trimmed(in.Title)
	if title == "" {
		return domain.TaskItem{}, ValidationError{Field: "title", Message: "title required"}
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.TaskItem{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetTemplate(ctx, tx, actor.CompanyID, templateID); err != nil {
		return domain.TaskItem{}, notFound("template", err)
	}
	order := 0
	if in.SortOrder != nil {
		order = *in.SortOrder
	} else {
		order, err = e.Repo.NextSortOrder(ctx, tx, templateID)
		if err != nil {
			return domain.TaskItem{}, err
		}
	}
	now := e.stamp()
	it := domain.TaskItem{
		ID:         newID(),
		TemplateID: templateID,
		Title:      title,
		SortOrder:  order,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Repo.InsertTaskItem(ctx, tx, it); err != nil {
		return domain.TaskItem{}, fmt.Errorf("insert task item: %w", err)
	}
	if err := e.events().Append(ctx, tx, events.TaskItemCreated, actor.CompanyID, "task_item", it.ID, actor.UserID, events.EventPayload{
		"template_id": templateID,
		"title":       it.Title,
	}); err != nil {
		return domain.TaskItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TaskItem{}, err
	}
	return it, nil
}

func (e Engine) UpdateTaskItem(ctx context.Context, actor auth.Actor, templateID, id string, in TaskItemInput) (domain.TaskItem, error) {
	if err := auth.RequireManager(actor); err != nil {
		return domain.TaskItem{}, err
	}
	if in.Title != nil && trimmed(in.Title) == "" {
		return domain.TaskItem{}, ValidationError{Field: "title", Message: "title must not be empty"}
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.TaskItem{}, err
	}
	defer tx.Rollback()
	it, err := e.Repo.GetTaskItem(ctx, tx, actor.CompanyID, templateID, id)
	if err != nil {
		return it, notFound("task", err)
	}
	if in.Title != nil {
		it.Title = trimmed(in.Title)
	}
	if in.SortOrder != nil {
		it.SortOrder = *in.SortOrder
	}
	it.UpdatedAt = e.stamp()
	if err := e.Repo.UpdateTaskItem(ctx, tx, it); err != nil {
		return domain.TaskItem{}, notFound("task", err)
	}
	if err := e.events().Append(ctx, tx, events.TaskItemUpdated, actor.CompanyID, "task_item", it.ID, actor.UserID, events.EventPayload{
		"title":      it.Title,
		"sort_order": it.SortOrder,
	}); err != nil {
		return domain.TaskItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TaskItem{}, err
	}
	return it, nil
}

func (e Engine) DeleteTaskItem(ctx context.Context, actor auth.Actor, templateID, id string) error {
	if err := auth.RequireManager(actor); err != nil {
		return err
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTaskItem(ctx, tx, actor.CompanyID, templateID, id); err != nil {
		return notFound("task", err)
	}
	if err := e.events().Append(ctx, tx, events.TaskItemDeleted, actor.CompanyID, "task_item", id, actor.UserID, events.EventPayload{
		"template_id": templateID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
