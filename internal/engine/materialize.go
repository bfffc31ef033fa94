package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"teamtask/internal/domain"
	"teamtask/internal/engine/recurrence"
)

// scheduledNamespace seeds deterministic ids of materialized occurrences.
var scheduledNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("teamtask.task_assignments.scheduled"))

func scheduledID(templateID string, d recurrence.Date) string {
	return uuid.NewSHA1(scheduledNamespace, []byte(templateID+"|"+d.String())).String()
}

// EnsureAssignmentsForDate creates the missing occurrences of every recurring
// template of the company due on d and reports how many rows it created.
//
// The four kinds touch disjoint templates and run concurrently. Each insert is
// a single statement that yields to an existing (template, date) row, so the
// call is idempotent, order independent and safe against concurrent callers.
// A failure part way leaves the remaining rows for the next call.
func (e Engine) EnsureAssignmentsForDate(ctx context.Context, companyID string, d recurrence.Date) (int, error) {
	p := pool.NewWithResults[int]().WithErrors().WithContext(ctx)
	for _, kind := range recurrence.RecurringKinds {
		kind := kind
		p.Go(func(ctx context.Context) (int, error) {
			return e.ensureKind(ctx, companyID, kind, d)
		})
	}
	counts, err := p.Wait()
	created := 0
	for _, n := range counts {
		created += n
	}
	if err != nil {
		return created, err
	}
	if created > 0 {
		e.Log.Debug("materialized assignments", "company", companyID, "date", d.String(), "created", created)
	}
	return created, nil
}

func (e Engine) ensureKind(ctx context.Context, companyID string, kind recurrence.Kind, d recurrence.Date) (int, error) {
	templates, err := e.Repo.ListTemplatesByKind(ctx, companyID, string(kind))
	if err != nil {
		return 0, fmt.Errorf("list %s templates: %w", kind, err)
	}
	created := 0
	for _, t := range templates {
		if !recurrence.IsDue(templateRule(t), d) {
			continue
		}
		ok, err := e.Repo.EnsureScheduledAssignment(ctx, nil, domain.Assignment{
			ID:           scheduledID(t.ID, d),
			CompanyID:    companyID,
			TemplateID:   t.ID,
			AssignedDate: d.String(),
			Scheduled:    true,
			CreatedAt:    e.stamp(),
		})
		if err != nil {
			return created, fmt.Errorf("ensure assignment of template %s on %s: %w", t.ID, d, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
