package engine

import (
	"context"

	"teamtask/internal/domain"
	"teamtask/internal/engine/auth"
)

// DaySummary materializes date and returns each occurrence on it with its
// task items in display order and the actor's own completion stamps.
func (e Engine) DaySummary(ctx context.Context, actor auth.Actor, date string) (domain.DaySummary, error) {
	d, err := parseDate(date)
	if err != nil {
		return domain.DaySummary{}, err
	}
	if _, err := e.EnsureAssignmentsForDate(ctx, actor.CompanyID, d); err != nil {
		return domain.DaySummary{}, err
	}
	views, err := e.Repo.ListAssignmentViews(ctx, actor.CompanyID, d.String())
	if err != nil {
		return domain.DaySummary{}, err
	}
	rows, err := e.Repo.ListSummaryRows(ctx, actor.CompanyID, d.String(), actor.UserID)
	if err != nil {
		return domain.DaySummary{}, err
	}
	tasks := make(map[string][]domain.SummaryTask, len(views))
	for _, r := range rows {
		tasks[r.AssignmentID] = append(tasks[r.AssignmentID], r.SummaryTask)
	}

	out := domain.DaySummary{Date: d.String(), Assignments: make([]domain.SummaryAssignment, 0, len(views))}
	for _, v := range views {
		items := tasks[v.ID]
		if items == nil {
			items = []domain.SummaryTask{}
		}
		out.Assignments = append(out.Assignments, domain.SummaryAssignment{
			ID:           v.ID,
			TemplateID:   v.TemplateID,
			TemplateName: v.TemplateName,
			TemplateType: v.TemplateType,
			PeriodType:   v.PeriodType,
			AssignedDate: v.AssignedDate,
			AssigneeID:   v.AssigneeID,
			AssigneeName: v.AssigneeName,
			Tasks:        items,
		})
	}
	return out, nil
}
