package engine

import (
	"context"
	"fmt"

	"teamtask/internal/domain"
	"teamtask/internal/engine/auth"
	"teamtask/internal/engine/recurrence"
	"teamtask/internal/events"
)

// ListAssignments materializes date and returns every occurrence on it with
// template and assignee details.
func (e Engine) ListAssignments(ctx context.Context, actor auth.Actor, date string) ([]domain.AssignmentView, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := e.EnsureAssignmentsForDate(ctx, actor.CompanyID, d); err != nil {
		return nil, err
	}
	return e.Repo.ListAssignmentViews(ctx, actor.CompanyID, d.String())
}

type AssignmentInput struct {
	TemplateID   string
	AssignedDate string
	AssigneeID   *string
}

// CreateAssignment puts a template on a day. one_time templates get a new
// occurrence on every call. Recurring templates go through the same ensure
// path as materialization and return the date's single occurrence, with the
// assignee applied when one is given.
func (e Engine) CreateAssignment(ctx context.Context, actor auth.Actor, in AssignmentInput) (domain.Assignment, error) {
	if err := auth.RequireManager(actor); err != nil {
		return domain.Assignment{}, err
	}
	if in.TemplateID == "" || in.AssignedDate == "" {
		return domain.Assignment{}, ValidationError{Field: "template_id", Message: "template_id and assigned_date required"}
	}
	d, err := parseDate(in.AssignedDate)
	if err != nil {
		return domain.Assignment{}, err
	}
	assignee := in.AssigneeID
	if assignee != nil && *assignee == "" {
		assignee = nil
	}

	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTemplate(ctx, tx, actor.CompanyID, in.TemplateID)
	if err != nil {
		return domain.Assignment{}, notFound("template", err)
	}
	if assignee != nil {
		if _, err := e.Repo.GetUser(ctx, tx, actor.CompanyID, *assignee); err != nil {
			return domain.Assignment{}, notFound("assignee", err)
		}
	}

	var a domain.Assignment
	if recurrence.Kind(t.PeriodType).Recurring() {
		if _, err := e.Repo.EnsureScheduledAssignment(ctx, tx, domain.Assignment{
			ID:           scheduledID(t.ID, d),
			CompanyID:    actor.CompanyID,
			TemplateID:   t.ID,
			AssignedDate: d.String(),
			CreatedAt:    e.stamp(),
		}); err != nil {
			return domain.Assignment{}, err
		}
		a, err = e.Repo.GetScheduledAssignment(ctx, tx, actor.CompanyID, t.ID, d.String())
		if err != nil {
			return domain.Assignment{}, err
		}
		if assignee != nil {
			if err := e.Repo.SetAssignmentAssignee(ctx, tx, actor.CompanyID, a.ID, assignee); err != nil {
				return domain.Assignment{}, err
			}
			a.AssigneeID = assignee
		}
	} else {
		a = domain.Assignment{
			ID:           newID(),
			CompanyID:    actor.CompanyID,
			TemplateID:   t.ID,
			AssignedDate: d.String(),
			AssigneeID:   assignee,
			CreatedAt:    e.stamp(),
		}
		if err := e.Repo.InsertAssignment(ctx, tx, a); err != nil {
			return domain.Assignment{}, fmt.Errorf("insert assignment: %w", err)
		}
	}
	payload := events.EventPayload{"template_id": t.ID, "assigned_date": a.AssignedDate}
	if a.AssigneeID != nil {
		payload["assignee_id"] = *a.AssigneeID
	}
	if err := e.events().Append(ctx, tx, events.AssignmentCreated, actor.CompanyID, "assignment", a.ID, actor.UserID, payload); err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// DeleteAssignment removes one day's occurrence and its completions. A
// recurring occurrence comes back on the next read of that date.
func (e Engine) DeleteAssignment(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.RequireManager(actor); err != nil {
		return err
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAssignment(ctx, tx, actor.CompanyID, id); err != nil {
		return notFound("assignment", err)
	}
	if err := e.events().Append(ctx, tx, events.AssignmentDeleted, actor.CompanyID, "assignment", id, actor.UserID, nil); err != nil {
		return err
	}
	return tx.Commit()
}
