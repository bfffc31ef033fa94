package engine

import (
	"context"

	"teamtask/internal/domain"
	"teamtask/internal/engine/auth"
	"teamtask/internal/events"
)

// SetCompletion records the actor's mark on one task item of one assignment:
// completed stamps the current time, otherwise the stamp is cleared. The row
// is never deleted, so its id stays stable across toggles.
func (e Engine) SetCompletion(ctx context.Context, actor auth.Actor, assignmentID, taskItemID string, completed bool) (domain.Completion, error) {
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Completion{}, err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssignment(ctx, tx, actor.CompanyID, assignmentID)
	if err != nil {
		return domain.Completion{}, notFound("assignment", err)
	}
	if _, err := e.Repo.GetTaskItem(ctx, tx, actor.CompanyID, a.TemplateID, taskItemID); err != nil {
		return domain.Completion{}, notFound("task", err)
	}
	if _, err := e.Repo.GetUser(ctx, tx, actor.CompanyID, actor.UserID); err != nil {
		return domain.Completion{}, notFound("user", err)
	}

	now := e.stamp()
	c := domain.Completion{
		ID:             newID(),
		AssignmentID:   a.ID,
		TaskTemplateID: taskItemID,
		UserID:         actor.UserID,
		UpdatedAt:      now,
	}
	if completed {
		c.CompletedAt = &now
	}
	if err := e.Repo.UpsertCompletion(ctx, tx, c); err != nil {
		return domain.Completion{}, err
	}
	c, err = e.Repo.GetCompletion(ctx, tx, a.ID, taskItemID, actor.UserID)
	if err != nil {
		return domain.Completion{}, err
	}
	if err := e.events().Append(ctx, tx, events.CompletionSet, actor.CompanyID, "completion", c.ID, actor.UserID, events.EventPayload{
		"assignment_id":    a.ID,
		"task_template_id": taskItemID,
		"completed":        completed,
	}); err != nil {
		return domain.Completion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Completion{}, err
	}
	return c, nil
}

// MyCompletions returns only the actor's marks on an assignment.
func (e Engine) MyCompletions(ctx context.Context, actor auth.Actor, assignmentID string) ([]domain.CompletionView, error) {
	if _, err := e.Repo.GetAssignment(ctx, nil, actor.CompanyID, assignmentID); err != nil {
		return nil, notFound("assignment", err)
	}
	return e.Repo.ListCompletions(ctx, actor.CompanyID, assignmentID, actor.UserID)
}

// ListCompletions returns every user's marks on an assignment; managers only.
func (e Engine) ListCompletions(ctx context.Context, actor auth.Actor, assignmentID string) ([]domain.CompletionView, error) {
	if err := auth.RequireManager(actor); err != nil {
		return nil, err
	}
	if _, err := e.Repo.GetAssignment(ctx, nil, actor.CompanyID, assignmentID); err != nil {
		return nil, notFound("assignment", err)
	}
	return e.Repo.ListCompletions(ctx, actor.CompanyID, assignmentID, "")
}
