package server

import (
	"encoding/json"

	"teamtask/internal/domain"
	"teamtask/internal/engine"
)

// Request payloads

type TemplateRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PeriodType string `json:"period_type" enum:"daily,weekly,monthly,yearly,one_time"`
	DayOfWeek  *int   `json:"day_of_week,omitempty" doc:"0=Sunday..6=Saturday, weekly only"`
	DayOfMonth *int   `json:"day_of_month,omitempty" doc:"1..31, monthly only"`
	RecurMonth *int   `json:"recur_month,omitempty" doc:"1..12, yearly only"`
	RecurDay   *int   `json:"recur_day,omitempty" doc:"1..31, yearly only"`
}

func (r TemplateRequest) input() engine.TemplateInput {
	return engine.TemplateInput{
		Name:       &r.Name,
		Type:       &r.Type,
		PeriodType: &r.PeriodType,
		DayOfWeek:  r.DayOfWeek,
		DayOfMonth: r.DayOfMonth,
		RecurMonth: r.RecurMonth,
		RecurDay:   r.RecurDay,
	}
}

type TemplatePatchRequest struct {
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	PeriodType *string `json:"period_type,omitempty" enum:"daily,weekly,monthly,yearly,one_time"`
	DayOfWeek  *int    `json:"day_of_week,omitempty"`
	DayOfMonth *int    `json:"day_of_month,omitempty"`
	RecurMonth *int    `json:"recur_month,omitempty"`
	RecurDay   *int    `json:"recur_day,omitempty"`
}

func (r TemplatePatchRequest) input() engine.TemplateInput {
	return engine.TemplateInput(r)
}

type TaskItemRequest struct {
	Title     string `json:"title"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

type TaskItemPatchRequest struct {
	Title     *string `json:"title,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

type AssignmentRequest struct {
	TemplateID   string  `json:"template_id"`
	AssignedDate string  `json:"assigned_date" doc:"YYYY-MM-DD"`
	AssigneeID   *string `json:"assignee_id,omitempty" doc:"Omit for a shared assignment"`
}

type CompletionRequest struct {
	Completed bool `json:"completed"`
}

type DevLoginRequest struct {
	UserID string `json:"user_id"`
}

type APIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// Responses

type TemplateResponse domain.Template

type TemplateList struct {
	Templates []domain.Template `json:"templates"`
}

type TaskItemResponse domain.TaskItem

type TaskItemList struct {
	Tasks []domain.TaskItem `json:"tasks"`
}

type AssignmentResponse domain.Assignment

type AssignmentList struct {
	Assignments []domain.AssignmentView `json:"assignments"`
}

type CompletionResponse domain.Completion

type CompletionList struct {
	Completions []domain.CompletionView `json:"completions"`
}

type DaySummaryResponse domain.DaySummary

type WhoAmIResponse struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	Source    string `json:"source"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type EventList struct {
	Items []EventResponse `json:"items"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKeyCreatedResponse struct {
	APIKeyResponse
	Key string `json:"key" doc:"Shown once"`
}

type APIKeyList struct {
	Items []APIKeyResponse `json:"items"`
}

func eventResponse(evt domain.Event) EventResponse {
	return EventResponse{
		ID:         evt.ID,
		TS:         evt.TS,
		Type:       evt.Type,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Payload:    decodeJSONMap(evt.Payload),
	}
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	}
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	return obj
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
