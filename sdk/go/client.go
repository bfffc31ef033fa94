package teamtasksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal task-list HTTP API client. BaseURL includes the API
// base path, e.g. http://localhost:8080/api.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Template is a checklist definition with its recurrence.
type Template struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	PeriodType string `json:"period_type"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"`
	DayOfMonth *int   `json:"day_of_month,omitempty"`
	RecurMonth *int   `json:"recur_month,omitempty"`
	RecurDay   *int   `json:"recur_day,omitempty"`
}

// TaskItem is one line of a template's checklist.
type TaskItem struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	SortOrder  int    `json:"sort_order"`
}

// Assignment is one dated occurrence of a template.
type Assignment struct {
	ID           string  `json:"id"`
	TemplateID   string  `json:"template_id"`
	TemplateName string  `json:"template_name,omitempty"`
	AssignedDate string  `json:"assigned_date"`
	AssigneeID   *string `json:"assignee_id"`
	AssigneeName *string `json:"assignee_name,omitempty"`
	Scheduled    bool    `json:"scheduled"`
}

// Completion is one user's mark on a task item of an assignment.
type Completion struct {
	ID             string  `json:"id"`
	AssignmentID   string  `json:"assignment_id"`
	TaskTemplateID string  `json:"task_template_id"`
	UserID         string  `json:"user_id"`
	CompletedAt    *string `json:"completed_at"`
	TaskTitle      string  `json:"task_title,omitempty"`
}

// SummaryTask is a task item with the caller's completion time.
type SummaryTask struct {
	TaskTemplateID string  `json:"task_template_id"`
	Title          string  `json:"title"`
	SortOrder      int     `json:"sort_order"`
	MyCompletedAt  *string `json:"my_completed_at"`
}

type SummaryAssignment struct {
	ID           string        `json:"id"`
	TemplateID   string        `json:"template_id"`
	TemplateName string        `json:"template_name"`
	TemplateType string        `json:"template_type"`
	PeriodType   string        `json:"period_type"`
	AssignedDate string        `json:"assigned_date"`
	AssigneeID   *string       `json:"assignee_id"`
	AssigneeName *string       `json:"assignee_name"`
	Tasks        []SummaryTask `json:"tasks"`
}

// DaySummary is everything due on a date for the caller.
type DaySummary struct {
	Date        string              `json:"date"`
	Assignments []SummaryAssignment `json:"assignments"`
}

// Event represents an audit log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// Me describes the authenticated caller.
type Me struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	Source    string `json:"source"`
}

// TemplateParams are the fields of a template create or update.
type TemplateParams struct {
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	PeriodType *string `json:"period_type,omitempty"`
	DayOfWeek  *int    `json:"day_of_week,omitempty"`
	DayOfMonth *int    `json:"day_of_month,omitempty"`
	RecurMonth *int    `json:"recur_month,omitempty"`
	RecurDay   *int    `json:"recur_day,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var resp Me
	err := c.do(ctx, http.MethodGet, "me", nil, &resp)
	return resp, err
}

// DevLogin exchanges a user id for a token on servers started with dev login.
func (c *Client) DevLogin(ctx context.Context, userID string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "auth/dev/login", map[string]any{"user_id": userID}, &resp)
	return resp.Token, err
}

// DaySummary returns the caller's view of date (YYYY-MM-DD).
func (c *Client) DaySummary(ctx context.Context, date string) (DaySummary, error) {
	var resp DaySummary
	err := c.do(ctx, http.MethodGet, "task-lists/day-summary?date="+url.QueryEscape(date), nil, &resp)
	return resp, err
}

// Assignments lists every occurrence on date.
func (c *Client) Assignments(ctx context.Context, date string) ([]Assignment, error) {
	var resp struct {
		Assignments []Assignment `json:"assignments"`
	}
	err := c.do(ctx, http.MethodGet, "task-lists/assignments?date="+url.QueryEscape(date), nil, &resp)
	return resp.Assignments, err
}

// Assign puts a template on a date. An empty assigneeID makes it shared.
func (c *Client) Assign(ctx context.Context, templateID, date, assigneeID string) (Assignment, error) {
	body := map[string]any{
		"template_id":   templateID,
		"assigned_date": date,
	}
	if assigneeID != "" {
		body["assignee_id"] = assigneeID
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, "task-lists/assignments", body, &resp)
	return resp, err
}

// Unassign removes one occurrence.
func (c *Client) Unassign(ctx context.Context, assignmentID string) error {
	return c.do(ctx, http.MethodDelete, "task-lists/assignments/"+url.PathEscape(assignmentID), nil, nil)
}

// SetCompletion marks or clears the caller's completion of a task item.
func (c *Client) SetCompletion(ctx context.Context, assignmentID, taskTemplateID string, completed bool) (Completion, error) {
	var resp Completion
	endpoint := fmt.Sprintf("task-lists/assignments/%s/tasks/%s/complete", url.PathEscape(assignmentID), url.PathEscape(taskTemplateID))
	err := c.do(ctx, http.MethodPut, endpoint, map[string]any{"completed": completed}, &resp)
	return resp, err
}

// Completions lists an assignment's completions. mine narrows to the caller.
func (c *Client) Completions(ctx context.Context, assignmentID string, mine bool) ([]Completion, error) {
	var resp struct {
		Completions []Completion `json:"completions"`
	}
	endpoint := fmt.Sprintf("task-lists/assignments/%s/completions", url.PathEscape(assignmentID))
	if mine {
		endpoint += "?mine=true"
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Completions, err
}

// Templates lists the company's templates.
func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var resp struct {
		Templates []Template `json:"templates"`
	}
	err := c.do(ctx, http.MethodGet, "task-lists/templates", nil, &resp)
	return resp.Templates, err
}

// CreateTemplate creates a template.
func (c *Client) CreateTemplate(ctx context.Context, params TemplateParams) (Template, error) {
	var resp Template
	err := c.do(ctx, http.MethodPost, "task-lists/templates", params, &resp)
	return resp, err
}

// UpdateTemplate applies a partial update.
func (c *Client) UpdateTemplate(ctx context.Context, id string, params TemplateParams) (Template, error) {
	var resp Template
	err := c.do(ctx, http.MethodPatch, "task-lists/templates/"+url.PathEscape(id), params, &resp)
	return resp, err
}

// DeleteTemplate removes a template with everything that hangs off it.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "task-lists/templates/"+url.PathEscape(id), nil, nil)
}

// TaskItems lists a template's checklist in order.
func (c *Client) TaskItems(ctx context.Context, templateID string) ([]TaskItem, error) {
	var resp struct {
		Tasks []TaskItem `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "task-lists/templates/"+url.PathEscape(templateID)+"/tasks", nil, &resp)
	return resp.Tasks, err
}

// AddTaskItem appends a task item to a template.
func (c *Client) AddTaskItem(ctx context.Context, templateID, title string) (TaskItem, error) {
	var resp TaskItem
	err := c.do(ctx, http.MethodPost, "task-lists/templates/"+url.PathEscape(templateID)+"/tasks", map[string]any{"title": title}, &resp)
	return resp, err
}

// Events returns recent audit events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
