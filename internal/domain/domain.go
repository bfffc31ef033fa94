package domain

type Company struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Slug      string `json:"slug" db:"slug"`
	CreatedAt string `json:"created_at" db:"created_at" format:"date-time"`
}

type User struct {
	ID          string `json:"id" db:"id"`
	CompanyID   string `json:"company_id" db:"company_id"`
	Email       string `json:"email" db:"email"`
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
	Role        string `json:"role" db:"role" enum:"owner,manager,member"`
	CreatedAt   string `json:"created_at" db:"created_at" format:"date-time"`
}

// Template is a recurring checklist definition. Only the recurrence
// parameters belonging to PeriodType are non-nil.
type Template struct {
	ID         string `json:"id" db:"id"`
	CompanyID  string `json:"company_id" db:"company_id"`
	Name       string `json:"name" db:"name"`
	Type       string `json:"type" db:"type"`
	PeriodType string `json:"period_type" db:"period_type" enum:"daily,weekly,monthly,yearly,one_time"`
	DayOfWeek  *int   `json:"day_of_week" db:"day_of_week"`
	DayOfMonth *int   `json:"day_of_month" db:"day_of_month"`
	RecurMonth *int   `json:"recur_month" db:"recur_month"`
	RecurDay   *int   `json:"recur_day" db:"recur_day"`
	CreatedAt  string `json:"created_at" db:"created_at" format:"date-time"`
	UpdatedAt  string `json:"updated_at" db:"updated_at" format:"date-time"`
}

type TaskItem struct {
	ID         string `json:"id" db:"id"`
	TemplateID string `json:"template_id" db:"template_id"`
	Title      string `json:"title" db:"title"`
	SortOrder  int    `json:"sort_order" db:"sort_order"`
	CreatedAt  string `json:"created_at" db:"created_at" format:"date-time"`
	UpdatedAt  string `json:"updated_at" db:"updated_at" format:"date-time"`
}

// Assignment is one dated occurrence of a template. A nil AssigneeID means the
// occurrence is shared: every member of the company tracks it independently.
type Assignment struct {
	ID           string  `json:"id" db:"id"`
	CompanyID    string  `json:"company_id" db:"company_id"`
	TemplateID   string  `json:"template_id" db:"template_id"`
	AssignedDate string  `json:"assigned_date" db:"assigned_date" format:"date"`
	AssigneeID   *string `json:"assignee_id" db:"assignee_id"`
	Scheduled    bool    `json:"scheduled" db:"scheduled"`
	CreatedAt    string  `json:"created_at" db:"created_at" format:"date-time"`
}

// Shared reports whether the occurrence is open to the whole company.
func (a Assignment) Shared() bool { return a.AssigneeID == nil }

// AssignedTo reports whether the occurrence belongs to exactly userID.
func (a Assignment) AssignedTo(userID string) bool {
	return a.AssigneeID != nil && *a.AssigneeID == userID
}

// AssignmentView is an assignment joined with its template and assignee.
type AssignmentView struct {
	Assignment
	TemplateName string  `json:"template_name" db:"template_name"`
	TemplateType string  `json:"template_type" db:"template_type"`
	PeriodType   string  `json:"period_type" db:"period_type"`
	DayOfWeek    *int    `json:"day_of_week" db:"day_of_week"`
	DayOfMonth   *int    `json:"day_of_month" db:"day_of_month"`
	RecurMonth   *int    `json:"recur_month" db:"recur_month"`
	RecurDay     *int    `json:"recur_day" db:"recur_day"`
	AssigneeName *string `json:"assignee_name" db:"assignee_name"`
}

// Completion is one user's mark against one task item of one assignment.
// A nil CompletedAt means not completed.
type Completion struct {
	ID             string  `json:"id" db:"id"`
	AssignmentID   string  `json:"assignment_id" db:"assignment_id"`
	TaskTemplateID string  `json:"task_template_id" db:"task_template_id"`
	UserID         string  `json:"user_id" db:"user_id"`
	CompletedAt    *string `json:"completed_at" db:"completed_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" db:"updated_at" format:"date-time"`
}

// CompletionView adds the task item title and order for listing.
type CompletionView struct {
	Completion
	TaskTitle string `json:"task_title" db:"task_title"`
	SortOrder int    `json:"sort_order" db:"sort_order"`
}

type SummaryTask struct {
	TaskTemplateID string  `json:"task_template_id" db:"task_template_id"`
	Title          string  `json:"title" db:"title"`
	SortOrder      int     `json:"sort_order" db:"sort_order"`
	MyCompletedAt  *string `json:"my_completed_at" db:"my_completed_at" format:"date-time"`
}

type SummaryAssignment struct {
	ID           string        `json:"id"`
	TemplateID   string        `json:"template_id"`
	TemplateName string        `json:"template_name"`
	TemplateType string        `json:"template_type"`
	PeriodType   string        `json:"period_type"`
	AssignedDate string        `json:"assigned_date" format:"date"`
	AssigneeID   *string       `json:"assignee_id"`
	AssigneeName *string       `json:"assignee_name"`
	Tasks        []SummaryTask `json:"tasks"`
}

// DaySummary is the per-user view of everything due on one date.
type DaySummary struct {
	Date        string              `json:"date" format:"date"`
	Assignments []SummaryAssignment `json:"assignments"`
}

type APIKey struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	Name      string `json:"name,omitempty" db:"name"`
	KeyHash   string `json:"key_hash" db:"key_hash"`
	CreatedAt string `json:"created_at" db:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id" db:"id"`
	TS         string `json:"ts" db:"ts" format:"date-time"`
	Type       string `json:"type" db:"type"`
	CompanyID  string `json:"company_id" db:"company_id"`
	EntityKind string `json:"entity_kind" db:"entity_kind"`
	EntityID   string `json:"entity_id" db:"entity_id"`
	ActorID    string `json:"actor_id" db:"actor_id"`
	Payload    string `json:"payload_json" db:"payload_json"`
}
