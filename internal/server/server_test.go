package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"teamtask/internal/db"
	"teamtask/internal/domain"
	"teamtask/internal/engine"
	"teamtask/internal/engine/auth"
	"teamtask/internal/migrate"
	teamtasksdk "teamtask/sdk/go"
)

const testSecret = "test-secret"

type testServer struct {
	URL     string
	Engine  engine.Engine
	Manager auth.Actor
	Member  auth.Actor
	Other   auth.Actor
	client  *http.Client
	close   func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, nil)
	e.Now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	testSrv := &testServer{Engine: e, client: &http.Client{}}
	testSrv.Manager, testSrv.Member = seedCompany(t, e, "Acme")
	testSrv.Other, _ = seedCompany(t, e, "Globex")

	handler, err := New(Config{
		Engine:   e,
		BasePath: "/api",
		Auth:     AuthConfig{JWTSecret: testSecret, AllowDevLogin: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv.URL = "http://" + ln.Addr().String()
	testSrv.close = func() {
		srv.Shutdown(context.Background())
		ln.Close()
		conn.Close()
	}
	return testSrv, func() { testSrv.Close() }
}

func seedCompany(t *testing.T, e engine.Engine, name string) (manager, member auth.Actor) {
	t.Helper()
	ctx := context.Background()
	c, err := e.CreateCompany(ctx, name, "")
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	m, err := e.CreateUser(ctx, c.ID, "boss@"+c.Slug+".test", "Boss", auth.RoleManager)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	u, err := e.CreateUser(ctx, c.ID, "crew@"+c.Slug+".test", "Crew", auth.RoleMember)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return auth.Actor{UserID: m.ID, CompanyID: c.ID, Role: m.Role},
		auth.Actor{UserID: u.ID, CompanyID: c.ID, Role: u.Role}
}

func (s *testServer) bearer(t *testing.T, a auth.Actor) map[string]string {
	t.Helper()
	token, err := IssueToken(testSecret, a, time.Hour, s.Engine.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error apiErrorBody `json:"error"`
}

func decodeError(t *testing.T, data []byte) apiErrorBody {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v (%s)", err, string(data))
	}
	return env.Error
}

func (s *testServer) createTemplate(t *testing.T, body map[string]any, tasks ...string) domain.Template {
	t.Helper()
	hdr := s.bearer(t, s.Manager)
	res, data := doJSON(t, s.Client(), http.MethodPost, s.URL+"/api/task-lists/templates", body, hdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create template status %d: %s", res.StatusCode, string(data))
	}
	var tpl domain.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		t.Fatalf("unmarshal template: %v", err)
	}
	for _, title := range tasks {
		res, data := doJSON(t, s.Client(), http.MethodPost, s.URL+"/api/task-lists/templates/"+tpl.ID+"/tasks", map[string]any{"title": title}, hdr)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
		}
	}
	return tpl
}

func (s *testServer) summary(t *testing.T, a auth.Actor, date string) domain.DaySummary {
	t.Helper()
	res, data := doJSON(t, s.Client(), http.MethodGet, s.URL+"/api/task-lists/day-summary?date="+date, nil, s.bearer(t, a))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("day summary status %d: %s", res.StatusCode, string(data))
	}
	var out domain.DaySummary
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	return out
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/templates", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}
	if code := decodeError(t, data).Code; code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %s", code)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/templates", nil, map[string]string{"Authorization": "Bearer nope"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", res.StatusCode)
	}
	if code := decodeError(t, data).Code; code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %s", code)
	}

	forged, err := IssueToken("other-secret", srv.Manager, time.Hour, srv.Engine.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/me", nil, map[string]string{"Authorization": "Bearer " + forged})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", res.StatusCode)
	}
}

func TestDaySummaryAndCompletionToggle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	// 2024-03-01 is a Friday.
	tpl := srv.createTemplate(t, map[string]any{
		"name":        "Friday close",
		"type":        "closing",
		"period_type": "weekly",
		"day_of_week": 5,
	}, "Count till", "Lock doors")
	srv.createTemplate(t, map[string]any{
		"name":        "Monday open",
		"type":        "opening",
		"period_type": "weekly",
		"day_of_week": 1,
	}, "Unlock")

	sum := srv.summary(t, srv.Member, "2024-03-01")
	if sum.Date != "2024-03-01" {
		t.Fatalf("unexpected date %s", sum.Date)
	}
	if len(sum.Assignments) != 1 {
		t.Fatalf("expected 1 assignment on friday, got %d", len(sum.Assignments))
	}
	a := sum.Assignments[0]
	if a.TemplateID != tpl.ID || len(a.Tasks) != 2 {
		t.Fatalf("unexpected assignment %+v", a)
	}
	if a.Tasks[0].Title != "Count till" || a.Tasks[0].MyCompletedAt != nil {
		t.Fatalf("unexpected first task %+v", a.Tasks[0])
	}

	taskID := a.Tasks[0].TaskTemplateID
	url := srv.URL + "/api/task-lists/assignments/" + a.ID + "/tasks/" + taskID + "/complete"
	res, data := doJSON(t, srv.Client(), http.MethodPut, url, map[string]any{"completed": true}, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}
	var c domain.Completion
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal completion: %v", err)
	}
	if c.CompletedAt == nil || c.UserID != srv.Member.UserID {
		t.Fatalf("unexpected completion %+v", c)
	}

	if got := srv.summary(t, srv.Member, "2024-03-01").Assignments[0].Tasks[0].MyCompletedAt; got == nil {
		t.Fatalf("member should see own completion")
	}
	if got := srv.summary(t, srv.Manager, "2024-03-01").Assignments[0].Tasks[0].MyCompletedAt; got != nil {
		t.Fatalf("manager should not see member's completion as own")
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/assignments/"+a.ID+"/completions", nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list completions status %d: %s", res.StatusCode, string(data))
	}
	var list CompletionList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal completions: %v", err)
	}
	if len(list.Completions) != 1 || list.Completions[0].UserID != srv.Member.UserID {
		t.Fatalf("unexpected completions %+v", list.Completions)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/assignments/"+a.ID+"/completions", nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member listing all completions expected 403, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/assignments/"+a.ID+"/completions?mine=true", nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("member listing own completions expected 200, got %d", res.StatusCode)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPut, url, map[string]any{"completed": false}, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("uncomplete status %d: %s", res.StatusCode, string(data))
	}
	if got := srv.summary(t, srv.Member, "2024-03-01").Assignments[0].Tasks[0].MyCompletedAt; got != nil {
		t.Fatalf("expected completion cleared, got %v", *got)
	}
}

func TestAssignmentsEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	srv.createTemplate(t, map[string]any{"name": "Daily sweep", "type": "cleaning", "period_type": "daily"}, "Sweep")
	once := srv.createTemplate(t, map[string]any{"name": "Inventory", "type": "audit", "period_type": "one_time"}, "Count")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/task-lists/assignments", map[string]any{
		"template_id":   once.ID,
		"assigned_date": "2024-03-04",
		"assignee_id":   srv.Member.UserID,
	}, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create assignment status %d: %s", res.StatusCode, string(data))
	}
	var created domain.Assignment
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal assignment: %v", err)
	}
	if created.AssigneeID == nil || *created.AssigneeID != srv.Member.UserID || created.Scheduled {
		t.Fatalf("unexpected assignment %+v", created)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/assignments?date=2024-03-04", nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list assignments status %d: %s", res.StatusCode, string(data))
	}
	var list AssignmentList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal assignments: %v", err)
	}
	if len(list.Assignments) != 2 {
		t.Fatalf("expected daily plus one_time, got %d", len(list.Assignments))
	}

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/task-lists/assignments/"+created.ID, nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member delete expected 403, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/task-lists/assignments/"+created.ID, nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/task-lists/assignments/"+created.ID, nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", res.StatusCode)
	}
}

func TestTemplateErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/task-lists/templates", map[string]any{
		"name": "Weekly", "type": "x", "period_type": "weekly",
	}, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	body := decodeError(t, data)
	if body.Code != "bad_request" || body.Details["field"] != "day_of_week" {
		t.Fatalf("unexpected error %+v", body)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/task-lists/templates", map[string]any{
		"name": "Daily", "type": "x", "period_type": "daily",
	}, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member create expected 403, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/templates/missing", nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if msg := decodeError(t, data).Message; msg != "template not found" {
		t.Fatalf("unexpected message %q", msg)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/day-summary?date=2024-02-30", nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid date expected 400, got %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/day-summary", nil, srv.bearer(t, srv.Member))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing date expected 400, got %d", res.StatusCode)
	}
}

func TestTemplateUpdateAndTenantScope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	tpl := srv.createTemplate(t, map[string]any{
		"name": "Rent", "type": "admin", "period_type": "monthly", "day_of_month": 1,
	})

	res, data := doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/api/task-lists/templates/"+tpl.ID, map[string]any{
		"period_type": "yearly", "recur_month": 3, "recur_day": 1,
	}, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, string(data))
	}
	var updated domain.Template
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("unmarshal template: %v", err)
	}
	if updated.PeriodType != "yearly" || updated.DayOfMonth != nil || updated.RecurMonth == nil || *updated.RecurMonth != 3 {
		t.Fatalf("unexpected update %+v", updated)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/task-lists/templates/"+tpl.ID, nil, srv.bearer(t, srv.Other))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign tenant expected 404, got %d", res.StatusCode)
	}
	if got := srv.summary(t, srv.Other, "2024-03-01"); len(got.Assignments) != 0 {
		t.Fatalf("foreign tenant sees %d assignments", len(got.Assignments))
	}
	if got := srv.summary(t, srv.Member, "2024-03-01"); len(got.Assignments) != 1 {
		t.Fatalf("expected yearly occurrence on mar 1, got %d", len(got.Assignments))
	}

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/task-lists/templates/"+tpl.ID, nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete template expected 204, got %d", res.StatusCode)
	}
	if got := srv.summary(t, srv.Member, "2024-03-01"); len(got.Assignments) != 0 {
		t.Fatalf("deleted template still summarized")
	}
}

func TestDevLoginAndAPIKeys(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/dev/login", map[string]any{"user_id": srv.Member.UserID}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(data))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	hdr := map[string]string{"Authorization": "Bearer " + login.Token}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/me", nil, hdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me WhoAmIResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.UserID != srv.Member.UserID || me.Role != auth.RoleMember || me.Source != "jwt" {
		t.Fatalf("unexpected me %+v", me)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/api-keys", map[string]any{"name": "kiosk"}, hdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create api key status %d: %s", res.StatusCode, string(data))
	}
	var key APIKeyCreatedResponse
	if err := json.Unmarshal(data, &key); err != nil {
		t.Fatalf("unmarshal key: %v", err)
	}
	if key.Key == "" {
		t.Fatalf("expected plain key in response")
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/me", nil, map[string]string{"X-Api-Key": key.Key})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("api key me status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.UserID != srv.Member.UserID || me.Source != "api_key" {
		t.Fatalf("unexpected api key principal %+v", me)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/api-keys/"+key.ID, nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("revoke expected 204, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/me", nil, map[string]string{"X-Api-Key": key.Key})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked key expected 401, got %d", res.StatusCode)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/events?limit=10", nil, srv.bearer(t, srv.Manager))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var evts EventList
	if err := json.Unmarshal(data, &evts); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(evts.Items) != 2 || evts.Items[0].Type != "api_key.deleted" {
		t.Fatalf("unexpected events %+v", evts.Items)
	}
}

func TestOpenAPIIsPublic(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", res.StatusCode)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/task-lists/day-summary"]; !ok {
		t.Fatalf("day-summary missing from openapi paths")
	}
}

func TestSDKRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	anon := teamtasksdk.New(srv.URL + "/api")
	token, err := anon.DevLogin(ctx, srv.Manager.UserID)
	if err != nil {
		t.Fatalf("dev login: %v", err)
	}
	mgr := teamtasksdk.New(srv.URL + "/api")
	mgr.BearerToken = token

	name, typ, kind, dom := "Payroll", "admin", "monthly", 1
	tpl, err := mgr.CreateTemplate(ctx, teamtasksdk.TemplateParams{Name: &name, Type: &typ, PeriodType: &kind, DayOfMonth: &dom})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := mgr.AddTaskItem(ctx, tpl.ID, "Run payroll"); err != nil {
		t.Fatalf("add task: %v", err)
	}
	items, err := mgr.TaskItems(ctx, tpl.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("task items %v, %v", items, err)
	}

	sum, err := mgr.DaySummary(ctx, "2024-04-01")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Assignments) != 1 || len(sum.Assignments[0].Tasks) != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	a := sum.Assignments[0]
	c, err := mgr.SetCompletion(ctx, a.ID, a.Tasks[0].TaskTemplateID, true)
	if err != nil || c.CompletedAt == nil {
		t.Fatalf("set completion %+v, %v", c, err)
	}
	mine, err := mgr.Completions(ctx, a.ID, true)
	if err != nil || len(mine) != 1 {
		t.Fatalf("my completions %v, %v", mine, err)
	}

	if _, err := mgr.DaySummary(ctx, "April 1"); err == nil {
		t.Fatalf("expected error for bad date")
	} else if apiErr, ok := err.(*teamtasksdk.APIError); !ok || apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "bad_request" {
		t.Fatalf("unexpected error %v", err)
	}

	if err := mgr.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	tpls, err := mgr.Templates(ctx)
	if err != nil || len(tpls) != 0 {
		t.Fatalf("templates after delete %v, %v", tpls, err)
	}
}
