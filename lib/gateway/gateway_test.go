// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/jiragw/lib/config"
	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/wire"
	"github.com/bureau-foundation/jiragw/lib/workflow"
)

// fakeRemote is an in-memory JIRA server for handler tests. Mutating
// calls are recorded for assertions.
type fakeRemote struct {
	username   string
	serverInfo *jira.ServerInfo
	infoErr    error

	projects       []jira.Project
	projectsErr    error
	issueTypes     []jira.NamedValue
	projectTypes   map[string][]jira.NamedValue
	priorities     []jira.NamedValue
	resolutions    []jira.NamedValue
	statuses       []jira.NamedValue
	fields         []jira.Field
	issues         map[string]*jira.Issue
	transitions    map[string][]jira.Transition
	createMeta     *jira.CreateMeta
	createdKey     string
	searchPages    func(request jira.SearchRequest) (*jira.SearchResult, error)
	searchRequests []jira.SearchRequest

	createdFields     map[string]any
	updatedFields     map[string]any
	transitionKey     string
	transitionID      string
	transitionFields  map[string]any
	transitionComment string
	comments          []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		username: "replicator",
		serverInfo: &jira.ServerInfo{
			Version:     "9.4.0",
			BuildNumber: 940000,
			ServerTime:  "2026-08-30T10:15:30.000+0000",
		},
		projects: []jira.Project{
			{ID: "10000", Key: "TEST", Name: "Test Project"},
			{ID: "10001", Key: "OPS", Name: "Operations"},
		},
		issueTypes: []jira.NamedValue{
			{ID: "1", Name: "Bug"},
			{ID: "2", Name: "Task"},
		},
		priorities: []jira.NamedValue{
			{ID: "1", Name: "Blocker"},
			{ID: "2", Name: "Critical"},
		},
		resolutions: []jira.NamedValue{
			{ID: "1", Name: "Fixed"},
			{ID: "10", Name: "Won't Fix"},
		},
		statuses: []jira.NamedValue{
			{ID: "1", Name: "Open"},
			{ID: "3", Name: "In Progress"},
			{ID: "5", Name: "Resolved"},
		},
		fields: []jira.Field{
			{ID: "summary", Name: "Summary"},
			{ID: "description", Name: "Description"},
			{ID: "issuekey", Name: "Key"},
			{ID: "customfield_10100", Name: "Severity", Custom: true},
			{ID: "customfield_10101", Name: "Build Found", Custom: true},
			{ID: "customfield_10102", Name: "Verified On", Custom: true},
		},
		issues:      make(map[string]*jira.Issue),
		transitions: make(map[string][]jira.Transition),
	}
}

func (f *fakeRemote) Username() string { return f.username }

func (f *fakeRemote) ServerInfo(ctx context.Context) (*jira.ServerInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.serverInfo, nil
}

func (f *fakeRemote) AllProjects(ctx context.Context) ([]jira.Project, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeRemote) Project(ctx context.Context, key string) (*jira.Project, error) {
	for i := range f.projects {
		if f.projects[i].Key == key {
			return &f.projects[i], nil
		}
	}
	return nil, &jira.APIError{StatusCode: 404}
}

func (f *fakeRemote) ProjectIssueTypes(ctx context.Context, key string) ([]jira.NamedValue, error) {
	if types, ok := f.projectTypes[key]; ok {
		return types, nil
	}
	return f.issueTypes, nil
}

func (f *fakeRemote) Priorities(ctx context.Context) ([]jira.NamedValue, error) {
	return f.priorities, nil
}

func (f *fakeRemote) Resolutions(ctx context.Context) ([]jira.NamedValue, error) {
	return f.resolutions, nil
}

func (f *fakeRemote) Statuses(ctx context.Context) ([]jira.NamedValue, error) {
	return f.statuses, nil
}

func (f *fakeRemote) IssueTypes(ctx context.Context) ([]jira.NamedValue, error) {
	return f.issueTypes, nil
}

func (f *fakeRemote) Fields(ctx context.Context) ([]jira.Field, error) {
	return f.fields, nil
}

func (f *fakeRemote) Issue(ctx context.Context, key string) (*jira.Issue, error) {
	if issue, ok := f.issues[key]; ok {
		return issue, nil
	}
	return nil, &jira.APIError{StatusCode: 404}
}

func (f *fakeRemote) CreateIssue(ctx context.Context, fields map[string]any) (*jira.Issue, error) {
	f.createdFields = fields
	key := f.createdKey
	if key == "" {
		key = "TEST-100"
	}
	return &jira.Issue{Key: key}, nil
}

func (f *fakeRemote) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	f.updatedFields = fields
	return nil
}

func (f *fakeRemote) Transitions(ctx context.Context, key string) ([]jira.Transition, error) {
	return f.transitions[key], nil
}

func (f *fakeRemote) DoTransition(ctx context.Context, key, transitionID string, fields map[string]any, comment string) error {
	f.transitionKey = key
	f.transitionID = transitionID
	f.transitionFields = fields
	f.transitionComment = comment
	return nil
}

func (f *fakeRemote) AddComment(ctx context.Context, key, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeRemote) Search(ctx context.Context, request jira.SearchRequest) (*jira.SearchResult, error) {
	f.searchRequests = append(f.searchRequests, request)
	if f.searchPages != nil {
		return f.searchPages(request)
	}
	return &jira.SearchResult{}, nil
}

func (f *fakeRemote) CreateMeta(ctx context.Context, projectKey string) (*jira.CreateMeta, error) {
	if f.createMeta != nil {
		return f.createMeta, nil
	}
	return &jira.CreateMeta{
		Key: projectKey,
		IssueTypes: []jira.IssueTypeMeta{{
			ID:   "1",
			Name: "Bug",
			Fields: map[string]jira.MetaField{
				"priority": {
					FieldID: "priority",
					Name:    "Priority",
					AllowedValues: []jira.MetaFieldValue{
						{ID: "1", Name: "Blocker"},
						{ID: "2", Name: "Critical"},
					},
				},
			},
		}},
	}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workflows = []workflow.Workflow{{
		Name: "classic",
		Steps: []workflow.Step{
			{
				Name:         "Open Step",
				LinkedStatus: "Open",
				Transitions: []workflow.Transition{
					{Name: "Start Progress", DestinationStep: "In Progress Step"},
					{Name: "Resolve Issue", DestinationStep: "Resolved Step"},
				},
			},
			{
				Name:         "In Progress Step",
				LinkedStatus: "In Progress",
				Transitions: []workflow.Transition{
					{Name: "Resolve Issue", DestinationStep: "Resolved Step"},
				},
			},
			{
				Name:         "Resolved Step",
				LinkedStatus: "Resolved",
				Transitions: []workflow.Transition{
					{Name: "Reopen Issue", DestinationStep: "Open Step"},
				},
			},
		},
		ResolutionTransitions: []string{"Resolve Issue"},
	}}
	cfg.CustomFields = []config.CustomField{
		{Name: "Severity", Access: "RW", Type: "SELECT", Options: []string{"Low", "High"}},
		{Name: "Build Found", Access: "RO", Type: "LINE"},
		{Name: "Verified On", Access: "RW", Type: "DATE"},
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustRequest(t *testing.T, payload string) *wire.Request {
	t.Helper()
	request, err := wire.ParseRequest(payload)
	if err != nil {
		t.Fatalf("ParseRequest(%q): %v", payload, err)
	}
	return request
}

// newTestHandler builds a handler wired to the fake and logs it in.
func newTestHandler(t *testing.T, fake *fakeRemote) *Handler {
	t.Helper()
	handler := NewHandler(HandlerOptions{
		Config:    testConfig(),
		BatchSize: 2,
		Logger:    discardLogger(),
		NewRemote: func(jira.Config) (Remote, error) { return fake, nil },
	})
	response, _ := handler.Dispatch(context.Background(),
		mustRequest(t, `<LOGIN JIRA_URL="http://jira.example.com" JIRA_USER="replicator" JIRA_PASSWORD="secret"/>`))
	if message, ok := errorMessage(response); ok {
		t.Fatalf("login failed: %s", message)
	}
	return handler
}

func errorMessage(response wire.Response) (string, bool) {
	if errResponse, ok := response.(*wire.Error); ok {
		return errResponse.Message, true
	}
	return "", false
}

func wantStrings(t *testing.T, response wire.Response, want ...string) {
	t.Helper()
	strs, ok := response.(*wire.Strings)
	if !ok {
		t.Fatalf("got %s, want STRINGS", wire.Render(response))
	}
	got := strs.Values()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func wantErrorResponse(t *testing.T, response wire.Response, want string) {
	t.Helper()
	message, ok := errorMessage(response)
	if !ok {
		t.Fatalf("got %s, want ERROR %q", wire.Render(response), want)
	}
	if message != want {
		t.Errorf("got error %q, want %q", message, want)
	}
}

func TestDispatchSimpleRequests(t *testing.T) {
	handler := newTestHandler(t, newFakeRemote())
	ctx := context.Background()

	tests := []struct {
		payload  string
		want     string
		shutdown bool
	}{
		{"<CONNECT/>", "connected", false},
		{"<PING/>", "PONG", false},
		{"<GET_SERVER_VERSION/>", "1.0", false},
		{"<REFERENCED_FIELDS/>", "OK", false},
		{"<SHUTDOWN/>", "CLOSING", true},
	}
	for _, test := range tests {
		response, shutdown := handler.Dispatch(ctx, mustRequest(t, test.payload))
		wantStrings(t, response, test.want)
		if shutdown != test.shutdown {
			t.Errorf("%s: shutdown = %v, want %v", test.payload, shutdown, test.shutdown)
		}
	}
}

func TestDispatchUnknownRequest(t *testing.T) {
	handler := newTestHandler(t, newFakeRemote())
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<FROBNICATE/>"))
	wantErrorResponse(t, response, "Unknown element name in request: FROBNICATE")
}

func TestLoginReportsServerVersion(t *testing.T) {
	fake := newFakeRemote()
	handler := NewHandler(HandlerOptions{
		Config:    testConfig(),
		Logger:    discardLogger(),
		NewRemote: func(jira.Config) (Remote, error) { return fake, nil },
	})
	response, _ := handler.Dispatch(context.Background(),
		mustRequest(t, `<LOGIN JIRA_URL="http://jira.example.com" JIRA_USER="u" JIRA_PASSWORD="p"/>`))
	wantStrings(t, response, "9.4.0")
}

func TestLoginPassesConfiguredTimeouts(t *testing.T) {
	fake := newFakeRemote()
	var got jira.Config
	handler := NewHandler(HandlerOptions{
		Config: testConfig(),
		Logger: discardLogger(),
		NewRemote: func(cfg jira.Config) (Remote, error) {
			got = cfg
			return fake, nil
		},
	})
	response, _ := handler.Dispatch(context.Background(),
		mustRequest(t, `<LOGIN JIRA_URL="http://jira" JIRA_USER="u" JIRA_PASSWORD="p"/>`))
	if message, ok := errorMessage(response); ok {
		t.Fatalf("login failed: %s", message)
	}
	if got.Timeout != 60*time.Second {
		t.Errorf("request timeout = %v, want 60s", got.Timeout)
	}
	if got.DialTimeout != 30*time.Second {
		t.Errorf("dial timeout = %v, want 30s", got.DialTimeout)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	handler := NewHandler(HandlerOptions{Config: testConfig(), Logger: discardLogger()})
	ctx := context.Background()

	response, _ := handler.Dispatch(ctx, mustRequest(t, `<LOGIN JIRA_USER="u" JIRA_PASSWORD="p"/>`))
	wantErrorResponse(t, response, "Missing JIRA_URL in login")

	response, _ = handler.Dispatch(ctx, mustRequest(t, `<LOGIN JIRA_URL="http://jira" JIRA_PASSWORD="p"/>`))
	wantErrorResponse(t, response, "Missing JIRA_USER in login")

	response, _ = handler.Dispatch(ctx, mustRequest(t, `<LOGIN JIRA_URL="http://jira" JIRA_USER="u"/>`))
	wantErrorResponse(t, response, "Missing JIRA_PASSWORD in login")
}

func TestLoginRejectsOldServer(t *testing.T) {
	fake := newFakeRemote()
	fake.serverInfo.BuildNumber = 640
	handler := NewHandler(HandlerOptions{
		Config:    testConfig(),
		Logger:    discardLogger(),
		NewRemote: func(jira.Config) (Remote, error) { return fake, nil },
	})
	response, _ := handler.Dispatch(context.Background(),
		mustRequest(t, `<LOGIN JIRA_URL="http://jira" JIRA_USER="u" JIRA_PASSWORD="p"/>`))
	wantErrorResponse(t, response, "The gateway only supports JIRA server version 5 or greater.")
}

func TestLoginFailureWrapsMessage(t *testing.T) {
	fake := newFakeRemote()
	fake.infoErr = &jira.APIError{StatusCode: 401, Messages: []string{"bad credentials"}}
	handler := NewHandler(HandlerOptions{
		Config:    testConfig(),
		Logger:    discardLogger(),
		NewRemote: func(jira.Config) (Remote, error) { return fake, nil },
	})
	response, _ := handler.Dispatch(context.Background(),
		mustRequest(t, `<LOGIN JIRA_URL="http://jira" JIRA_USER="u" JIRA_PASSWORD="p"/>`))
	message, ok := errorMessage(response)
	if !ok {
		t.Fatalf("got %s, want ERROR", wire.Render(response))
	}
	if !strings.HasPrefix(message, "Error occurred while logging into the JIRA server. ") {
		t.Errorf("got %q, want login failure prefix", message)
	}
	if !strings.Contains(message, "bad credentials") {
		t.Errorf("got %q, want cause included", message)
	}
}

func TestRequestsBeforeLoginFail(t *testing.T) {
	handler := NewHandler(HandlerOptions{Config: testConfig(), Logger: discardLogger()})
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<LIST_PROJECTS/>"))
	message, ok := errorMessage(response)
	if !ok || !strings.Contains(message, "login first") {
		t.Errorf("got %s, want not-logged-in error", wire.Render(response))
	}
}

func TestServerDate(t *testing.T) {
	handler := newTestHandler(t, newFakeRemote())
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<GET_SERVER_DATE/>"))
	wantStrings(t, response, "2026/08/30 10:15:30")
}

func TestServerDateMissing(t *testing.T) {
	fake := newFakeRemote()
	handler := newTestHandler(t, fake)
	fake.serverInfo.ServerTime = ""
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<GET_SERVER_DATE/>"))
	message, ok := errorMessage(response)
	if !ok || !strings.HasPrefix(message, "Error occurred while getting the JIRA server date time:") {
		t.Errorf("got %s, want server date error", wire.Render(response))
	}
}

func TestListProjects(t *testing.T) {
	handler := newTestHandler(t, newFakeRemote())
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<LIST_PROJECTS/>"))
	wantStrings(t, response, "TEST", "OPS")
}

func TestListProjectsPermissionFailure(t *testing.T) {
	fake := newFakeRemote()
	handler := newTestHandler(t, fake)
	fake.projectsErr = &jira.APIError{StatusCode: 403}
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<LIST_PROJECTS/>"))
	wantErrorResponse(t, response,
		"Error occurred while getting project list: No projects found:  check jira permissions for jira user.")
}

func TestListProjectsEmptyResult(t *testing.T) {
	fake := newFakeRemote()
	handler := newTestHandler(t, fake)
	fake.projects = nil
	response, _ := handler.Dispatch(context.Background(), mustRequest(t, "<LIST_PROJECTS/>"))
	wantErrorResponse(t, response,
		"Error occurred while getting project list: No projects found:  check jira permissions for jira user.")

	// The empty result must not stick in the cache; the list recovers
	// once projects become visible.
	fake.projects = []jira.Project{{ID: "10000", Key: "TEST", Name: "Test Project"}}
	response, _ = handler.Dispatch(context.Background(), mustRequest(t, "<LIST_PROJECTS/>"))
	wantStrings(t, response, "TEST")
}

func TestGetProject(t *testing.T) {
	handler := newTestHandler(t, newFakeRemote())
	ctx := context.Background()

	response, _ := handler.Dispatch(ctx, mustRequest(t, `<GET_PROJECT PROJECT="TEST"/>`))
	wantStrings(t, response, "TEST")

	response, _ = handler.Dispatch(ctx, mustRequest(t, `<GET_PROJECT PROJECT="*All*"/>`))
	wantStrings(t, response, "*All*")

	response, _ = handler.Dispatch(ctx, mustRequest(t, `<GET_PROJECT PROJECT="NOPE"/>`))
	wantErrorResponse(t, response, "Unknown project requested: NOPE")

	response, _ = handler.Dispatch(ctx, mustRequest(t, "<GET_PROJECT/>"))
	wantErrorResponse(t, response, "Missing PROJECT in getProject")
}

func TestSegmentFiltersTranslate(t *testing.T) {
	fake := newFakeRemote()
	handler := newTestHandler(t, fake)
	response, _ := handler.Dispatch(context.Background(), mustRequest(t,
		`<SEGMENT_FILTERS PROJID="TEST" PROJECT_LIST="TEST,OPS" SEGMENT_FILTER="AND (Priority='Critical')"/>`))
	wantStrings(t, response, "OK")
	if handler.projectList != "TEST,OPS" {
		t.Errorf("projectList = %q", handler.projectList)
	}
	if want := `AND (priority="2")`; handler.segmentFilter != want {
		t.Errorf("segmentFilter = %q, want %q", handler.segmentFilter, want)
	}
}

// issueFixture is the issue used by outbound rendering tests.
func issueFixture() *jira.Issue {
	return &jira.Issue{
		ID:  "10042",
		Key: "TEST-42",
		Fields: jira.IssueFields{
			Summary:     "Crash on startup",
			Description: "Crashes before the splash screen.",
			Reporter:    &jira.User{Name: "alice"},
			Assignee:    &jira.User{EmailAddress: "bob@example.com"},
			IssueType:   &jira.NamedValue{ID: "1", Name: "Bug"},
			Priority:    &jira.NamedValue{ID: "2", Name: "Critical"},
			Status:      &jira.NamedValue{ID: "1", Name: "Open"},
			Comments:    []jira.Comment{{Body: "first"}, {Body: "second"}},
			FixVersions: []jira.NamedValue{{Name: "1.0"}, {Name: "1.1"}},
			Project:     &jira.Project{ID: "10000", Key: "TEST"},
			DueDate:     "2026-09-15",
			Updated:     "2026-08-30T10:15:30.000+0000",
			Custom: map[string]json.RawMessage{
				"customfield_10100": json.RawMessage(`{"value":"High"}`),
				"customfield_10101": json.RawMessage(`"build-77"`),
			},
		},
		Names: map[string]string{
			"customfield_10100": "Severity",
			"customfield_10101": "Build Found",
			"customfield_10102": "Verified On",
		},
	}
}
