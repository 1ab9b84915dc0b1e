// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/jiragw/lib/config"
	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/wire"
	"github.com/bureau-foundation/jiragw/lib/workflow"
)

// protocolVersion is reported to GET_SERVER_VERSION. It versions the
// wire protocol, not the gateway.
const protocolVersion = "1.0"

// minimumJIRABuild is the build number of JIRA 5.0, the oldest server
// whose REST API carries everything the gateway needs.
const minimumJIRABuild = 700

// defaultQueryBatchSize is the page size for defect queries.
const defaultQueryBatchSize = 100

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Config is the loaded gateway configuration. Required.
	Config *config.Config

	// BatchSize is the defect query page size. Defaults to 100.
	BatchSize int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// NewRemote builds the JIRA client at LOGIN. Defaults to
	// jira.NewClient; tests substitute a fake.
	NewRemote func(jira.Config) (Remote, error)
}

// Handler serves replication engine requests for one session. It is
// not safe for concurrent dispatch; the server runs one connection at
// a time.
type Handler struct {
	logger    *slog.Logger
	config    *config.Config
	workflows *workflow.Set
	batchSize int
	newRemote func(jira.Config) (Remote, error)

	remote        Remote
	cache         *remoteCache
	serverVersion string

	// Segment state set by SEGMENT_FILTERS and consumed by queries.
	segmentFilter string
	projectList   string
}

// NewHandler creates a handler.
func NewHandler(options HandlerOptions) *Handler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = defaultQueryBatchSize
	}
	newRemote := options.NewRemote
	if newRemote == nil {
		newRemote = func(cfg jira.Config) (Remote, error) {
			return jira.NewClient(cfg)
		}
	}
	return &Handler{
		logger:    logger,
		config:    options.Config,
		workflows: options.Config.WorkflowSet(),
		batchSize: batchSize,
		newRemote: newRemote,
	}
}

// Dispatch handles one request and returns the response plus whether
// the engine asked the gateway to shut down.
func (h *Handler) Dispatch(ctx context.Context, request *wire.Request) (wire.Response, bool) {
	h.logger.Debug("dispatching request", slog.String("name", request.Name))

	switch request.Name {
	case "SHUTDOWN":
		return wire.NewStrings("CLOSING"), true
	case "CONNECT":
		return wire.NewStrings("connected"), false
	case "PING":
		return wire.NewStrings("PONG"), false
	case "GET_SERVER_VERSION":
		return wire.NewStrings(protocolVersion), false
	case "LOGIN":
		return h.respond(h.login(ctx, request)), false
	case "GET_SERVER_DATE":
		return h.respond(h.serverDate(ctx)), false
	case "LIST_PROJECTS":
		return h.respond(h.listProjects(ctx)), false
	case "GET_PROJECT":
		return h.respond(h.getProject(ctx, request)), false
	case "LIST_FIELDS":
		return h.respond(h.listFields(ctx, request)), false
	case "LIST_DEFECTS":
		return h.respond(h.listDefects(ctx, request)), false
	case "CREATE_DEFECT":
		return h.respond(h.createDefect(ctx, request)), false
	case "NEW_DEFECT":
		return h.respond(h.newDefect(ctx, request)), false
	case "GET_DEFECT":
		return h.respond(h.getDefect(ctx, request)), false
	case "SAVE_DEFECT":
		return h.respond(h.saveDefect(ctx, request)), false
	case "SEGMENT_FILTERS":
		return h.respond(h.segmentFilters(ctx, request)), false
	case "REFERENCED_FIELDS":
		// The engine announces which fields a segment references; the
		// gateway has no per-field setup to do.
		return wire.NewStrings("OK"), false
	default:
		return &wire.Error{Message: "Unknown element name in request: " + request.Name}, false
	}
}

// respond converts an operation result to a wire response.
func (h *Handler) respond(response wire.Response, err error) wire.Response {
	if err != nil {
		h.logger.Warn("request failed", slog.String("error", errMessage(err)))
		return errorResponse(err)
	}
	return response
}

// requireRemote fails operations issued before a successful LOGIN.
func (h *Handler) requireRemote() (Remote, error) {
	if h.remote == nil {
		return nil, requestErrorf("Not logged into the JIRA server. Please login first.")
	}
	return h.remote, nil
}

// login builds the JIRA client from the request credentials, verifies
// the server version, and reports it.
func (h *Handler) login(ctx context.Context, request *wire.Request) (wire.Response, error) {
	baseURL, ok := request.Attr("JIRA_URL")
	if !ok || baseURL == "" {
		return nil, requestErrorf("Missing JIRA_URL in login")
	}
	username, ok := request.Attr("JIRA_USER")
	if !ok || username == "" {
		return nil, requestErrorf("Missing JIRA_USER in login")
	}
	password, ok := request.Attr("JIRA_PASSWORD")
	if !ok || password == "" {
		return nil, requestErrorf("Missing JIRA_PASSWORD in login")
	}

	remote, err := h.newRemote(jira.Config{
		BaseURL:     baseURL,
		Username:    username,
		Password:    password,
		Timeout:     h.config.RequestTimeout(),
		DialTimeout: h.config.ConnectionTimeout(),
		Logger:      h.logger,
	})
	if err != nil {
		return nil, loginError(err)
	}

	info, err := remote.ServerInfo(ctx)
	if err != nil {
		return nil, loginError(err)
	}
	if info.BuildNumber < minimumJIRABuild {
		return nil, requestErrorf("The gateway only supports JIRA server version 5 or greater.")
	}

	h.remote = remote
	h.cache = newRemoteCache()
	h.serverVersion = info.Version
	h.logger.Info("logged in",
		slog.String("url", baseURL),
		slog.String("user", username),
		slog.String("version", info.Version),
	)
	return wire.NewStrings(info.Version), nil
}

func loginError(err error) *RequestError {
	return requestErrorf("Error occurred while logging into the JIRA server. "+
		"Please make sure the JIRA server URL, username and password are correct. %s",
		errMessage(err))
}

// serverDate reports the JIRA server's local time.
func (h *Handler) serverDate(ctx context.Context) (wire.Response, error) {
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}
	info, err := remote.ServerInfo(ctx)
	if err != nil {
		return nil, requestErrorf("Error occurred while getting the JIRA server date time: %s", errMessage(err))
	}
	if info.ServerTime == "" {
		return nil, requestErrorf("Error occurred while getting the JIRA server date time: the server reported no time")
	}
	serverTime, err := parseRemoteDate(info.ServerTime)
	if err != nil {
		return nil, requestErrorf("Error occurred while getting the JIRA server date time: %s", errMessage(err))
	}
	return wire.NewStrings(serverTime.Format(protocolDateLayout)), nil
}

// listProjects reports the keys of every visible project.
func (h *Handler) listProjects(ctx context.Context) (wire.Response, error) {
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}
	keys, err := h.cache.allProjectKeys(ctx, remote)
	if err != nil {
		return nil, requestErrorf("Error occurred while getting project list: %s", errMessage(err))
	}
	return wire.NewStrings(keys...), nil
}

// getProject verifies a project key. The wildcard passes through.
func (h *Handler) getProject(ctx context.Context, request *wire.Request) (wire.Response, error) {
	key, ok := request.Attr("PROJECT")
	if !ok || key == "" {
		return nil, requestErrorf("Missing PROJECT in getProject")
	}
	if key == AllProjects {
		return wire.NewStrings(key), nil
	}
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}
	project, err := h.cache.project(ctx, remote, key)
	if err != nil {
		return nil, requestErrorf("Error occurred while retrieving project: %s :%s", key, errMessage(err))
	}
	if project == nil {
		return nil, requestErrorf("Unknown project requested: %s", key)
	}
	return wire.NewStrings(project.Key), nil
}

// segmentFilters stores the segment's project list and its filter,
// translated to JQL, for use by later defect queries.
func (h *Handler) segmentFilters(ctx context.Context, request *wire.Request) (wire.Response, error) {
	if _, err := h.requireRemote(); err != nil {
		return nil, err
	}

	projectList, _ := request.Attr("PROJECT_LIST")
	h.projectList = projectList

	filter, _ := request.Attr("SEGMENT_FILTER")
	if filter == "" {
		h.segmentFilter = ""
		return wire.NewStrings("OK"), nil
	}

	projectID, _ := request.Attr("PROJID")
	translator, err := h.segmentTranslator(ctx, projectID)
	if err != nil {
		return nil, requestErrorf("Error occurred while setting segment filters: %s", errMessage(err))
	}
	h.segmentFilter = translator.Translate(filter)
	h.logger.Debug("segment filter set",
		slog.String("projects", projectList),
		slog.String("filter", h.segmentFilter),
	)
	return wire.NewStrings("OK"), nil
}
