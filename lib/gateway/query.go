// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/jql"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// defaultQueryLimit caps one listDefects call when the engine names no
// maximum.
const defaultQueryLimit = 200

// listDefects reports the keys of issues modified since a cutoff,
// scoped by the project argument and the active segment.
func (h *Handler) listDefects(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.Attr("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in listDefects")
	}
	date, _ := request.Attr("DATE")
	max, _ := request.Attr("MAX")
	modDateField, _ := request.Attr("MODDATE")

	if _, err := h.requireRemote(); err != nil {
		return nil, err
	}

	// The combined field exists only on the engine side; its parts are
	// not independently queryable as one JQL clause.
	if strings.Contains(h.segmentFilter, "(Status/Resolution=") {
		return nil, requestErrorf("Segmentation on Status/Resolution field is not supported")
	}

	// Normalize dates with space-padded parts, e.g. "2014/ 3/ 6 11:39: 3".
	if date != "" {
		parsed, err := parseProtocolDate(date)
		if err != nil {
			return nil, requestErrorf("Invalid date")
		}
		date = parsed.Format(protocolDateLayout)
	}

	legacy := h.config.LegacyQueryStyle()
	projects, err := h.projectScope(ctx, projectID, legacy)
	if err != nil {
		return nil, err
	}

	keys := wire.NewStrings()
	if legacy || len(projects) == 1 {
		for _, project := range projects {
			if err := h.queryDefects(ctx, project, nil, date, max, modDateField, keys); err != nil {
				return nil, err
			}
		}
	} else {
		if err := h.queryDefects(ctx, "", projects, date, max, modDateField, keys); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// projectScope resolves the project argument into the projects to
// query. A concrete key stands alone. The wildcard defers to the
// segment's project list, filtered to projects the user can query; an
// unsegmented wildcard means all projects in legacy mode and no
// project clause at all otherwise.
func (h *Handler) projectScope(ctx context.Context, projectID string, legacy bool) ([]string, error) {
	if !strings.EqualFold(projectID, AllProjects) {
		return []string{projectID}, nil
	}

	if h.projectList != "" && !strings.EqualFold(h.projectList, AllProjects) {
		var projects []string
		for _, project := range strings.Split(h.projectList, projectListSeparator) {
			if project != "" && h.cache.hasProjectAccess(ctx, h.remote, project) {
				projects = append(projects, project)
			}
		}
		if len(projects) == 0 {
			return nil, requestErrorf("The replication user does not have access to any of the projects in the segment; must have one.")
		}
		return projects, nil
	}

	if legacy {
		keys, err := h.cache.allProjectKeys(ctx, h.remote)
		if err != nil {
			return nil, requestErrorf("Error occurred while retrieving all projects: %s", errMessage(err))
		}
		return keys, nil
	}
	return nil, nil
}

// queryDefects pages through one JQL search and adds the issue keys to
// the result, skipping ignored projects. Duplicates across pages are
// possible when pages overlap; the result set drops them.
func (h *Handler) queryDefects(ctx context.Context, projectID string, projects []string, date, max, modDateField string, keys *wire.Strings) error {
	if projectID != "" {
		project, err := h.cache.project(ctx, h.remote, projectID)
		if err != nil {
			return requestErrorf("Error occurred while retrieving project: %s: %s", projectID, errMessage(err))
		}
		if project == nil {
			return requestErrorf("Unknown project: %s", projectID)
		}
	}

	limit := 0
	if max != "" {
		parsed, err := strconv.Atoi(max)
		if err != nil {
			h.logger.Warn("unparseable issue limit", slog.String("max", max))
		} else {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	batchSize := h.batchSize
	if batchSize > limit {
		batchSize = limit
	}

	builder := &jql.Query{
		Project:       projectID,
		Projects:      projects,
		ModDateField:  modDateField,
		Since:         date,
		SegmentFilter: h.segmentFilter,
		OrderBy:       "ORDER BY key ASC",
	}
	query, err := builder.Build()
	if err != nil {
		return requestErrorf("Error occurred while retrieving defects from project: %s, query = '': %s", projectID, errMessage(err))
	}
	h.logger.Info("querying defects",
		slog.String("query", query),
		slog.Int("batch", batchSize),
	)

	count := batchSize
	startAt := 0
	var ignored []string
	for count == batchSize {
		result, err := h.remote.Search(ctx, jira.SearchRequest{
			JQL:        query,
			StartAt:    startAt,
			MaxResults: batchSize,
			// Minus potential memory consuming fields.
			Fields: []string{"-description", "-comment"},
		})
		if err != nil {
			return requestErrorf("Error occurred while retrieving defects from project: %s, query = '%s': %s",
				projectID, query, errMessage(err))
		}
		count = 0
		for _, issue := range result.Issues {
			count++
			startAt++
			if issue.Fields.Project != nil && h.config.IsIgnoredProject(issue.Fields.Project.Key) {
				ignored = append(ignored, issue.Key)
				continue
			}
			keys.Add(issue.Key)
		}
	}
	if len(ignored) > 0 {
		h.logger.Debug("ignored issues", slog.String("keys", strings.Join(ignored, " ")))
	}
	return nil
}
