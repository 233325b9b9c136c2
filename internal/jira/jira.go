// Package jira looks up issue-tracker ticket summaries.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultProjects are the projects tickets are collected from. Later
// projects win on duplicate keys.
var DefaultProjects = []string{"SP", "DM"}

const defaultPageSize = 1000

type searchResponse struct {
	StartAt    int `json:"startAt"`
	MaxResults int `json:"maxResults"`
	Total      int `json:"total"`
	Issues     []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	} `json:"issues"`
}

// Client pages through the REST search endpoint
type Client struct {
	base     string
	http     *http.Client
	PageSize int
}

// NewClient creates a client for a REST API root such as
// https://rubinobs.atlassian.net/rest/api/2/
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:     strings.TrimSuffix(base, "/"),
		http:     httpClient,
		PageSize: defaultPageSize,
	}
}

// Tickets returns key -> summary for every issue of the given projects
func (c *Client) Tickets(ctx context.Context, projects ...string) (map[string]string, error) {
	if len(projects) == 0 {
		projects = DefaultProjects
	}
	out := make(map[string]string)
	for _, p := range projects {
		if err := c.project(ctx, p, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) project(ctx context.Context, project string, out map[string]string) error {
	startAt := 0
	for {
		page, err := c.search(ctx, project, startAt)
		if err != nil {
			return fmt.Errorf("searching %s issues: %w", project, err)
		}
		for _, issue := range page.Issues {
			out[issue.Key] = issue.Fields.Summary
		}
		// an empty page would otherwise loop forever
		if page.MaxResults <= 0 || len(page.Issues) == 0 {
			return nil
		}
		startAt += page.MaxResults
		if startAt >= page.Total {
			return nil
		}
	}
}

func (c *Client) search(ctx context.Context, project string, startAt int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("jql", "project="+project)
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(c.PageSize))
	q.Set("fields", "key,summary")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &page, nil
}

// TicketKey returns the tracker key of a DM ticket number
func TicketKey(ticket int) string {
	return fmt.Sprintf("DM-%d", ticket)
}
