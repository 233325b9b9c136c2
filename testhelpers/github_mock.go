package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
)

// MockTag is a tag served by the mock server. Tags with a TaggerDate are
// served as annotated tags.
type MockTag struct {
	Name       string
	CommitSHA  string
	CommitDate time.Time
	TaggerDate *time.Time
}

// MockRepo is the data of one mocked repository
type MockRepo struct {
	DefaultBranch string
	Tags          []MockTag
	Pulls         []*github.PullRequest
	// FailRequests answers this many repository lookups with a 500
	FailRequests int
}

// MockGitHubServerConfig configures the behavior of a mock GitHub server
type MockGitHubServerConfig struct {
	// Repos is keyed by "owner/repo"
	Repos map[string]*MockRepo
	// PageSize caps list responses; a Link header points at the next page
	PageSize int

	mu       sync.Mutex
	requests map[string]int
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		Repos:    make(map[string]*MockRepo),
		PageSize: 100,
		requests: make(map[string]int),
	}
}

// Requests returns how many requests hit the given path
func (c *MockGitHubServerConfig) Requests(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[path]
}

func (c *MockGitHubServerConfig) record(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[path]++
	return c.requests[path]
}

func (c *MockGitHubServerConfig) repo(r *http.Request) (*MockRepo, bool) {
	repo, ok := c.Repos[r.PathValue("owner")+"/"+r.PathValue("repo")]
	return repo, ok
}

// NewMockGitHubServer creates an httptest server that mocks the read-only
// GitHub endpoints used to build release history
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}
	if config.requests == nil {
		config.requests = make(map[string]int)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		n := config.record(r.URL.Path)
		repo, ok := config.repo(r)
		if !ok {
			notFound(w)
			return
		}
		if n <= repo.FailRequests {
			http.Error(w, `{"message":"Server Error"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, &github.Repository{
			Name:          github.String(r.PathValue("repo")),
			DefaultBranch: github.String(repo.DefaultBranch),
		})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/matching-refs/tags", func(w http.ResponseWriter, r *http.Request) {
		config.record(r.URL.Path)
		repo, ok := config.repo(r)
		if !ok {
			notFound(w)
			return
		}
		refs := make([]*github.Reference, 0, len(repo.Tags))
		for _, tag := range repo.Tags {
			obj := &github.GitObject{Type: github.String("commit"), SHA: github.String(tag.CommitSHA)}
			if tag.TaggerDate != nil {
				obj = &github.GitObject{Type: github.String("tag"), SHA: github.String(annotatedSHA(tag))}
			}
			refs = append(refs, &github.Reference{Ref: github.String("refs/tags/" + tag.Name), Object: obj})
		}
		writePage(w, r, config.PageSize, refs)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/tags/{sha}", func(w http.ResponseWriter, r *http.Request) {
		config.record(r.URL.Path)
		repo, ok := config.repo(r)
		if !ok {
			notFound(w)
			return
		}
		for _, tag := range repo.Tags {
			if tag.TaggerDate != nil && annotatedSHA(tag) == r.PathValue("sha") {
				writeJSON(w, &github.Tag{
					Tag:    github.String(tag.Name),
					SHA:    github.String(annotatedSHA(tag)),
					Tagger: &github.CommitAuthor{Date: &github.Timestamp{Time: *tag.TaggerDate}},
					Object: &github.GitObject{Type: github.String("commit"), SHA: github.String(tag.CommitSHA)},
				})
				return
			}
		}
		notFound(w)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		config.record(r.URL.Path)
		repo, ok := config.repo(r)
		if !ok {
			notFound(w)
			return
		}
		for _, tag := range repo.Tags {
			if tag.CommitSHA == r.PathValue("sha") {
				writeJSON(w, &github.Commit{
					SHA:       github.String(tag.CommitSHA),
					Committer: &github.CommitAuthor{Date: &github.Timestamp{Time: tag.CommitDate}},
				})
				return
			}
		}
		notFound(w)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls", func(w http.ResponseWriter, r *http.Request) {
		config.record(r.URL.Path)
		repo, ok := config.repo(r)
		if !ok {
			notFound(w)
			return
		}
		state := r.URL.Query().Get("state")
		pulls := make([]*github.PullRequest, 0, len(repo.Pulls))
		for _, pr := range repo.Pulls {
			if state == "" || state == "all" || pr.GetState() == state {
				pulls = append(pulls, pr)
			}
		}
		writePage(w, r, config.PageSize, pulls)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("Unhandled path: %s (method: %s)", r.URL.Path, r.Method), http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(func() { server.Close() })
	return server
}

// NewMockGitHubClient creates a GitHub client configured to use a mock server
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) *github.Client {
	server := NewMockGitHubServer(t, config)
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	return client
}

func annotatedSHA(tag MockTag) string {
	return "tag-" + tag.CommitSHA
}

func notFound(w http.ResponseWriter) {
	http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writePage writes one page of items with a GitHub style Link header
func writePage[T any](w http.ResponseWriter, r *http.Request, size int, items []T) {
	if size <= 0 {
		size = 100
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && perPage > 0 && perPage < size {
		size = perPage
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	if end < len(items) {
		next := *r.URL
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s>; rel="next"`, r.Host, next.String()))
	}
	writeJSON(w, items[start:end])
}
