package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"changelog.dev/changelog/internal/errors"
)

var githubURLRe = regexp.MustCompile(`https://github\.com/([\w\-.]+?)/([\w\-.]+?)(?:\.git)?/?$`)

// RepoRef locates the repository of one product
type RepoRef struct {
	URL   string
	Owner string
	Repo  string
	Ref   string
	LFS   bool
}

// repoEntry is a repos.yaml value: either a bare URL or a mapping
type repoEntry struct {
	URL string `yaml:"url"`
	Ref string `yaml:"ref"`
	LFS bool   `yaml:"lfs"`
}

func (e *repoEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.URL = value.Value
		return nil
	}
	type plain repoEntry
	return value.Decode((*plain)(e))
}

// RepoMap maps product names to repositories
type RepoMap map[string]RepoRef

// ParseReposYAML parses a repos.yaml document. Entries whose URL does not
// point at github.com are skipped.
func ParseReposYAML(data []byte) (RepoMap, error) {
	var raw map[string]repoEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing repos.yaml: %w", err)
	}

	out := make(RepoMap, len(raw))
	for product, e := range raw {
		m := githubURLRe.FindStringSubmatch(e.URL)
		if m == nil {
			continue
		}
		out[product] = RepoRef{URL: e.URL, Owner: m[1], Repo: m[2], Ref: e.Ref, LFS: e.LFS}
	}
	return out, nil
}

// FetchReposYAML downloads and parses repos.yaml
func FetchReposYAML(ctx context.Context, client *http.Client, url string) (RepoMap, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching repos.yaml: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching repos.yaml: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading repos.yaml: %w", err)
	}
	return ParseReposYAML(data)
}

// Lookup returns the repository of a product
func (m RepoMap) Lookup(product string) (RepoRef, error) {
	ref, ok := m[product]
	if !ok {
		return RepoRef{}, errors.NewRepoNotFoundError(product)
	}
	return ref, nil
}

// Targets resolves products to fetch targets, sorted by product. Products
// rejected by skip or missing from the map are returned separately.
func (m RepoMap) Targets(products []string, skip func(string) bool) ([]Target, []string) {
	var targets []Target
	var missing []string
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if seen[p] || (skip != nil && skip(p)) {
			continue
		}
		seen[p] = true
		ref, err := m.Lookup(p)
		if err != nil {
			missing = append(missing, p)
			continue
		}
		targets = append(targets, Target{Name: p, Owner: ref.Owner, Repo: ref.Repo})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	sort.Strings(missing)
	return targets, missing
}
