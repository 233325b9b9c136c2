// Package eups reads EUPS distribution tag lists and derives the packages
// added and removed by each release tag.
package eups

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

const listSuffix = ".list"

// Product is one line of a tag list
type Product struct {
	Name    string
	Version string
}

// Manifest is the product list published under one EUPS tag
type Manifest struct {
	Tag      tag.Tag
	Products []Product
}

// Names returns the product names of the manifest
func (m *Manifest) Names() []string {
	out := make([]string, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p.Name)
	}
	return out
}

// Options configures a Client
type Options struct {
	// SkipTags are EUPS tag names never read
	SkipTags []string
	// SkipProducts are dropped from every manifest
	SkipProducts []string
	Workers      int
}

// Client reads tag lists from an EUPS package root
type Client struct {
	pkgroot      string
	http         *http.Client
	skipTags     map[string]bool
	skipProducts map[string]bool
	workers      int
}

// NewClient creates a client for pkgroot, e.g. https://eups.lsst.codes/stack/src/
func NewClient(pkgroot string, httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Workers < 1 {
		opts.Workers = 5
	}
	return &Client{
		pkgroot:      strings.TrimSuffix(pkgroot, "/"),
		http:         httpClient,
		skipTags:     toSet(opts.SkipTags),
		skipProducts: toSet(opts.SkipProducts),
		workers:      opts.Workers,
	}
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, i := range items {
		out[i] = true
	}
	return out
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pkgroot+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", path, resp.Status)
	}
	return resp.Body, nil
}

// TagNames lists the tag names published in the package root's tag index
func (c *Client) TagNames(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "tags/")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	names, err := ParseTagIndex(body)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if !c.skipTags[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// Manifest reads the product list of one tag
func (c *Client) Manifest(ctx context.Context, t tag.Tag) (*Manifest, error) {
	body, err := c.get(ctx, "tags/"+t.Name()+listSuffix)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	products, err := ParseManifest(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", t.Name(), err)
	}
	kept := products[:0]
	for _, p := range products {
		if !c.skipProducts[p.Name] {
			kept = append(kept, p)
		}
	}
	return &Manifest{Tag: t, Products: kept}, nil
}

// Result is the package history of one cadence
type Result struct {
	Manifests []*Manifest
	// Diffs is keyed by tag display name
	Diffs map[string]snapshot.PackageDiff
}

// Products returns every product named by any manifest, sorted
func (r *Result) Products() []string {
	seen := make(map[string]bool)
	for _, m := range r.Manifests {
		for _, p := range m.Products {
			seen[p.Name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Load reads every tag list of the cadence and diffs consecutive tags
func (c *Client) Load(ctx context.Context, parser *tag.Parser, cadence tag.Cadence) (*Result, error) {
	names, err := c.TagNames(ctx)
	if err != nil {
		return nil, err
	}
	tags := SelectTags(names, parser, cadence)

	manifests := make([]*Manifest, len(tags))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, t := range tags {
		g.Go(func() error {
			m, err := c.Manifest(gctx, t)
			if err != nil {
				return err
			}
			manifests[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Manifests: manifests, Diffs: Diff(manifests)}, nil
}

// SelectTags parses tag names, keeps the ones of the cadence and sorts them
func SelectTags(names []string, parser *tag.Parser, cadence tag.Cadence) []tag.Tag {
	var out []tag.Tag
	for _, n := range names {
		t := parser.Parse(n)
		if t.Valid() && t.Matches(cadence) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Diff compares each manifest with its predecessor. The first manifest has
// nothing to compare against and gets no entry.
func Diff(manifests []*Manifest) map[string]snapshot.PackageDiff {
	out := make(map[string]snapshot.PackageDiff)
	for i := 1; i < len(manifests); i++ {
		prev := toSet(manifests[i-1].Names())
		cur := toSet(manifests[i].Names())

		d := snapshot.PackageDiff{Added: []string{}, Removed: []string{}}
		for p := range cur {
			if !prev[p] {
				d.Added = append(d.Added, p)
			}
		}
		for p := range prev {
			if !cur[p] {
				d.Removed = append(d.Removed, p)
			}
		}
		sort.Strings(d.Added)
		sort.Strings(d.Removed)
		out[manifests[i].Tag.RelName()] = d
	}
	return out
}

// ParseManifest reads "product flavor version" lines, skipping comments and
// the distribution header
func ParseManifest(r io.Reader) ([]Product, error) {
	var out []Product
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "EUPS distribution ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed line %q", line)
		}
		out = append(out, Product{Name: fields[0], Version: fields[2]})
	}
	return out, scanner.Err()
}

// ParseTagIndex extracts tag names from the links of an HTML directory listing
func ParseTagIndex(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing tag index: %w", err)
	}

	var out []string
	seen := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			text := strings.TrimSpace(nodeText(n))
			if name, ok := strings.CutSuffix(text, listSuffix); ok && name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
