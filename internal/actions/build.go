package actions

import (
	"fmt"
	"time"

	"changelog.dev/changelog/internal/engine"
	"changelog.dev/changelog/internal/eups"
	"changelog.dev/changelog/internal/git"
	"changelog.dev/changelog/internal/github"
	"changelog.dev/changelog/internal/runtime"
	"changelog.dev/changelog/internal/tag"
)

const retryBackoff = time.Second

// BuildOptions selects the timeline to build
type BuildOptions struct {
	Cadence tag.Cadence
}

// Build is a reconciled timeline together with the product data it was built from
type Build struct {
	Timeline *engine.Timeline
	// Products is every product named by the cadence's tag lists
	Products []string
	// RepoURLs maps product name to its GitHub repository
	RepoURLs map[string]string
}

// BuildTimeline fetches tag lists, the repository map and every repository's
// history, then reconciles them into a timeline
func BuildTimeline(ctx *runtime.Context, opts BuildOptions) (*Build, error) {
	cfg := ctx.Config
	rules := ctx.Rules
	parser := tag.NewParser(rules.TagRules())

	ctx.Splog.Info("Fetching EUPS data")
	pkgs, err := eups.NewClient(cfg.EUPSPkgroot, ctx.HTTPClient, eups.Options{
		SkipTags:     rules.EUPSTagSkiplist,
		SkipProducts: rules.ProductSkiplist,
		Workers:      cfg.Workers,
	}).Load(ctx, parser, opts.Cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to load package lists: %w", err)
	}
	products := pkgs.Products()
	ctx.Splog.Debug("%d tag lists, %d products", len(pkgs.Manifests), len(products))

	ctx.Splog.Info("Fetching repository map")
	repos, err := github.FetchReposYAML(ctx, ctx.HTTPClient, cfg.ReposYAML)
	if err != nil {
		return nil, err
	}
	targets, missing := repos.Targets(products, rules.SkipsProduct)
	for _, p := range missing {
		ctx.Splog.Warn("Product repository for %s not found", p)
	}

	source, err := historySource(ctx)
	if err != nil {
		return nil, err
	}

	ctx.Splog.Info("Fetching history of %d repositories", len(targets))
	fetcher := github.NewFetcher(source, github.FetcherOptions{
		Workers: cfg.Workers,
		Retries: cfg.Retries,
		Backoff: retryBackoff,
		KeepTag: func(name string) bool {
			t := parser.Parse(name)
			return t.Valid() && t.Matches(opts.Cadence)
		},
		Log: ctx.Splog,
	})
	snap, err := fetcher.Fetch(ctx, targets)
	if err != nil {
		return nil, err
	}
	for rel, d := range pkgs.Diffs {
		snap.Diffs[rel] = d
	}

	ctx.Splog.Info("Processing changelog data")
	eng := engine.New(rules.TagRules(), engine.Options{
		Cadence:             opts.Cadence,
		MergeCandidates:     cfg.MergeCandidates,
		MergeFirstCandidate: cfg.MergeFirstCandidate,
		Corrections:         rules.CorrectionMap(),
	}, ctx.Splog)

	urls := make(map[string]string, len(products))
	for _, p := range products {
		if ref, err := repos.Lookup(p); err == nil {
			urls[p] = fmt.Sprintf("https://github.com/%s/%s", ref.Owner, ref.Repo)
		}
	}

	return &Build{
		Timeline: eng.Build(snap),
		Products: products,
		RepoURLs: urls,
	}, nil
}

// historySource picks local clones, an explicit override, or the GitHub API
func historySource(ctx *runtime.Context) (github.Source, error) {
	if ctx.Source != nil {
		return ctx.Source, nil
	}
	if ctx.Config.LocalDir != "" {
		ctx.Splog.Debug("Reading history from clones under %s", ctx.Config.LocalDir)
		return git.NewLocalSource(ctx.Config.LocalDir), nil
	}
	token, err := github.GetGitHubToken(ctx)
	if err != nil {
		return nil, err
	}
	client, err := github.NewClient(ctx, ctx.Config.GitHubHost, token)
	if err != nil {
		return nil, err
	}
	return client, nil
}
