package runtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"changelog.dev/changelog/internal/config"
	"changelog.dev/changelog/internal/github"
	"changelog.dev/changelog/internal/output"
)

const defaultHTTPTimeout = 60 * time.Second

// Context provides access to configuration and output for commands
type Context struct {
	context.Context

	Config     config.Config
	Rules      *config.Rules
	Splog      *output.Splog
	HTTPClient *http.Client
	// Source overrides the history source chosen from Config
	Source github.Source
}

// NewContext creates a context with a default HTTP client
func NewContext(ctx context.Context, cfg config.Config, rules *config.Rules, splog *output.Splog) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if rules == nil {
		rules = config.DefaultRules()
	}
	if splog == nil {
		splog = output.NewSplog()
	}
	return &Context{
		Context:    ctx,
		Config:     cfg,
		Rules:      rules,
		Splog:      splog,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type contextKey struct{}

// WithContext stores rc in ctx
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// GetContext returns the runtime context stored by WithContext
func GetContext(ctx context.Context) (*Context, error) {
	if ctx == nil {
		return nil, errors.New("no runtime context")
	}
	rc, ok := ctx.Value(contextKey{}).(*Context)
	if !ok || rc == nil {
		return nil, errors.New("no runtime context")
	}
	return rc, nil
}
