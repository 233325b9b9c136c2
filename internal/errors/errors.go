// Package errors provides sentinel errors and custom error types for the changelog application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrAllFetchesFailed indicates that no repository could be fetched
	ErrAllFetchesFailed = errors.New("all repository fetches failed")

	// ErrNoToken indicates that no GitHub token is configured
	ErrNoToken = errors.New("no GitHub token found")

	// ErrRepoNotFound indicates that a product has no repository mapping
	ErrRepoNotFound = errors.New("repository not found")
)

// FetchError represents a repository fetch that exhausted its retries
type FetchError struct {
	Repo     string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.Repo, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(repo string, attempts int, err error) *FetchError {
	return &FetchError{Repo: repo, Attempts: attempts, Err: err}
}

// AllFetchesFailedError is returned when every repository in a run failed to fetch
type AllFetchesFailedError struct {
	Repos []string
}

func (e *AllFetchesFailedError) Error() string {
	if len(e.Repos) == 0 {
		return ErrAllFetchesFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAllFetchesFailed, strings.Join(e.Repos, ", "))
}

// Is returns true if the target error is ErrAllFetchesFailed
func (e *AllFetchesFailedError) Is(target error) bool {
	return target == ErrAllFetchesFailed
}

// NewAllFetchesFailedError creates a new AllFetchesFailedError
func NewAllFetchesFailedError(repos []string) *AllFetchesFailedError {
	return &AllFetchesFailedError{Repos: repos}
}

// RepoNotFoundError represents a product missing from the repository map
type RepoNotFoundError struct {
	Product string
}

func (e *RepoNotFoundError) Error() string {
	return fmt.Sprintf("no repository for product %s", e.Product)
}

// Is returns true if the target error is ErrRepoNotFound
func (e *RepoNotFoundError) Is(target error) bool {
	return target == ErrRepoNotFound
}

// NewRepoNotFoundError creates a new RepoNotFoundError
func NewRepoNotFoundError(product string) *RepoNotFoundError {
	return &RepoNotFoundError{Product: product}
}
