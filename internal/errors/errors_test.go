package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("502 bad gateway")
	err := fmt.Errorf("fetch: %w", NewFetchError("lsst/afw", 5, cause))

	require.ErrorIs(t, err, cause)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "lsst/afw", fe.Repo)
	assert.Equal(t, 5, fe.Attempts)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestAllFetchesFailedError(t *testing.T) {
	t.Parallel()

	err := NewAllFetchesFailedError([]string{"afw", "daf_butler"})
	assert.ErrorIs(t, err, ErrAllFetchesFailed)
	assert.Equal(t, "all repository fetches failed: afw, daf_butler", err.Error())
	assert.Equal(t, ErrAllFetchesFailed.Error(), NewAllFetchesFailedError(nil).Error())
}

func TestRepoNotFoundError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("resolve: %w", NewRepoNotFoundError("sconsUtils"))
	assert.ErrorIs(t, err, ErrRepoNotFound)
	assert.NotErrorIs(t, err, ErrNoToken)
}
