package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headRef string
		title   string
		want    int
	}{
		{"from tickets branch", "tickets/DM-12345", "Unrelated title", 12345},
		{"head ref wins over title", "tickets/DM-1", "DM-2: something", 1},
		{"lower case branch", "tickets/dm-777", "", 777},
		{"from title with dash", "u/jdoe/fix", "DM-100 fix bug", 100},
		{"from title with space", "main", "Dm 4242: add thing", 4242},
		{"from bracketed title", "feature", "[DM-55] docs", 55},
		{"nothing found", "u/jdoe/fix", "Update README", 0},
		{"ignores embedded letters", "fix", "ADM-9 admin tooling", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, TicketNumber(tt.headRef, tt.title))
		})
	}
}

func TestTicketTableMergeRule(t *testing.T) {
	t.Parallel()

	table := NewTicketTable()
	table.Add(100, "main", "first title", day(1), Contributor{Package: "afw", URL: "u1"})
	table.Add(100, "main", "newest title", day(3), Contributor{Package: "daf_butler", URL: "u2"})
	table.Add(100, "main", "older title", day(2), Contributor{Package: "afw", URL: "u1"})
	table.Add(100, "23.0.x", "backport", day(2), Contributor{Package: "afw", URL: "u3"})

	rows := table.Rows()
	require.Len(t, rows, 2)

	branchRow, mainRow := rows[0], rows[1]
	assert.Equal(t, "23.0.x", branchRow.Branch)
	assert.Equal(t, "main", mainRow.Branch)
	assert.Equal(t, "newest title", mainRow.Title)
	assert.Equal(t, day(3), mainRow.MergedAt)
	assert.Equal(t, []Contributor{
		{Package: "afw", URL: "u1"},
		{Package: "daf_butler", URL: "u2"},
	}, mainRow.Contributors)
}

func TestTicketTableKeepsTicketlessMergesApart(t *testing.T) {
	t.Parallel()

	table := NewTicketTable()
	table.Add(0, "main", "Update README", day(1), Contributor{Package: "afw", URL: "u1"})
	table.Add(0, "main", "Bump version", day(2), Contributor{Package: "afw", URL: "u2"})
	table.Add(7, "main", "DM-7", day(3), Contributor{Package: "afw", URL: "u3"})

	rows := table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, 7, rows[0].Ticket)
	assert.False(t, rows[1].HasTicket())
	assert.False(t, rows[2].HasTicket())
}

func TestTicketTableMergeLaterOverwrites(t *testing.T) {
	t.Parallel()

	earlier := NewTicketTable()
	earlier.Add(5, "main", "rc title", day(1), Contributor{Package: "afw", URL: "u1"})
	later := NewTicketTable()
	later.Add(5, "main", "final title", day(1), Contributor{Package: "pipe_base", URL: "u2"})

	folded := NewTicketTable()
	folded.Merge(earlier)
	folded.Merge(later)
	folded.Merge(nil)

	rows := folded.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "final title", rows[0].Title)
	assert.Len(t, rows[0].Contributors, 2)
	// sources are left untouched
	assert.Len(t, earlier.Rows()[0].Contributors, 1)
}
