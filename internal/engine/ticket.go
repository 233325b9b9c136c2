package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	headRefTicketRe = regexp.MustCompile(`(?i)\bDM-(\d+)`)
	titleTicketRe   = regexp.MustCompile(`(?i)\bDM[\s-]*(\d+)`)
)

// TicketNumber resolves the ticket a merge belongs to, first from the merged
// branch name and then from the pull request title. It returns 0 when
// neither names a ticket.
func TicketNumber(headRef, title string) int {
	ref := strings.TrimPrefix(headRef, "tickets/")
	if n := firstNumber(headRefTicketRe, ref); n != 0 {
		return n
	}
	return firstNumber(titleTicketRe, title)
}

func firstNumber(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// rowKey identifies a row within one release. Merges without a ticket are
// kept apart by pull request URL so unrelated work is never unioned.
type rowKey struct {
	ticket int
	branch string
	url    string
}

// TicketTable accumulates ticket rows for one release
type TicketTable struct {
	rows map[rowKey]*TicketRow
}

// NewTicketTable creates an empty table
func NewTicketTable() *TicketTable {
	return &TicketTable{rows: make(map[rowKey]*TicketRow)}
}

// Len returns the number of rows
func (t *TicketTable) Len() int {
	return len(t.rows)
}

// Add records one merge
func (t *TicketTable) Add(ticket int, branch, title string, mergedAt time.Time, c Contributor) {
	t.put(&TicketRow{
		Ticket:       ticket,
		Title:        title,
		Branch:       branch,
		MergedAt:     mergedAt,
		Contributors: []Contributor{c},
	})
}

// Merge folds every row of other into t; rows of other count as later.
func (t *TicketTable) Merge(other *TicketTable) {
	if other == nil {
		return
	}
	for _, row := range other.Rows() {
		t.put(row)
	}
}

func (t *TicketTable) put(row *TicketRow) {
	key := rowKey{ticket: row.Ticket, branch: row.Branch}
	if row.Ticket == 0 && len(row.Contributors) > 0 {
		key.url = row.Contributors[0].URL
	}
	existing, ok := t.rows[key]
	if !ok {
		cp := *row
		cp.Contributors = append([]Contributor(nil), row.Contributors...)
		t.rows[key] = &cp
		return
	}
	existing.Contributors = unionContributors(existing.Contributors, row.Contributors)
	if !row.MergedAt.Before(existing.MergedAt) {
		existing.MergedAt = row.MergedAt
		existing.Title = row.Title
	}
}

// Rows returns the rows ordered by ticket, branch and URL, rows without a
// ticket last.
func (t *TicketTable) Rows() []*TicketRow {
	rows := make([]*TicketRow, 0, len(t.rows))
	for _, r := range t.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasTicket() != b.HasTicket() {
			return a.HasTicket()
		}
		if a.Ticket != b.Ticket {
			return a.Ticket < b.Ticket
		}
		if a.Branch != b.Branch {
			return a.Branch < b.Branch
		}
		return firstURL(a) < firstURL(b)
	})
	return rows
}

func firstURL(r *TicketRow) string {
	if len(r.Contributors) == 0 {
		return ""
	}
	return r.Contributors[0].URL
}

func unionContributors(a, b []Contributor) []Contributor {
	seen := make(map[Contributor]bool, len(a)+len(b))
	out := make([]Contributor, 0, len(a)+len(b))
	for _, c := range append(append([]Contributor(nil), a...), b...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].URL < out[j].URL
	})
	return out
}
