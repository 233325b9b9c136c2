package tag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the naming convention a tag follows
type Kind int

const (
	// Invalid tags failed the grammar, the major range check or the discard list
	Invalid Kind = iota
	// Weekly tags look like w.YYYY.WW
	Weekly
	// Daily tags look like w.YYYY.MM.DD or d.YYYY.MM.DD
	Daily
	// Regular tags look like vMAJOR.MINOR[.PATCH][.rcN]
	Regular
	// Main is the main/master sentinel
	Main
)

func (k Kind) String() string {
	switch k {
	case Weekly:
		return "weekly"
	case Daily:
		return "daily"
	case Regular:
		return "regular"
	case Main:
		return "main"
	default:
		return "invalid"
	}
}

const (
	// FinalRC is the rc number of a tag without an rc suffix.
	FinalRC = 99
	// MainKey sorts after every other ordering key.
	MainKey int64 = 9999999999

	minMajor = 9
	maxMajor = 1000
)

var (
	weeklyRe  = regexp.MustCompile(`^w[._](\d{4})[._](\d{2})$`)
	dailyRe   = regexp.MustCompile(`^[wd][._](\d{4})[._](\d{2})[._](\d{2})$`)
	regularRe = regexp.MustCompile(`^v?(\d+)[._](\d+)(?:[._](\d+))?(?:[._]rc(\d+))?$`)
)

// Tag is one classified tag name. Tags are immutable once parsed.
type Tag struct {
	name          string
	kind          Kind
	firstOverride bool

	major, minor, patch, rc int
	year, week, month, day  int
}

// Parse classifies a name without consulting any discard or first-tag list
func Parse(name string) Tag {
	return classify(name)
}

func classify(name string) Tag {
	t := Tag{name: name}
	switch {
	case name == "main" || name == "master":
		t.kind = Main
	case strings.HasPrefix(name, "w") || strings.HasPrefix(name, "d"):
		if !t.weekly() {
			t.daily()
		}
	default:
		t.regular()
	}
	return t
}

func (t *Tag) weekly() bool {
	m := weeklyRe.FindStringSubmatch(t.name)
	if m == nil {
		return false
	}
	t.year = atoi(m[1])
	t.week = atoi(m[2])
	t.kind = Weekly
	return true
}

func (t *Tag) daily() bool {
	m := dailyRe.FindStringSubmatch(t.name)
	if m == nil {
		return false
	}
	t.year = atoi(m[1])
	t.month = atoi(m[2])
	t.day = atoi(m[3])
	t.kind = Daily
	return true
}

func (t *Tag) regular() bool {
	m := regularRe.FindStringSubmatch(t.name)
	if m == nil {
		return false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil || major < minMajor || major > maxMajor {
		return false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return false
	}
	patch, rc := 0, FinalRC
	if m[3] != "" {
		if patch, err = strconv.Atoi(m[3]); err != nil {
			return false
		}
	}
	if m[4] != "" {
		if rc, err = strconv.Atoi(m[4]); err != nil {
			return false
		}
	}
	t.major, t.minor, t.patch, t.rc = major, minor, patch, rc
	t.kind = Regular
	return true
}

// atoi is only called on regexp groups of fixed-width digits
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Name returns the raw tag name
func (t Tag) Name() string { return t.name }

// Kind returns the tag's classification
func (t Tag) Kind() Kind { return t.kind }

// Valid reports whether the tag was classified into a kind
func (t Tag) Valid() bool { return t.kind != Invalid }

// Major returns the major version of a regular tag
func (t Tag) Major() int { return t.major }

// Minor returns the minor version of a regular tag
func (t Tag) Minor() int { return t.minor }

// Patch returns the patch version of a regular tag
func (t Tag) Patch() int { return t.patch }

// RC returns the release-candidate number of a regular tag, FinalRC for finals
func (t Tag) RC() int { return t.rc }

// IsFinal reports whether a regular tag carries no rc suffix
func (t Tag) IsFinal() bool { return t.kind == Regular && t.rc == FinalRC }

// Key returns the monotonic ordering key.
func (t Tag) Key() int64 {
	switch t.kind {
	case Main:
		return MainKey
	case Weekly:
		return int64(t.year)*100 + int64(t.week)
	case Daily:
		// month*100 keeps days of different months from overlapping
		return int64(t.year)*10000 + int64(t.month)*100 + int64(t.day)
	case Regular:
		return int64(t.major)*1000000 + int64(t.minor)*10000 + int64(t.patch)*100 + int64(t.rc)
	default:
		return -1
	}
}

// Compare returns -1, 0 or +1 comparing ordering keys
func (t Tag) Compare(o Tag) int {
	a, b := t.Key(), o.Key()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether t sorts before o
func (t Tag) Less(o Tag) bool { return t.Key() < o.Key() }

// BaseName is the release grouping key: the rc suffix is stripped from
// regular tags, weekly and daily tags normalise to their date identifier.
func (t Tag) BaseName() string {
	switch t.kind {
	case Regular:
		return fmt.Sprintf("%d.%d.%d", t.major, t.minor, t.patch)
	case Weekly:
		return fmt.Sprintf("w.%04d.%02d", t.year, t.week)
	case Daily:
		return fmt.Sprintf("d.%04d.%02d.%02d", t.year, t.month, t.day)
	case Main:
		return "main"
	default:
		return t.name
	}
}

// FirstName is the base name of the first release in the tag's series
func (t Tag) FirstName() string {
	if t.kind == Regular {
		return fmt.Sprintf("%d.%d.0", t.major, t.minor)
	}
	return t.BaseName()
}

// RelName returns the normalized display id: w_2023_05, v23_0_1_rc1, main.
func (t Tag) RelName() string {
	if t.kind == Main {
		return "main"
	}
	name := t.name
	if t.kind == Regular && !strings.HasPrefix(name, "v") {
		name = "v" + name
	}
	return strings.ReplaceAll(name, ".", "_")
}

// TagBranch returns the release branch a modern regular tag lives on
func (t Tag) TagBranch() string {
	if t.kind != Regular {
		return ""
	}
	return fmt.Sprintf("%d.0.x", t.major)
}

// SameSeries reports whether two regular tags share major and minor
func (t Tag) SameSeries(o Tag) bool {
	return t.kind == Regular && o.kind == Regular && t.major == o.major && t.minor == o.minor
}

// IsFirstReleaseTag reports whether the tag opens a release series: the first
// candidate of a .0 patch, or a tag named on the first-tag override list.
func (t Tag) IsFirstReleaseTag() bool {
	if t.kind != Regular {
		return false
	}
	return (t.rc == 1 && t.patch == 0) || t.firstOverride
}

// Matches reports whether the tag belongs to the given cadence
func (t Tag) Matches(c Cadence) bool {
	switch c {
	case CadenceWeekly:
		return t.kind == Weekly
	case CadenceDaily:
		return t.kind == Daily
	case CadenceRegular:
		return t.kind == Regular
	default:
		return false
	}
}

func (t Tag) String() string { return t.name }
