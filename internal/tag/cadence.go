package tag

import "fmt"

// Cadence selects which family of tags a changelog is built from
type Cadence int

const (
	// CadenceWeekly builds from weekly tags
	CadenceWeekly Cadence = iota + 1
	// CadenceRegular builds from regular release tags
	CadenceRegular
	// CadenceDaily builds from daily tags
	CadenceDaily
)

func (c Cadence) String() string {
	switch c {
	case CadenceWeekly:
		return "weekly"
	case CadenceRegular:
		return "regular"
	case CadenceDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// ParseCadence converts a cadence name
func ParseCadence(s string) (Cadence, error) {
	switch s {
	case "weekly":
		return CadenceWeekly, nil
	case "regular", "release", "releases":
		return CadenceRegular, nil
	case "daily":
		return CadenceDaily, nil
	}
	return 0, fmt.Errorf("unknown cadence %q", s)
}
