package tag

// Rules holds the static tag lists a Parser consults.
type Rules struct {
	// Discard removes known-bad tags by exact name.
	Discard []string
	// FirstTags forces a tag to open its release series regardless of its rc number.
	FirstTags []string
}

// Parser classifies tag names against a fixed set of Rules.
type Parser struct {
	discard map[string]bool
	first   map[string]bool
}

// NewParser creates a Parser for the given rules
func NewParser(rules Rules) *Parser {
	p := &Parser{
		discard: make(map[string]bool, len(rules.Discard)),
		first:   make(map[string]bool, len(rules.FirstTags)),
	}
	for _, name := range rules.Discard {
		p.discard[name] = true
	}
	for _, name := range rules.FirstTags {
		p.first[name] = true
	}
	return p
}

// Parse classifies a raw tag name
func (p *Parser) Parse(name string) Tag {
	t := classify(name)
	if t.kind == Invalid {
		return t
	}
	if p.discard[name] {
		t.kind = Invalid
		return t
	}
	t.firstOverride = p.first[name]
	return t
}
