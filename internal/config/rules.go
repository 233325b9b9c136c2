package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"changelog.dev/changelog/internal/engine"
	"changelog.dev/changelog/internal/tag"
)

// Correction overrides the recorded merge commit of one pull request
type Correction struct {
	URL           string    `toml:"url"`
	OID           string    `toml:"oid"`
	CommittedDate time.Time `toml:"committed_date"`
}

// Rules holds the static lists that steer tag parsing, fetching and attribution
type Rules struct {
	DiscardTags     []string     `toml:"discard_tags"`
	FirstTags       []string     `toml:"first_tags"`
	ProductSkiplist []string     `toml:"product_skiplist"`
	EUPSTagSkiplist []string     `toml:"eups_tag_skiplist"`
	Corrections     []Correction `toml:"corrections"`
}

// DefaultRules returns the rules known to be needed for the LSST stack history
func DefaultRules() *Rules {
	return &Rules{
		DiscardTags: []string{"25.0.1.rc1"},
		FirstTags:   []string{"25.0.1.rc2"},
		ProductSkiplist: []string{
			"boost",
			"galsim",
			"mariadb",
			"mariadbclient",
			"qserv_distrib",
			"qserv_testdata",
			"sims_skybrightness_data",
		},
		EUPSTagSkiplist: []string{"w_2019_30", "v12_1_1", "v12_1_2_rc1", "v12_1_2"},
		Corrections: []Correction{
			{
				URL:           "https://github.com/lsst-sitcom/summit_utils/pull/26",
				OID:           "d68dba151e745583c2858637e14230aeea8506b2",
				CommittedDate: time.Date(2022, time.November, 9, 1, 38, 20, 0, time.UTC),
			},
			{
				URL:           "https://github.com/lsst/testdata_deblender/pull/4",
				OID:           "8af30cc6eeffc3554cc7b3aee2e66f46f21279de",
				CommittedDate: time.Date(2020, time.January, 16, 16, 54, 0, 0, time.UTC),
			},
		},
	}
}

// LoadRules reads a rules file. An empty path or a missing file yields the
// default rules; lists present in the file replace the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var file Rules
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	if file.DiscardTags != nil {
		rules.DiscardTags = file.DiscardTags
	}
	if file.FirstTags != nil {
		rules.FirstTags = file.FirstTags
	}
	if file.ProductSkiplist != nil {
		rules.ProductSkiplist = file.ProductSkiplist
	}
	if file.EUPSTagSkiplist != nil {
		rules.EUPSTagSkiplist = file.EUPSTagSkiplist
	}
	if file.Corrections != nil {
		rules.Corrections = file.Corrections
	}
	return rules, nil
}

// SaveRules writes the rules to path, creating parent directories as needed
func SaveRules(path string, rules *Rules) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules file: %w", err)
	}
	return nil
}

// TagRules returns the tag parser rules
func (r *Rules) TagRules() tag.Rules {
	return tag.Rules{Discard: r.DiscardTags, FirstTags: r.FirstTags}
}

// CorrectionMap returns the corrections keyed by pull request URL
func (r *Rules) CorrectionMap() map[string]engine.Correction {
	out := make(map[string]engine.Correction, len(r.Corrections))
	for _, c := range r.Corrections {
		out[c.URL] = engine.Correction{CommitID: c.OID, CommittedAt: c.CommittedDate.UTC()}
	}
	return out
}

// SkipsProduct reports whether the product is excluded from fetching
func (r *Rules) SkipsProduct(product string) bool {
	for _, p := range r.ProductSkiplist {
		if p == product {
			return true
		}
	}
	return false
}
