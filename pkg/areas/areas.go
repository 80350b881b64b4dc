// Package areas provides the valid-area-and-branch mapping the data plane
// validates against. The mapping is loaded once at startup from a JSON file
// whose top-level object maps area center -> list of branch identifiers.
package areas

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Provider answers area-center validity and branch-membership questions.
// It is immutable after load and safe for concurrent readers.
type Provider struct {
	branches map[string][]string
	ids      []string // sorted area-center ids
	all      []string // sorted union of every branch
}

// LoadFile reads the area -> branches mapping from path.
func LoadFile(path string) (*Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("areas: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Provider from the raw JSON mapping.
func Parse(raw []byte) (*Provider, error) {
	var m map[string][]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("areas: parse mapping: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("areas: mapping is empty")
	}

	p := &Provider{branches: make(map[string][]string, len(m))}
	seen := make(map[string]struct{})
	for area, branches := range m {
		p.branches[area] = append([]string(nil), branches...)
		p.ids = append(p.ids, area)
		for _, b := range branches {
			if _, dup := seen[b]; !dup {
				seen[b] = struct{}{}
				p.all = append(p.all, b)
			}
		}
	}
	sort.Strings(p.ids)
	sort.Strings(p.all)
	return p, nil
}

// BackOfficeIDs returns the configured area-center identifiers, sorted.
func (p *Provider) BackOfficeIDs() []string { return p.ids }

// AllBranches returns the union of every configured branch, sorted.
func (p *Provider) AllBranches() []string { return p.all }

// BranchesFor returns the branch list configured for area, or nil.
func (p *Provider) BranchesFor(area string) []string { return p.branches[area] }

// IsValidArea reports whether area is a configured area center.
func (p *Provider) IsValidArea(area string) bool {
	_, ok := p.branches[area]
	return ok
}
