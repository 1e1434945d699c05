// Package resolver maps free-text marker symbols to canonical gene
// identities from an HGNC-style catalog, with optional caching layers.
package resolver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"pdxgraph/internal/table"
	"pdxgraph/pkg/domain"
)

// Catalog columns of the HGNC complete set export.
const (
	colSymbol     = "symbol"
	colPrevSymbol = "prev_symbol"
	colAlias      = "alias_symbol"
	colHGNCID     = "hgnc_id"
	colEntrezID   = "entrez_id"
	colEnsemblID  = "ensembl_gene_id"
)

// Catalog is an immutable in-memory marker index.
type Catalog struct {
	approved map[string]*domain.Marker
	previous map[string][]*domain.Marker
	aliases  map[string][]*domain.Marker
}

var _ domain.MarkerResolver = (*Catalog)(nil)

// NewCatalog indexes markers. Later duplicates of an approved symbol are ignored.
func NewCatalog(markers []domain.Marker) *Catalog {
	c := &Catalog{
		approved: make(map[string]*domain.Marker, len(markers)),
		previous: make(map[string][]*domain.Marker),
		aliases:  make(map[string][]*domain.Marker),
	}
	for i := range markers {
		m := markers[i]
		key := normalize(m.Symbol)
		if key == "" {
			continue
		}
		if _, dup := c.approved[key]; dup {
			continue
		}
		c.approved[key] = &m
		for _, p := range m.PrevSymbol {
			c.previous[normalize(p)] = append(c.previous[normalize(p)], &m)
		}
		for _, a := range m.Synonyms {
			c.aliases[normalize(a)] = append(c.aliases[normalize(a)], &m)
		}
	}
	return c
}

// ParseCatalog reads a tab separated HGNC export. Previous and alias symbol
// columns are pipe separated lists.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	t, err := table.ParseTSV("markers", r)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(colSymbol) {
		return nil, fmt.Errorf("marker catalog: missing %s column", colSymbol)
	}
	markers := make([]domain.Marker, 0, t.Len())
	for _, row := range t.Rows() {
		sym := strings.TrimSpace(row.String(colSymbol))
		if sym == "" {
			continue
		}
		markers = append(markers, domain.Marker{
			Symbol:     sym,
			HGNCID:     strings.TrimSpace(row.String(colHGNCID)),
			EntrezID:   strings.TrimSpace(row.String(colEntrezID)),
			EnsemblID:  strings.TrimSpace(row.String(colEnsemblID)),
			PrevSymbol: splitList(row.String(colPrevSymbol)),
			Synonyms:   splitList(row.String(colAlias)),
		})
	}
	return NewCatalog(markers), nil
}

// Len returns the number of approved symbols.
func (c *Catalog) Len() int { return len(c.approved) }

// Resolve looks the symbol up as an approved symbol, then as a previous
// symbol, then as an alias. A previous or alias match resolves only when it
// is unique.
func (c *Catalog) Resolve(_ context.Context, q domain.MarkerQuery) (domain.MarkerResolution, error) {
	key := normalize(q.Symbol)
	if key == "" {
		return domain.MarkerResolution{Note: "empty marker symbol"}, nil
	}
	if m, ok := c.approved[key]; ok {
		return domain.MarkerResolution{Marker: cloneMarker(m)}, nil
	}
	if res, ok := unique(c.previous[key], q.Symbol, "previous symbol"); ok {
		return res, nil
	}
	if res, ok := unique(c.aliases[key], q.Symbol, "synonym"); ok {
		return res, nil
	}
	if n := len(c.previous[key]) + len(c.aliases[key]); n > 1 {
		return domain.MarkerResolution{Note: fmt.Sprintf("%s is ambiguous: %s", q.Symbol, strings.Join(symbols(c.previous[key], c.aliases[key]), ", "))}, nil
	}
	return domain.MarkerResolution{Note: fmt.Sprintf("%s could not be resolved", q.Symbol)}, nil
}

func unique(candidates []*domain.Marker, raw, via string) (domain.MarkerResolution, bool) {
	if len(candidates) != 1 {
		return domain.MarkerResolution{}, false
	}
	m := candidates[0]
	return domain.MarkerResolution{
		Marker: cloneMarker(m),
		Note:   fmt.Sprintf("%s resolved to %s via %s", raw, m.Symbol, via),
	}, true
}

func symbols(groups ...[]*domain.Marker) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, m := range g {
			if _, ok := seen[m.Symbol]; ok {
				continue
			}
			seen[m.Symbol] = struct{}{}
			out = append(out, m.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

func cloneMarker(m *domain.Marker) *domain.Marker {
	cp := *m
	cp.PrevSymbol = append([]string(nil), m.PrevSymbol...)
	cp.Synonyms = append([]string(nil), m.Synonyms...)
	return &cp
}

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "\"")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
