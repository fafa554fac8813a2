package pricing

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// ErrPriceNotFound indicates a provider/resource_type/shape triple absent
// from the table. Reported, not fatal: the recommendation is retained with
// zero savings and a rationale flag.
var ErrPriceNotFound = errors.New("price not found")

// ErrNoSuitableShape indicates no adjacent shape exists in the family.
// Recoverable: the caller falls back to no_action.
var ErrNoSuitableShape = errors.New("no suitable shape")

type tableKey struct {
	provider     models.Provider
	resourceType models.ResourceType
	shape        string
}

// Table is the read-only price reference for a run.
type Table struct {
	entries map[tableKey]models.PriceEntry

	// families holds entries per (provider, resource_type, family),
	// sorted ascending by monthly cost, for adjacent-shape selection.
	families map[string][]models.PriceEntry
}

type tableFile struct {
	Prices []models.PriceEntry `yaml:"prices"`
}

// NewTable indexes the given entries.
func NewTable(entries []models.PriceEntry) *Table {
	t := &Table{
		entries:  make(map[tableKey]models.PriceEntry, len(entries)),
		families: make(map[string][]models.PriceEntry),
	}

	for _, e := range entries {
		if e.ShapeID == "" || e.MonthlyCost < 0 {
			continue
		}
		key := tableKey{provider: e.Provider, resourceType: e.ResourceType, shape: normalizeShape(e.ShapeID)}
		t.entries[key] = e

		fam := familyKey(e)
		t.families[fam] = append(t.families[fam], e)
	}

	for fam := range t.families {
		group := t.families[fam]
		sort.Slice(group, func(i, j int) bool {
			if group[i].MonthlyCost != group[j].MonthlyCost {
				return group[i].MonthlyCost < group[j].MonthlyCost
			}
			return group[i].ShapeID < group[j].ShapeID
		})
		t.families[fam] = group
	}

	return t
}

// LoadTable reads a yaml price file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse price table %s: %w", path, err)
	}
	if len(f.Prices) == 0 {
		return nil, fmt.Errorf("price table %s contains no entries", path)
	}

	return NewTable(f.Prices), nil
}

// Len reports the number of indexed entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup resolves the price entry for a shape.
func (t *Table) Lookup(provider models.Provider, resourceType models.ResourceType, shape string) (models.PriceEntry, error) {
	key := tableKey{provider: provider, resourceType: resourceType, shape: normalizeShape(shape)}
	entry, ok := t.entries[key]
	if !ok {
		return models.PriceEntry{}, fmt.Errorf("%w: %s/%s/%s", ErrPriceNotFound, provider, resourceType, shape)
	}
	return entry, nil
}

// NextSmaller returns the adjacent cheaper shape in the same family.
func (t *Table) NextSmaller(provider models.Provider, resourceType models.ResourceType, shape string) (models.PriceEntry, error) {
	return t.adjacent(provider, resourceType, shape, -1)
}

// NextLarger returns the adjacent more expensive shape in the same family.
func (t *Table) NextLarger(provider models.Provider, resourceType models.ResourceType, shape string) (models.PriceEntry, error) {
	return t.adjacent(provider, resourceType, shape, +1)
}

func (t *Table) adjacent(provider models.Provider, resourceType models.ResourceType, shape string, dir int) (models.PriceEntry, error) {
	current, err := t.Lookup(provider, resourceType, shape)
	if err != nil {
		return models.PriceEntry{}, err
	}

	group := t.families[familyKey(current)]
	for i, e := range group {
		if normalizeShape(e.ShapeID) != normalizeShape(current.ShapeID) {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(group) {
			return models.PriceEntry{}, fmt.Errorf("%w: no shape adjacent to %s in family %s",
				ErrNoSuitableShape, current.ShapeID, familyOf(current))
		}
		return group[j], nil
	}

	return models.PriceEntry{}, fmt.Errorf("%w: shape %s not indexed in its family", ErrNoSuitableShape, shape)
}

func familyKey(e models.PriceEntry) string {
	return string(e.Provider) + "/" + string(e.ResourceType) + "/" + familyOf(e)
}

// familyOf prefers the explicit family and otherwise derives one from the
// shape prefix: "t3.large" -> "t3", "s-2vcpu-4gb" -> "s".
func familyOf(e models.PriceEntry) string {
	if e.Family != "" {
		return strings.ToLower(e.Family)
	}

	shape := normalizeShape(e.ShapeID)
	if i := strings.IndexByte(shape, '.'); i > 0 {
		return shape[:i]
	}
	if i := strings.IndexByte(shape, '-'); i > 0 {
		return shape[:i]
	}
	return shape
}

func normalizeShape(shape string) string {
	return strings.ToLower(strings.TrimSpace(shape))
}
