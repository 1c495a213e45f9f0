package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Velocity tiers a product can carry. Selection prefers fast movers but the
// composer guarantees slow movers still get shelf time.
const (
	VelocityHigh   = "high"
	VelocityMedium = "medium"
	VelocityLow    = "low"
)

// TrendNotFound is the sentinel returned when no keyword matches. Callers
// treat it as a valid answer, not an error.
const TrendNotFound = "No specific trend identified."

type Product struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Velocity string `json:"velocity"`
}

type Ingredient struct {
	Category string `json:"category"`
}

type Project struct {
	Name        string       `json:"name"`
	Trend       string       `json:"trend"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
}

type Trend struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

type Conf struct {
	ProductsFile string
	ProjectsFile string
	TrendsFile   string
}

// Store holds the three catalog collections. Loaded once at startup and
// read-only afterwards, so it is safe to share across requests.
type Store struct {
	products []Product
	projects []Project
	trends   []Trend
}

func Load(c Conf) (*Store, error) {
	s := &Store{}

	if err := readJSONFile(c.ProductsFile, &s.products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if err := readJSONFile(c.ProjectsFile, &s.projects); err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if err := readJSONFile(c.TrendsFile, &s.trends); err != nil {
		return nil, fmt.Errorf("load trends: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// validate rejects schema violations at startup rather than mid-request.
func (s *Store) validate() error {
	skus := make(map[string]struct{}, len(s.products))
	for i, p := range s.products {
		if strings.TrimSpace(p.SKU) == "" {
			return fmt.Errorf("product %d: empty sku", i)
		}
		if _, dup := skus[p.SKU]; dup {
			return fmt.Errorf("product %q: duplicate sku", p.SKU)
		}
		skus[p.SKU] = struct{}{}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product %q: empty name", p.SKU)
		}
		if strings.TrimSpace(p.Category) == "" {
			return fmt.Errorf("product %q: empty category", p.SKU)
		}
		switch p.Velocity {
		case VelocityHigh, VelocityMedium, VelocityLow:
		default:
			return fmt.Errorf("product %q: unknown velocity %q", p.SKU, p.Velocity)
		}
	}

	names := make(map[string]struct{}, len(s.projects))
	for i, p := range s.projects {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("project %d: empty name", i)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("project %q: duplicate name", p.Name)
		}
		names[p.Name] = struct{}{}
		if strings.TrimSpace(p.Trend) == "" {
			return fmt.Errorf("project %q: empty trend", p.Name)
		}
		for j, ing := range p.Ingredients {
			if strings.TrimSpace(ing.Category) == "" {
				return fmt.Errorf("project %q: ingredient %d has no category", p.Name, j)
			}
		}
	}

	trendNames := make(map[string]struct{}, len(s.trends))
	for i, t := range s.trends {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("trend %d: empty name", i)
		}
		if _, dup := trendNames[t.Name]; dup {
			return fmt.Errorf("trend %q: duplicate name", t.Name)
		}
		trendNames[t.Name] = struct{}{}
		if len(t.Keywords) == 0 {
			return fmt.Errorf("trend %q: no keywords", t.Name)
		}
	}

	return nil
}

// IdentifyTrend returns the first trend (catalog order) with any keyword
// appearing as a case-insensitive substring of the query, or the sentinel.
func (s *Store) IdentifyTrend(query string) string {
	lowered := strings.ToLower(query)
	for _, trend := range s.trends {
		for _, keyword := range trend.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return trend.Name
			}
		}
	}
	return TrendNotFound
}

// ProjectsForTrend returns the names of all projects tied to the trend,
// matched exactly after trimming and lowercasing both sides. Catalog order
// is preserved. A miss is an empty slice, not an error.
func (s *Store) ProjectsForTrend(trendName string) []string {
	normalized := strings.ToLower(strings.TrimSpace(trendName))
	matches := make([]string, 0)
	for _, p := range s.projects {
		if strings.ToLower(strings.TrimSpace(p.Trend)) == normalized {
			matches = append(matches, p.Name)
		}
	}
	return matches
}

// ProjectByName resolves a project by exact name after trimming the query.
func (s *Store) ProjectByName(name string) (Project, bool) {
	trimmed := strings.TrimSpace(name)
	for _, p := range s.projects {
		if p.Name == trimmed {
			return p, true
		}
	}
	return Project{}, false
}

// ProductsByCategoryVelocity returns all products in the category at the
// given tier, excluding SKUs present in used (pass nil to allow all).
func (s *Store) ProductsByCategoryVelocity(category, velocity string, used map[string]struct{}) []Product {
	options := make([]Product, 0)
	for _, p := range s.products {
		if p.Category != category || p.Velocity != velocity {
			continue
		}
		if used != nil {
			if _, taken := used[p.SKU]; taken {
				continue
			}
		}
		options = append(options, p)
	}
	return options
}

func (s *Store) Products() []Product { return s.products }
func (s *Store) Projects() []Project { return s.projects }
func (s *Store) Trends() []Trend     { return s.trends }
