package project

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/curaious/folio/internal/storage"
)

// CategoryAll is the catalog filter value that matches every category.
const CategoryAll Category = "all"

// ParseCategoryFilter maps a user-supplied filter value to a category.
// Empty input selects CategoryAll.
func ParseCategoryFilter(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" || c == CategoryAll {
		return CategoryAll, nil
	}
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}

// Filter is the transient catalog view state.
type Filter struct {
	Category Category
	Search   string
}

// Matches applies the category and search predicates to r.
func (f Filter) Matches(r Record) bool {
	if f.Category != "" && f.Category != CategoryAll && r.Category != f.Category {
		return false
	}

	if f.Search == "" {
		return true
	}

	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(r.Title), term) || strings.Contains(strings.ToLower(r.Description), term) {
		return true
	}
	for _, tech := range r.Technologies {
		if strings.Contains(strings.ToLower(tech), term) {
			return true
		}
	}

	return false
}

// Apply returns the records of c matching f, in collection order.
func (f Filter) Apply(c Collection) Collection {
	out := Collection{}
	for i := range c {
		if f.Matches(c[i]) {
			out = append(out, c[i].Clone())
		}
	}
	return out
}

// Catalog is the public read-only view. It reads its own copy of the
// persisted collection on every call and falls back to a bundled dataset
// when nothing is persisted.
type Catalog struct {
	storage  storage.Storage
	key      string
	fallback Collection
}

type CatalogOption func(*Catalog)

// WithCatalogKey overrides the storage key, storage.KeyProjects by default.
// Pass Store.Key to read what a store built with WithKey writes.
func WithCatalogKey(key string) CatalogOption {
	return func(c *Catalog) { c.key = key }
}

func NewCatalog(st storage.Storage, fallback Collection, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		storage:  st,
		key:      storage.KeyProjects,
		fallback: fallback.Clone(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Projects returns the persisted collection or the fallback dataset.
func (c *Catalog) Projects(ctx context.Context) Collection {
	projects, ok := ReadCollection(ctx, c.storage, c.key)
	if !ok {
		return c.fallback.Clone()
	}
	return projects
}

func (c *Catalog) View(ctx context.Context, f Filter) Collection {
	return f.Apply(c.Projects(ctx))
}

func (c *Catalog) Get(ctx context.Context, id int64) (Record, error) {
	projects := c.Projects(ctx)
	idx := projects.Index(id)
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return projects[idx], nil
}

// FallbackProjects is the dataset shown before any project is saved.
func FallbackProjects() Collection {
	return Collection{
		{
			ID:           1,
			Title:        "Your First Project",
			Description:  "Describe what this project does and what technologies you used.",
			Image:        "/images/projects/project1.jpg",
			Technologies: []string{"React", "JavaScript", "CSS"},
			LiveURL:      "https://your-project1-demo.netlify.app",
			GithubURL:    "https://github.com/YOUR_USERNAME/project1",
			Category:     CategoryFrontend,
			Featured:     true,
		},
		{
			ID:           2,
			Title:        "Your Second Project",
			Description:  "Another project description highlighting your skills.",
			Image:        "/images/projects/project2.jpg",
			Technologies: []string{"Node.js", "Express", "MongoDB"},
			LiveURL:      "https://your-project2-demo.netlify.app",
			GithubURL:    "https://github.com/YOUR_USERNAME/project2",
			Category:     CategoryFullstack,
			Featured:     false,
		},
	}
}

// LoadFallback reads a fallback dataset in snapshot format from path. An
// empty path returns FallbackProjects.
func LoadFallback(path string) (Collection, error) {
	if path == "" {
		return FallbackProjects(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback projects: %w", err)
	}

	projects, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback projects %s: %w", path, err)
	}

	return projects, nil
}
