package project

import "errors"

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrMalformedImport        = errors.New("malformed import")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrUnknownCategory        = errors.New("unknown category")
)

// Category tags a project with the part of the stack it covers
type Category string

const (
	CategoryFrontend  Category = "frontend"
	CategoryFullstack Category = "fullstack"
	CategoryBackend   Category = "backend"
)

// Categories lists the valid categories in display order.
var Categories = []Category{CategoryFrontend, CategoryFullstack, CategoryBackend}

func (c Category) IsValid() bool {
	switch c {
	case CategoryFrontend, CategoryFullstack, CategoryBackend:
		return true
	}
	return false
}

// Record is one portfolio project entry. Field order is the serialized
// order.
type Record struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Image        string   `json:"image"`
	Technologies []string `json:"technologies"`
	LiveURL      string   `json:"liveUrl"`
	GithubURL    string   `json:"githubUrl"`
	Category     Category `json:"category" validate:"required,oneof=frontend fullstack backend"`
	Featured     bool     `json:"featured"`
}

// HasTech reports whether tag is present, by exact match.
func (r Record) HasTech(tag string) bool {
	for _, t := range r.Technologies {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slice memory with r.
func (r Record) Clone() Record {
	r.Technologies = append([]string{}, r.Technologies...)
	return r
}

// normalized fills defaults: frontend category and a non-nil tag list.
func (r Record) normalized() Record {
	r = r.Clone()
	if r.Category == "" {
		r.Category = CategoryFrontend
	}
	return r
}

// Collection is the ordered list of records. Insertion order is display
// order and ids are pairwise distinct.
type Collection []Record

// Index returns the position of id, or -1.
func (c Collection) Index(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the collection. A nil collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i := range c {
		out[i] = c[i].Clone()
	}
	return out
}

func (c Collection) maxID() int64 {
	var max int64
	for i := range c {
		if c[i].ID > max {
			max = c[i].ID
		}
	}
	return max
}

// Stats are the admin panel counters
type Stats struct {
	Total      int              `json:"total"`
	Featured   int              `json:"featured"`
	ByCategory map[Category]int `json:"byCategory"`
}

func (c Collection) Stats() Stats {
	stats := Stats{
		Total:      len(c),
		ByCategory: make(map[Category]int, len(Categories)),
	}
	for _, cat := range Categories {
		stats.ByCategory[cat] = 0
	}

	for i := range c {
		if c[i].Featured {
			stats.Featured++
		}
		stats.ByCategory[c[i].Category]++
	}

	return stats
}
