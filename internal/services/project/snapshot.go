package project

import (
	"fmt"
	"math"
	"strings"

	"github.com/bytedance/sonic"
)

// SnapshotFilename is the suggested name for exported snapshot files.
const SnapshotFilename = "projects-export.json"

// snapshotJSON matches encoding/json output and decodes integers as int64 so
// ids survive structural validation intact.
var snapshotJSON = sonic.Config{
	EscapeHTML:       true,
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
	UseInt64:         true,
}.Froze()

// MarshalSnapshot encodes c as a pretty-printed JSON array with fields in
// Record order.
func MarshalSnapshot(c Collection) ([]byte, error) {
	return snapshotJSON.MarshalIndent(c.Clone(), "", "  ")
}

// marshalCompact is the persisted form.
func marshalCompact(c Collection) ([]byte, error) {
	return snapshotJSON.Marshal(c.Clone())
}

// ParseSnapshot decodes and structurally validates a serialized collection.
// Every element must be an object with an integer id, non-blank title and
// description, string optionals, a string-array technologies list without
// duplicates, a known category and a boolean featured flag. Absent optional
// fields take their defaults. Any violation yields ErrMalformedImport.
func ParseSnapshot(data []byte) (Collection, error) {
	var raw []map[string]interface{}
	if err := snapshotJSON.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of projects", ErrMalformedImport)
	}

	out := make(Collection, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for i, fields := range raw {
		rec, err := recordFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: project %d: %v", ErrMalformedImport, i, err)
		}

		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: project %d: duplicate id %d", ErrMalformedImport, i, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		out = append(out, rec)
	}

	return out, nil
}

func recordFromFields(fields map[string]interface{}) (Record, error) {
	var rec Record
	if fields == nil {
		return rec, fmt.Errorf("not an object")
	}

	id, err := integerField(fields, "id")
	if err != nil {
		return rec, err
	}
	rec.ID = id

	if rec.Title, err = requiredString(fields, "title"); err != nil {
		return rec, err
	}
	if rec.Description, err = requiredString(fields, "description"); err != nil {
		return rec, err
	}
	if rec.Image, err = optionalString(fields, "image"); err != nil {
		return rec, err
	}
	if rec.LiveURL, err = optionalString(fields, "liveUrl"); err != nil {
		return rec, err
	}
	if rec.GithubURL, err = optionalString(fields, "githubUrl"); err != nil {
		return rec, err
	}

	if rec.Technologies, err = tagList(fields, "technologies"); err != nil {
		return rec, err
	}

	category, err := optionalString(fields, "category")
	if err != nil {
		return rec, err
	}
	rec.Category = Category(category)
	if rec.Category == "" {
		rec.Category = CategoryFrontend
	}
	if !rec.Category.IsValid() {
		return rec, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	switch v := fields["featured"].(type) {
	case nil:
	case bool:
		rec.Featured = v
	default:
		return rec, fmt.Errorf("featured must be a boolean")
	}

	return rec, nil
}

func integerField(fields map[string]interface{}, name string) (int64, error) {
	switch v := fields[name].(type) {
	case int64:
		return v, nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int64(v), nil
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func requiredString(fields map[string]interface{}, name string) (string, error) {
	s, ok := fields[name].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

func optionalString(fields map[string]interface{}, name string) (string, error) {
	switch v := fields[name].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s must be a string", name)
	}
}

func tagList(fields map[string]interface{}, name string) ([]string, error) {
	tags := []string{}

	switch v := fields[name].(type) {
	case nil:
		return tags, nil
	case []interface{}:
		for _, item := range v {
			tag, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain only strings", name)
			}
			for _, existing := range tags {
				if existing == tag {
					return nil, fmt.Errorf("%s contains duplicate %q", name, tag)
				}
			}
			tags = append(tags, tag)
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("%s must be an array", name)
	}
}
