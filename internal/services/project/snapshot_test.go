package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot_FieldOrderAndIndent(t *testing.T) {
	c := Collection{{
		ID:           1,
		Title:        "X",
		Description:  "Y",
		Technologies: []string{"React"},
		Category:     CategoryFrontend,
		Featured:     true,
	}}

	data, err := MarshalSnapshot(c)
	require.NoError(t, err)

	want := `[
  {
    "id": 1,
    "title": "X",
    "description": "Y",
    "image": "",
    "technologies": [
      "React"
    ],
    "liveUrl": "",
    "githubUrl": "",
    "category": "frontend",
    "featured": true
  }
]`
	assert.Equal(t, want, string(data))
}

func TestMarshalSnapshot_EmptyTechnologiesIsArray(t *testing.T) {
	data, err := marshalCompact(Collection{{ID: 1, Title: "X", Description: "Y", Category: CategoryBackend}})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"title":"X","description":"Y","image":"","technologies":[],"liveUrl":"","githubUrl":"","category":"backend","featured":false}]`, string(data))
}

func TestMarshalSnapshot_EmptyCollection(t *testing.T) {
	data, err := MarshalSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	c, err := ParseSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, Collection{}, c)
}

func TestParseSnapshot_Defaults(t *testing.T) {
	c, err := ParseSnapshot([]byte(`[{"id":3,"title":"T","description":"D","image":null}]`))
	require.NoError(t, err)
	require.Len(t, c, 1)

	assert.Equal(t, Record{
		ID:           3,
		Title:        "T",
		Description:  "D",
		Technologies: []string{},
		Category:     CategoryFrontend,
	}, c[0])
}

func TestParseSnapshot_IgnoresUnknownFields(t *testing.T) {
	c, err := ParseSnapshot([]byte(`[{"id":1,"title":"T","description":"D","stars":5}]`))
	require.NoError(t, err)
	assert.Len(t, c, 1)
}

func TestParseSnapshot_LargeTimestampIDs(t *testing.T) {
	c, err := ParseSnapshot([]byte(`[{"id":1735689600123,"title":"T","description":"D"}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(1735689600123), c[0].ID)
}

func TestParseSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", ``, ""},
		{"not an array", `{"projects":[]}`, ""},
		{"null element", `[null]`, "not an object"},
		{"id past int64", `[{"id":9223372036854775808,"title":"T","description":"D"}]`, "id must be an integer"},
		{"id far past int64", `[{"id":1e19,"title":"T","description":"D"}]`, "id must be an integer"},
		{"fractional id", `[{"id":1.5,"title":"T","description":"D"}]`, "id must be an integer"},
		{"blank title", `[{"id":1,"title":"  ","description":"D"}]`, "title is required"},
		{"numeric description", `[{"id":1,"title":"T","description":5}]`, "description must be a string"},
		{"image object", `[{"id":1,"title":"T","description":"D","image":{}}]`, "image must be a string"},
		{"tags not array", `[{"id":1,"title":"T","description":"D","technologies":"Go"}]`, "technologies must be an array"},
		{"duplicate tags", `[{"id":1,"title":"T","description":"D","technologies":["Go","Go"]}]`, "duplicate"},
		{"featured string", `[{"id":1,"title":"T","description":"D","featured":"yes"}]`, "featured must be a boolean"},
		{"bad category", `[{"id":1,"title":"T","description":"D","category":"all"}]`, "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.input))
			require.ErrorIs(t, err, ErrMalformedImport)
			if tt.want != "" {
				assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}
