package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayRoundTrip(t *testing.T) {
	v, err := StringArray{"go", "two words"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"go","two words"}`, v)

	var nilArr StringArray
	v, err = nilArr.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	var back StringArray
	require.NoError(t, back.Scan(`{"go","two words"}`))
	assert.Equal(t, StringArray{"go", "two words"}, back)

	require.NoError(t, back.Scan(nil))
	assert.Equal(t, StringArray{}, back)
}

func TestParseDiscipline(t *testing.T) {
	d, ok := ParseDiscipline(" cs ")
	assert.True(t, ok)
	assert.Equal(t, DisciplineCS, d)

	_, ok = ParseDiscipline("Biology")
	assert.False(t, ok)
}

func TestColumnMismatchesUseDbTags(t *testing.T) {
	fields := getModelFields(Post{})
	assert.Contains(t, fields, "slug")
	assert.Contains(t, fields, "content_json")
	assert.NotContains(t, fields, "category")

	mismatches := findColumnMismatches([]string{"id", "slug", "legacy_cover_url"}, fields)
	assert.Equal(t, []string{"legacy_cover_url"}, mismatches)
}
