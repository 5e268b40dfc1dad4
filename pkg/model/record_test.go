package model

import (
	"testing"

	"github.com/openag/openag-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	r := Record{FieldID: "m1", FieldRev: "1-abc", "name": "fan"}
	assert.Equal(t, "m1", r.ID())
	assert.Equal(t, "1-abc", r.Rev())

	r.SetRev("2-def")
	assert.Equal(t, "2-def", r.Rev())

	r.SetRev("")
	_, hasRev := r[FieldRev]
	assert.False(t, hasRev)

	assert.Equal(t, "", Record{FieldID: 12}.ID())
	assert.True(t, IsSystem("_design/openag"))
	assert.False(t, IsSystem("m1"))
	assert.False(t, IsSystem(""))
}

func TestRecordClone(t *testing.T) {
	r := Record{
		FieldID: "m1",
		"inputs": []interface{}{map[string]interface{}{"name": "a"}},
		"meta":   map[string]interface{}{"version": "1.0"},
	}
	c := r.Clone()
	c["meta"].(map[string]interface{})["version"] = "2.0"
	c["inputs"].([]interface{})[0].(map[string]interface{})["name"] = "b"

	assert.Equal(t, "1.0", r["meta"].(map[string]interface{})["version"])
	assert.Equal(t, "a", r["inputs"].([]interface{})[0].(map[string]interface{})["name"])
	assert.Nil(t, Record(nil).Clone())
}

func TestContentEqual(t *testing.T) {
	a := Record{FieldID: "a", FieldRev: "1-x", "name": "foo", "n": 1.0}
	b := Record{FieldID: "a", FieldRev: "7-y", "name": "foo", "n": 1.0}
	c := Record{FieldID: "a", "name": "bar", "n": 1.0}

	assert.True(t, a.ContentEqual(b), "revision tokens are ignored")
	assert.False(t, a.ContentEqual(c))
	assert.False(t, a.ContentEqual(Record{FieldID: "a", FieldRev: "1-x", "name": "foo"}))

	// ContentEqual must not strip the revision from its operands
	assert.Equal(t, "1-x", a.Rev())
}

func TestOverlay(t *testing.T) {
	r := Record{
		FieldID:         "m1",
		FieldRev:        "3-abc",
		FieldRepository: map[string]interface{}{"type": "git", "url": "https://x/y.git"},
		"version":       "1.0",
	}
	manifest := map[string]interface{}{
		FieldID:   "evil",
		FieldRev:  "9-zzz",
		"version": "2.0",
		"inputs":  []interface{}{"a"},
	}

	merged := r.Overlay(manifest)
	assert.Equal(t, "m1", merged.ID())
	assert.Equal(t, "3-abc", merged.Rev())
	assert.Equal(t, "2.0", merged["version"])
	assert.Equal(t, []interface{}{"a"}, merged["inputs"])
	assert.Equal(t, r[FieldRepository], merged[FieldRepository])

	// the original record is left untouched
	assert.Equal(t, "1.0", r["version"])
	_, hasInputs := r["inputs"]
	assert.False(t, hasInputs)

	merged = Record{FieldID: "m2"}.Overlay(map[string]interface{}{"version": "2.0"})
	assert.Equal(t, Record{FieldID: "m2", "version": "2.0"}, merged)
}

func TestRepository(t *testing.T) {
	repo, ok, err := Record{FieldID: "m1"}.Repository()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Repository{}, repo)

	repo, ok, err = Record{
		FieldID:         "m1",
		FieldRepository: map[string]interface{}{"type": "git", "url": "https://x/y.git"},
	}.Repository()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, repo.IsGit())
	assert.Equal(t, DefaultBranch, repo.Ref())

	repo, _, err = Record{
		FieldID:         "m1",
		FieldRepository: map[string]interface{}{"type": "git", "url": "https://x/y.git", "branch": "dev"},
	}.Repository()
	require.NoError(t, err)
	assert.Equal(t, "dev", repo.Ref())

	repo, ok, err = Record{
		FieldID:         "m1",
		FieldRepository: map[string]interface{}{"type": "svn", "url": "svn://x/y"},
	}.Repository()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, repo.IsGit())

	for _, other := range []interface{}{
		"https://x/y.git",
		map[string]interface{}{"type": "hg", "url": 5.0},
		map[string]interface{}{"type": "svn", "url": "svn://x/y", "branch": 3.0},
		map[string]interface{}{"type": 1.0, "url": "https://x/y.git"},
		map[string]interface{}{"url": "https://x/y.git"},
	} {
		repo, ok, err = Record{FieldID: "m1", FieldRepository: other}.Repository()
		require.NoErrorf(t, err, "%v", other)
		assert.True(t, ok)
		assert.Falsef(t, repo.IsGit(), "%v", other)
	}

	for _, bad := range []interface{}{
		map[string]interface{}{"type": "git", "url": 42.0},
		map[string]interface{}{"type": "git", "url": "https://x/y.git", "branch": 3.0},
		map[string]interface{}{"type": "git"},
	} {
		_, _, err = Record{FieldID: "m1", FieldRepository: bad}.Repository()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRecord))
	}
}

func TestFixtureSet(t *testing.T) {
	f := FixtureSet{
		"widgets": {{FieldID: "a"}, {FieldID: "b"}},
		"gadgets": {{FieldID: "c"}},
	}
	assert.Equal(t, []string{"gadgets", "widgets"}, f.Databases())
	assert.Equal(t, 3, f.Len())
}

func TestDatabases(t *testing.T) {
	all := AllDatabases()
	assert.Len(t, all, len(GlobalDatabases())+len(PerFarmDatabases()))
	assert.IsIncreasing(t, all)
	assert.Contains(t, all, DBFirmwareModuleType)
}
