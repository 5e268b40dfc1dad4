package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openag/openag-go/pkg/couch/memcouch"
	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

func mustParse(t *testing.T, doc string) model.FixtureSet {
	set, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return set
}

func TestParse(t *testing.T) {
	set := mustParse(t, `{
		"recipe": [{"_id": "basil", "steps": [1, 2]}, {"_id": "kale"}],
		"environment": [{"_id": "env_1", "name": "Growth chamber"}],
		"empty": []
	}`)

	assert.Equal(t, []string{"empty", "environment", "recipe"}, set.Databases())
	assert.Equal(t, 3, set.Len())
	require.Len(t, set["recipe"], 2)
	assert.Equal(t, "basil", set["recipe"][0].ID())
	assert.Equal(t, "kale", set["recipe"][1].ID(), "records keep their document order")
	assert.Equal(t, []interface{}{1.0, 2.0}, set["recipe"][0]["steps"])
}

func TestParseInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{"recipe":`},
		{name: "array", doc: `[{"_id": "a"}]`},
		{name: "null", doc: `null`},
		{name: "records not an array", doc: `{"recipe": {"_id": "a"}}`},
		{name: "record not an object", doc: `{"recipe": ["a"]}`},
		{name: "missing id", doc: `{"recipe": [{"name": "a"}]}`},
		{name: "empty id", doc: `{"recipe": [{"_id": ""}]}`},
		{name: "numeric id", doc: `{"recipe": [{"_id": 12}]}`},
		{name: "empty database name", doc: `{"": [{"_id": "a"}]}`},
		{name: "empty document", doc: ``},
		{name: "second document", doc: `{"recipe": []} {"recipe": [{"_id": "a"}]}`},
		{name: "trailing content", doc: "{\"recipe\": []}\ntrailing"},
		{name: "trailing brace", doc: `{"recipe": []}}`},
	} {
		testCase := tc
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(testCase.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestParseTrailingWhitespace(t *testing.T) {
	set, err := Parse(strings.NewReader("{\"recipe\": [{\"_id\": \"a\"}]}\n\n"))
	require.NoError(t, err)
	assert.Len(t, set["recipe"], 1)
}

func TestLoadIsIdempotent(t *testing.T) {
	server := memcouch.New("widgets")
	set := mustParse(t, `{"widgets": [{"_id": "a", "name": "foo"}]}`)

	var reported []Progress
	loader := NewLoader(server, OnProgress(func(p Progress) {
		reported = append(reported, p)
	}))

	report, err := loader.Load(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, []Progress{{Database: "widgets", Processed: 1, Written: 1}}, report)
	assert.Equal(t, report, reported)
	assert.Equal(t, 1, server.Writes("widgets"))

	stored, err := server.DB("widgets").Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "foo", stored["name"])
	assert.NotEmpty(t, stored.Rev())

	report, err = loader.Load(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, []Progress{{Database: "widgets", Processed: 1, Unchanged: 1}}, report)
	assert.Equal(t, 1, server.Writes("widgets"), "loading the same fixture again issues no write")
}

func TestLoadUpdatesChangedRecords(t *testing.T) {
	ctx := context.Background()
	server := memcouch.New(model.DBRecipe, model.DBEnvironment)
	_, err := server.DB(model.DBRecipe).Put(ctx, "basil", model.Record{"_id": "basil", "name": "old"})
	require.NoError(t, err)
	_, err = server.DB(model.DBRecipe).Put(ctx, "kale", model.Record{"_id": "kale", "name": "Kale"})
	require.NoError(t, err)

	m := metrics.New()
	set := mustParse(t, `{
		"recipe": [
			{"_id": "basil", "name": "Basil"},
			{"_id": "kale", "name": "Kale", "_rev": "99-stale"}
		],
		"environment": [{"_id": "env_1"}]
	}`)
	report, err := NewLoader(server, Metrics(m)).Load(ctx, set)
	require.NoError(t, err)
	assert.Equal(t, []Progress{
		{Database: model.DBEnvironment, Processed: 1, Written: 1},
		{Database: model.DBRecipe, Processed: 2, Written: 1, Unchanged: 1},
	}, report)

	basil, err := server.DB(model.DBRecipe).Get(ctx, "basil")
	require.NoError(t, err)
	assert.Equal(t, "Basil", basil["name"])
	assert.Regexp(t, `^2-`, basil.Rev())

	assert.Equal(t, "basil", set[model.DBRecipe][0].ID())
	assert.Empty(t, set[model.DBRecipe][0].Rev(), "the fixture is not modified")
}

func TestLoadStopsOnError(t *testing.T) {
	ctx := context.Background()
	server := memcouch.New("a_db", "b_db")
	server.FailPut("a_db", "2", status.ErrConflict)

	set := mustParse(t, `{
		"a_db": [{"_id": "1"}, {"_id": "2"}, {"_id": "3"}],
		"b_db": [{"_id": "4"}]
	}`)
	report, err := NewLoader(server).Load(ctx, set)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrConflict)
	assert.Contains(t, err.Error(), "a_db/2")
	assert.Empty(t, report)

	assert.Equal(t, 1, server.Writes("a_db"))
	assert.Equal(t, 0, server.Writes("b_db"))
}

func TestLoadMissingDatabase(t *testing.T) {
	server := memcouch.New()
	_, err := NewLoader(server).Load(context.Background(), mustParse(t, `{"missing": [{"_id": "a"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotFound)
	assert.Empty(t, server.Databases(), "loading does not create databases")
}

func TestProgressString(t *testing.T) {
	assert.Equal(t, "recipe: 3 records, 1 written, 2 unchanged",
		Progress{Database: "recipe", Processed: 3, Written: 1, Unchanged: 2}.String())
}
