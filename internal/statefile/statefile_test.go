package statefile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
queryType: SELECT
table: users
columns: [id, name]
whereConditions:
  - column: age
    operator: ">"
    value: "18"
  - column: city
    operator: IN
    value: London, Paris
    conjunction: OR
orderBy:
  - column: name
    direction: DESC
limit: 10
offset: 0
`

func TestDecodeYAML(t *testing.T) {
	state, err := Decode(strings.NewReader(sample), YAML)
	require.NoError(t, err)

	assert.Equal(t, domain.Select, state.QueryType)
	assert.Equal(t, []string{"id", "name"}, state.Columns)
	require.Len(t, state.WhereConditions, 2)
	assert.Equal(t, domain.Or, state.WhereConditions[1].Conjunction)
	assert.Equal(t, domain.IntPtr(10), state.Limit)
	assert.Equal(t, domain.IntPtr(0), state.Offset, "an explicit zero offset is kept")
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("table: users\nlimt: 5\n"), YAML)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Decode(strings.NewReader(`{"table": "users", "colums": []}`), JSON)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDecodeEmpty(t *testing.T) {
	state, err := Decode(strings.NewReader(""), YAML)
	require.NoError(t, err)
	assert.Equal(t, domain.State{}, state)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	want, err := Decode(strings.NewReader(sample), YAML)
	require.NoError(t, err)

	for _, path := range []string{"states/q.yaml", "states/q.json"} {
		t.Run(path, func(t *testing.T) {
			require.NoError(t, Save(fs, path, want))
			got, err := Load(fs, path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, domain.State{QueryType: domain.Delete, Table: "logs"}, JSON))
	assert.JSONEq(t, `{"queryType": "DELETE", "table": "logs"}`, buf.String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yaml")
	assert.Error(t, err)
	assert.Equal(t, JSON, FormatFor("A.JSON"))
	assert.Equal(t, YAML, FormatFor("a.yml"))
}
