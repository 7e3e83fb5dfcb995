package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryYAML = `
organizations:
  - id: "50"
    name: AlgoGators Investment Fund
    category: [Investment Funds, Finance]
    description: Student-led quantitative hedge fund.
    website: https://algogators.com/
  - name: American Marketing Association
    category: Marketing
    description: Professional development for marketers.
  - name: Beta Alpha Psi
    description: Honor society.
`

func TestDecodeDirectory(t *testing.T) {
	t.Parallel()

	orgs, err := DecodeDirectory(strings.NewReader(directoryYAML))
	require.NoError(t, err)
	require.Len(t, orgs, 3)

	assert.Equal(t, "50", orgs[0].Id)
	assert.Equal(t, Categories{"Investment Funds", "Finance"}, orgs[0].Category)
	require.NotNil(t, orgs[0].Website)
	assert.Equal(t, "https://algogators.com/", *orgs[0].Website)

	assert.Equal(t, "2", orgs[1].Id)
	assert.Equal(t, Categories{"Marketing"}, orgs[1].Category)

	assert.Equal(t, Categories{}, orgs[2].Category)
	assert.Nil(t, orgs[2].Email)
}

func TestDecodeDirectory_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing name", doc: "organizations:\n  - description: nameless\n"},
		{name: "duplicate name", doc: "organizations:\n  - name: Finance Club\n  - name: finance club\n"},
		{name: "category mapping", doc: "organizations:\n  - name: X\n    category: {a: b}\n"},
		{name: "malformed", doc: "organizations: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeDirectory(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestDecodeDirectory_Empty(t *testing.T) {
	t.Parallel()

	orgs, err := DecodeDirectory(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, orgs)
}

func TestLoadDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "organizations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(directoryYAML), 0o600))

	orgs, err := LoadDirectory(path)
	require.NoError(t, err)
	assert.Len(t, orgs, 3)

	_, err = LoadDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadDirectory("")
	require.Error(t, err)
}

func TestCategories_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var org Organization

	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","category":"Finance"}`), &org))
	assert.Equal(t, Categories{"Finance"}, org.Category)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","category":["Finance"," ","Honor Society"]}`), &org))
	assert.Equal(t, Categories{"Finance", "Honor Society"}, org.Category)

	require.Error(t, json.Unmarshal([]byte(`{"name":"A","category":42}`), &org))
}

func TestLoadDirectory_Bundled(t *testing.T) {
	t.Parallel()

	orgs, err := LoadDirectory(filepath.Join("..", "data", "organizations.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, orgs)

	org, ok := MatchOrganization("American Marketing Association", orgs)
	require.True(t, ok)
	assert.Equal(t, "2", org.Id)
	assert.Contains(t, org.Category, "Marketing")
}
