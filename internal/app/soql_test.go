package app

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/gluekit/internal/salesforce"
	"github.com/dev-tams/gluekit/internal/validation"
)

func TestLoadSOQLRequestAndBuild(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/job.toml", []byte(`
[salesforce]
entity = "Account"
fields = ["Id", "Name"]
ignore_ids = ["001A"]
ignore_ids_file = "/ids.txt"
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ids.txt", []byte("001B\n\n  001C \n"), 0o644))

	req, err := LoadSOQLRequest(fs, "/job.toml")
	require.NoError(t, err)
	assert.Equal(t, SOQLRequest{
		Entity:        "Account",
		Fields:        []string{"Id", "Name"},
		IgnoreIDs:     []string{"001A"},
		IgnoreIDsFile: "/ids.txt",
	}, req)

	q, err := BuildSOQL(fs, req)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id,Name FROM Account WHERE Id NOT IN ('001A','001B','001C')", q)
}

func TestLoadSOQLRequestMissingTable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/job.toml", []byte(`entity = "Account"`), 0o644))

	_, err := LoadSOQLRequest(fs, "/job.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing [salesforce] table")
}

func TestSOQLRequestMergeFlagsOverFile(t *testing.T) {
	file := SOQLRequest{Entity: "Account", Fields: []string{"Id"}, IgnoreIDs: []string{"001A"}, IgnoreIDsFile: "/old.txt"}
	flags := SOQLRequest{Entity: "Contact", Fields: []string{"Id", "Name"}, IgnoreIDs: []string{"001B"}, IgnoreIDsFile: "/new.txt"}

	got := file.Merge(flags)
	assert.Equal(t, SOQLRequest{
		Entity:        "Contact",
		Fields:        []string{"Id", "Name"},
		IgnoreIDs:     []string{"001A", "001B"},
		IgnoreIDsFile: "/new.txt",
	}, got)
	assert.Equal(t, []string{"001A"}, file.IgnoreIDs)
}

func TestSOQLRequestMergeEmptyFlagsKeepFile(t *testing.T) {
	file := SOQLRequest{Entity: "Account", Fields: []string{"Id"}, IgnoreIDs: []string{"001A"}, IgnoreIDsFile: "/ids.txt"}

	assert.Equal(t, file, file.Merge(SOQLRequest{}))
}

func TestBuildSOQLErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := BuildSOQL(fs, SOQLRequest{})
	assert.Error(t, err)

	_, err = BuildSOQL(fs, SOQLRequest{Entity: "Account", IgnoreIDs: []string{"001A"}})
	assert.ErrorIs(t, err, salesforce.ErrFieldsRequired)

	_, err = BuildSOQL(fs, SOQLRequest{Entity: "Account", Fields: []string{"Id;"}})
	assert.ErrorIs(t, err, validation.ErrUnsanitized)

	_, err = BuildSOQL(fs, SOQLRequest{Entity: "Account", Fields: []string{"Id"}, IgnoreIDsFile: "/missing"})
	assert.Error(t, err)
}
