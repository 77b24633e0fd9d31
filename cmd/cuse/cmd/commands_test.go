package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cuse/internal/config"
	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/store"
	"github.com/Aman-CERP/cuse/pkg/cuse"
	"github.com/Aman-CERP/cuse/pkg/version"
)

func writeProjectConfig(t *testing.T, env *cliEnv, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, config.ProjectConfigFile), []byte(content), 0644))
}

// seedPeople registers three people in the "people" index.
func seedPeople(t *testing.T, env *cliEnv) {
	t.Helper()
	env.mustRun(t, "put", "--index", "people", "--id", "p1", "name=Ada Lovelace", "city=London")
	env.mustRun(t, "put", "--index", "people", "--id", "p2", "name=Alan Turing", "city=London")
	env.mustRun(t, "put", "--index", "people", "--id", "p3", "name=Grace Hopper", "city=Arlington")
}

func searchRecords(t *testing.T, env *cliEnv, args ...string) []Record {
	t.Helper()
	out := env.mustRun(t, append([]string{"search", "--index", "people", "--format", "json"}, args...)...)
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	return records
}

func recordIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func forEachBackend(t *testing.T, fn func(t *testing.T, env *cliEnv)) {
	for _, backend := range []string{"sqlite", "bleve"} {
		t.Run(backend, func(t *testing.T) {
			env := newCLIEnv(t)
			env.backend = backend
			fn(t, env)
		})
	}
}

func TestPutAndSearch_HydratesRecords(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *cliEnv) {
		// Given: three registered people
		seedPeople(t, env)

		// When: searching by a phrase
		records := searchRecords(t, env, "--where", "name=Ada Lovelace")

		// Then: the full record comes back from the record database
		require.Len(t, records, 1)
		assert.Equal(t, Record{
			Index:  "people",
			ID:     "p1",
			Fields: map[string]string{"name": "Ada Lovelace", "city": "London"},
		}, records[0])
	})
}

func TestSearch_FiltersAreConjunctive(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *cliEnv) {
		seedPeople(t, env)

		londoners := searchRecords(t, env, "--where", "city=London")
		assert.ElementsMatch(t, []string{"p1", "p2"}, recordIDs(londoners))

		alan := searchRecords(t, env, "--where", "city=London", "--where", "name=Alan")
		assert.Equal(t, []string{"p2"}, recordIDs(alan))
	})
}

func TestSearch_RepeatedWhereReplacesValue(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	records := searchRecords(t, env, "--where", "city=London", "--where", "city=Arlington")

	assert.Equal(t, []string{"p3"}, recordIDs(records))
}

func TestSearch_RawQueryFragment(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	records := searchRecords(t, env, "--query", "city:Arlington")

	assert.Equal(t, []string{"p3"}, recordIDs(records))
}

func TestSearch_IdsOnly(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	out := env.mustRun(t, "search", "--index", "people", "--where", "city=Arlington", "--ids")

	assert.Equal(t, "p3\n", out)
}

func TestSearch_IdsOnlyJSON(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	out := env.mustRun(t, "search", "--index", "people", "--where", "city=Nowhere", "--ids", "--format", "json")

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Empty(t, ids)
	assert.Equal(t, "[]\n", out)
}

func TestSearch_TextOutput(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	out := env.mustRun(t, "search", "--index", "people", "--where", "name=Grace")

	assert.Contains(t, out, "1. p3")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "1 result(s)")
}

func TestSearch_NoMatchesWarns(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	out := env.mustRun(t, "search", "--index", "people", "--where", "city=Paris")

	assert.Contains(t, out, "No matches")
}

func TestSearch_Limit(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	records := searchRecords(t, env, "--where", "city=London", "--limit", "1")

	assert.Len(t, records, 1)
}

func TestSearch_DefaultLimitFromConfig(t *testing.T) {
	env := newCLIEnv(t)
	writeProjectConfig(t, env, "search:\n  default_limit: 1\n")
	seedPeople(t, env)

	records := searchRecords(t, env, "--where", "city=London")

	assert.Len(t, records, 1)
}

func TestSearch_Errors(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "limit above configured maximum",
			args: []string{"--where", "city=London", "--limit", "1001"},
			check: func(t *testing.T, err error) {
				assert.Equal(t, cerrors.ErrCodeSearchLimitExceeded, cerrors.GetCode(err))
			},
		},
		{
			name: "negative limit",
			args: []string{"--where", "city=London", "--limit", "-1"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, cuse.ErrNegativeSearchLimit))
			},
		},
		{
			name: "no filters and no query",
			args: []string{},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, cuse.ErrInvalidSearch))
			},
		},
		{
			name: "empty filter value",
			args: []string{"--where", "city="},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, cuse.ErrEmptyMatcher))
			},
		},
		{
			name: "malformed where",
			args: []string{"--where", "city"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "expected field=value")
			},
		},
		{
			name: "bad format",
			args: []string{"--where", "city=London", "--format", "xml"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "invalid format")
			},
		},
		{
			name: "invalid index name",
			args: []string{"--index", "no/slashes", "--where", "city=London"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "invalid index name")
				assert.Equal(t, cerrors.ErrCodeInvalidIndexName, cerrors.GetCode(err))
				assert.True(t, errors.Is(err, store.ErrInvalidIndexName))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(t, "", append([]string{"search", "--index", "people"}, tt.args...)...)
			require.Error(t, res.err)
			tt.check(t, res.err)
		})
	}
}

func TestPut_ReplacesExistingRecord(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	env.mustRun(t, "put", "--index", "people", "--id", "p1", "name=Ada Byron", "city=Paris")

	assert.Empty(t, searchRecords(t, env, "--where", "city=London", "--where", "name=Ada"))
	records := searchRecords(t, env, "--where", "city=Paris")
	require.Len(t, records, 1)
	assert.Equal(t, "Ada Byron", records[0].Fields["name"])
}

func TestPut_FromStdin(t *testing.T) {
	env := newCLIEnv(t)
	input := `{"id": "c1", "fields": {"name": "Acme", "country": "US"}}

{"id": "c2", "fields": {"name": "Globex", "country": "US"}}
`

	res := env.run(t, input, "put", "--index", "companies", "--file", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Registered 2 records in companies")

	out := env.mustRun(t, "search", "--index", "companies", "--where", "country=US", "--ids", "--format", "json")
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
}

func TestPut_Errors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{"missing index", "", []string{"put", "--id", "p1", "name=x"}, "index"},
		{"no id or file", "", []string{"put", "--index", "people", "name=x"}, "either --id or --file"},
		{"no fields", "", []string{"put", "--index", "people", "--id", "p1"}, "field=value"},
		{"bad field", "", []string{"put", "--index", "people", "--id", "p1", "=x"}, "invalid field"},
		{"file with fields", "", []string{"put", "--index", "people", "--file", "-", "name=x"}, "cannot be combined"},
		{"record without id", `{"fields": {"a": "b"}}`, []string{"put", "--index", "people", "--file", "-"}, "line 1: record has no id"},
		{"invalid json", `{`, []string{"put", "--index", "people", "--file", "-"}, "line 1: invalid record"},
		{"empty file", "\n\n", []string{"put", "--index", "people", "--file", "-"}, "no records found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(t, tt.stdin, tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestGet_PreservesOrderAndReportsMissing(t *testing.T) {
	env := newCLIEnv(t)
	seedPeople(t, env)

	out := env.mustRun(t, "get", "--index", "people", "--format", "json", "p3", "missing", "p1")
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Equal(t, []string{"p3", "p1"}, recordIDs(records))

	text := env.mustRun(t, "get", "--index", "people", "p2", "missing")
	assert.Contains(t, text, "Alan Turing")
	assert.Contains(t, text, "missing not found in people")
}

func TestDelete_RemovesFromIndexAndStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *cliEnv) {
		seedPeople(t, env)

		out := env.mustRun(t, "delete", "--index", "people", "p1", "nope")
		assert.Contains(t, out, "Deleted 1 record(s) from people")
		assert.Contains(t, out, "1 of 2 id(s) were not stored")

		assert.Equal(t, []string{"p2"}, recordIDs(searchRecords(t, env, "--where", "city=London")))
	})
}

func TestIndexes_ListsCounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *cliEnv) {
		// Given: an empty data dir
		assert.Contains(t, env.mustRun(t, "indexes"), "No indexes yet")

		// When: two indexes are populated
		seedPeople(t, env)
		env.mustRun(t, "put", "--index", "companies", "--id", "c1", "name=Acme")

		// Then: both are listed in name order with their counts
		out := env.mustRun(t, "indexes", "--json")
		var infos []indexInfo
		require.NoError(t, json.Unmarshal([]byte(out), &infos))
		assert.Equal(t, []indexInfo{
			{Name: "companies", Documents: 1},
			{Name: "people", Documents: 3},
		}, infos)
	})
}

func TestConfigShow_ReflectsFlagsAndFiles(t *testing.T) {
	env := newCLIEnv(t)
	writeProjectConfig(t, env, "loader:\n  workers: 3\n")

	out := env.mustRun(t, "config", "show", "--json")

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, env.dataDir, cfg.Index.DataDir)
	assert.Equal(t, 3, cfg.Loader.Workers)

	yamlOut := env.mustRun(t, "config", "show")
	assert.Contains(t, yamlOut, "workers: 3")
}

func TestConfigInit_CreatesThenBacksUp(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.dir, config.ProjectConfigFile)

	// Given: no project config
	out := env.mustRun(t, "config", "init")
	assert.Contains(t, out, "Created configuration")
	assert.FileExists(t, path)

	// When: initializing again without --force
	writeProjectConfig(t, env, "loader:\n  workers: 3\n")
	out = env.mustRun(t, "config", "init")

	// Then: the file is left alone
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loader:\n  workers: 3\n", string(data))

	// When: forcing
	out = env.mustRun(t, "config", "init", "--force")

	// Then: the old file is backed up and defaults are written
	assert.Contains(t, out, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "loader:\n  workers: 3\n", string(old))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 8")
}

func TestConfigInit_User(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "config", "init", "--user")

	assert.FileExists(t, config.GetUserConfigPath())
}

func TestConfigPath(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "config", "path")

	assert.Contains(t, out, config.GetUserConfigPath())
	assert.Contains(t, out, filepath.Join(env.dir, config.ProjectConfigFile))
}

func TestVersionCmd(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, version.Version+"\n", env.mustRun(t, "version", "--short"))
	assert.True(t, strings.HasPrefix(env.mustRun(t, "version"), "cuse "+version.Version))

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "version", "--json")), &info))
	assert.Equal(t, version.Version, info["version"])
	assert.Contains(t, info, "go_version")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"name=Ada", "expr=a=b", "empty="})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ada", "expr": "a=b", "empty": ""}, fields)
}

func TestParseWhere_KeepsOrder(t *testing.T) {
	filters, err := parseWhere([]string{"b=2", "a=1"})

	require.NoError(t, err)
	assert.Equal(t, []whereFilter{{"b", "2"}, {"a", "1"}}, filters)
}

func TestLogs_ReadsConfiguredFile(t *testing.T) {
	// Given: file logging at debug level
	env := newCLIEnv(t)
	logPath := filepath.Join(t.TempDir(), "cuse.log")
	t.Setenv("CUSE_LOG_FILE", logPath)
	t.Setenv("CUSE_LOG_LEVEL", "debug")

	// When: a search runs
	seedPeople(t, env)
	env.mustRun(t, "search", "--index", "people", "--where", "city=London", "--ids")

	// Then: the search event can be read back
	out := env.mustRun(t, "logs", "--filter", "search_executed")
	assert.Contains(t, out, "search_executed")
	assert.Contains(t, out, "index=people")
}

func TestLogs_MissingFile(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "logs", "--file", filepath.Join(t.TempDir(), "none.log"))

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "log file not found")
}
