package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/parquet"
	"github.com/huangsam/gitfixes/schema"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleResult = schema.FixesResult{
	Groups: []schema.MatchGroup{
		{Owner: "alice@example.com", Matches: []schema.MatchResult{
			{CommitID: "0123456789abcdef0123456789abcdef01234567", Subject: "net: fix leak", Owner: "alice@example.com", Stable: true, SourcePath: "patches/a.patch"},
			{CommitID: "89abcdef0123456789abcdef0123456789abcdef", Subject: "net: fix race", Owner: "alice@example.com"},
		}},
		{Owner: "bob@example.com", Matches: []schema.MatchResult{
			{CommitID: "fedcba9876543210fedcba9876543210fedcba98", Subject: "mm: fix oops", Owner: "bob@example.com"},
		}},
	},
	Stats: schema.RunStats{Commits: 42, Matches: 4, Pruned: 1},
}

func textConfig() *contract.Config {
	return &contract.Config{Grouping: true, Width: 200}
}

func TestWriteFixesText(t *testing.T) {
	t.Run("grouped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, sampleResult, textConfig()))
		expected := "alice@example.com (2):\n" +
			"\t0123456789ab net: fix leak\n" +
			"\t89abcdef0123 net: fix race\n" +
			"\n" +
			"bob@example.com (1):\n" +
			"\tfedcba987654 mm: fix oops\n" +
			"\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("grouping disabled", func(t *testing.T) {
		result := schema.FixesResult{Groups: []schema.MatchGroup{{
			Owner:   schema.DefaultGroup,
			Matches: sampleResult.Groups[1].Matches,
		}}}
		cfg := textConfig()
		cfg.Grouping = false
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, result, cfg))
		assert.Equal(t, "fedcba987654 mm: fix oops\n\n", buf.String())
	})

	t.Run("nothing found with stats", func(t *testing.T) {
		cfg := textConfig()
		cfg.Stats = true
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, schema.FixesResult{Stats: schema.RunStats{Commits: 7}}, cfg))
		assert.Equal(t, "Nothing found\nFound 7 objects (0 matches)\n", buf.String())
	})

	t.Run("empty groups are skipped", func(t *testing.T) {
		var buf bytes.Buffer
		result := schema.FixesResult{Groups: []schema.MatchGroup{{Owner: "x"}}}
		require.NoError(t, writeFixesText(&buf, result, textConfig()))
		assert.Equal(t, "Nothing found\n", buf.String())
	})

	t.Run("stats line", func(t *testing.T) {
		cfg := textConfig()
		cfg.Stats = true
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, sampleResult, cfg))
		assert.True(t, strings.HasSuffix(buf.String(), "\nFound 42 objects (3 matches, 1 reverted)\n"), buf.String())
	})

	t.Run("stats count what is listed", func(t *testing.T) {
		cfg := textConfig()
		cfg.Stats = true
		pruned := schema.FixesResult{
			Groups: []schema.MatchGroup{{Owner: "bob", Matches: []schema.MatchResult{}}},
			Stats:  schema.RunStats{Commits: 2, Matches: 1, Pruned: 1, Reverts: 1},
		}
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, pruned, cfg))
		assert.Equal(t, "Nothing found\nFound 2 objects (0 matches, 1 reverted)\n", buf.String())
	})

	t.Run("narrow width truncates subjects", func(t *testing.T) {
		cfg := textConfig()
		cfg.Width = 40
		long := schema.FixesResult{Groups: []schema.MatchGroup{{Owner: "o", Matches: []schema.MatchResult{
			{CommitID: "0123456789abcdef", Subject: strings.Repeat("s", 60)},
		}}}}
		var buf bytes.Buffer
		require.NoError(t, writeFixesText(&buf, long, cfg))
		lines := strings.Split(buf.String(), "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.True(t, strings.HasSuffix(lines[1], "..."))
		assert.Len(t, lines[1], 1+13+20)
	})
}

func TestWriteFixesList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFixesList(&buf, sampleResult))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "alice@example.com;0123456789abcdef0123456789abcdef01234567;patches/a.patch;net: fix leak", lines[0])
	assert.Equal(t, "bob@example.com;fedcba9876543210fedcba9876543210fedcba98;;mm: fix oops", lines[2])
}

func TestWriteFixesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFixesCSV(&buf, sampleResult))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"group", "commit_id", "owner", "subject", "source_path", "stable"}, records[0])
	assert.Equal(t, "true", records[1][5])
	assert.Equal(t, "bob@example.com", records[3][0])
}

func TestWriteFixesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFixesJSON(&buf, schema.FixesResult{}))
	var empty schema.FixesResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &empty))
	assert.NotNil(t, empty.Groups, "empty reports encode an empty list")

	buf.Reset()
	require.NoError(t, writeFixesJSON(&buf, sampleResult))
	var decoded schema.FixesResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleResult, decoded)
}

func TestWriteFixesResultToFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("text", func(t *testing.T) {
		path := filepath.Join(dir, "report.txt")
		cfg := &contract.Config{Grouping: true, Output: schema.TextOut, OutputFile: path, UseColors: true}
		require.NoError(t, WriteFixesResult(sampleResult, cfg))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "alice@example.com (2):\n"), "files never get colors")
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "report.parquet")
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path}
		require.NoError(t, WriteFixesResult(sampleResult, cfg))
		rows, err := pq.ReadFile[parquet.ReportRow](path)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "bob@example.com", rows[2].Group)
	})

	t.Run("parquet needs a file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut}
		assert.Error(t, WriteFixesResult(sampleResult, cfg))
	})
}
