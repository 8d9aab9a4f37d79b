package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

func readLines(t *testing.T, path string) []Record {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestFileReadingWriter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	w := NewFileReadingWriter(dir)

	n, err := w.Write(ctx, "default", []llu.Reading{
		reading("1/2/2024 3:04:05 PM", 110),
		reading("1/2/2024 3:09:05 PM", 115),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.Write(ctx, "default", []llu.Reading{
		reading("1/2/2024 3:09:05 PM", 115),
		reading("1/2/2024 3:14:05 PM", 120),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records := readLines(t, filepath.Join(dir, "default.jsonl"))
	require.Len(t, records, 3)
	assert.Equal(t, "1/2/2024 3:14:05 PM", records[2].FactoryTimestamp)
	assert.Equal(t, ReadingID("default", "1/2/2024 3:14:05 PM"), records[2].ID)
}

func TestFileReadingWriter_DedupesAcrossInstances(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	_, err := NewFileReadingWriter(dir).Write(ctx, "default", []llu.Reading{reading("1/2/2024 3:04:05 PM", 110)})
	require.NoError(t, err)

	n, err := NewFileReadingWriter(dir).Write(ctx, "default", []llu.Reading{reading("1/2/2024 3:04:05 PM", 110)})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "existing file contents are honoured after restart")
}

func TestFileReadingWriter_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewFileReadingWriter(dir)

	_, err := w.Write(context.Background(), "../escape", []llu.Reading{reading("1/2/2024 3:04:05 PM", 110)})
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jsonl"), []byte("{not json\n"), 0o600))
	_, err = w.Write(context.Background(), "broken", []llu.Reading{reading("1/2/2024 3:04:05 PM", 110)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse readings file")
}
