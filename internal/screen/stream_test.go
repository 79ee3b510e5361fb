package screen

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/store/memstore"
)

func scanLines(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	scanner := bufio.NewScanner(buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestStreamFullEmitsMetaResultsThenComplete(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	seedJD(t, st, "proj1", "Backend role.")
	seedResume(t, st, "proj1", "a.txt", "Go engineer.")
	seedResume(t, st, "proj1", "b.txt", "Another candidate.")

	eng := New(st, &fakeGen{}, &fakeIndex{}, testConfig())
	var buf bytes.Buffer
	require.NoError(t, eng.Stream(ctx, Request{ProjectID: "proj1"}, &buf))

	lines := scanLines(t, &buf)
	require.Len(t, lines, 4) // meta + 2 results + complete

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "meta", meta["signal"])
	assert.Equal(t, float64(2), meta["total"])

	var complete map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &complete))
	assert.Equal(t, "complete", complete["signal"])
}

func TestStreamEmptyProjectEmitsOnlyMetaAndComplete(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	seedJD(t, st, "proj1", "Backend role.")

	eng := New(st, &fakeGen{}, &fakeIndex{}, testConfig())
	var buf bytes.Buffer
	require.NoError(t, eng.Stream(ctx, Request{ProjectID: "proj1"}, &buf))

	lines := scanLines(t, &buf)
	require.Len(t, lines, 2)
}

func TestStreamSmartEmitsMetaThenBottomTierBeforeTopTier(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	seedJD(t, st, "proj1", "Backend role requiring Go.")
	seedResume(t, st, "proj1", "top1.txt", "Go engineer.")
	seedResume(t, st, "proj1", "bottom1.txt", "Designer.")

	idx := &fakeIndex{fileScores: map[string]float64{"top1.txt": 0.95, "bottom1.txt": 0.10}}
	eng := New(st, &fakeGen{}, idx, testConfig())
	var buf bytes.Buffer
	require.NoError(t, eng.Stream(ctx, Request{ProjectID: "proj1", Smart: true, MinTopCount: 1}, &buf))

	lines := scanLines(t, &buf)
	require.Len(t, lines, 4) // meta + bottom result + top result + complete

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, float64(1), meta["top_tier_count"])
	assert.Equal(t, float64(1), meta["bottom_tier_count"])

	var bottomResult map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &bottomResult))
	assert.Equal(t, string(domain.FitLight), bottomResult["fit_label"])

	var complete map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &complete))
	assert.Equal(t, "complete", complete["signal"])
}
