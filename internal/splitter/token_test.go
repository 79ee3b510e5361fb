package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/pkg/kv"
)

func TestSplitOversizedByTokensPassesThroughSmallChunks(t *testing.T) {
	chunks := []*domain.Chunk{
		{Content: "short chunk", Metadata: kv.NewKSVA().Put("section_type", "summary"), ChunkOrder: 1},
	}
	out := SplitOversizedByTokens(chunks, 8191)
	require.Len(t, out, 1)
	require.Equal(t, "short chunk", out[0].Content)
	require.Equal(t, "summary", out[0].Metadata.Get("section_type"))
}

func TestSplitOversizedByTokensSplitsAndRenumbers(t *testing.T) {
	huge := strings.Repeat("word ", 20000)
	chunks := []*domain.Chunk{
		{Content: huge, Metadata: kv.NewKSVA().Put("section_type", "raw"), ChunkOrder: 1},
	}
	out := SplitOversizedByTokens(chunks, 100)
	require.Greater(t, len(out), 1)
	for i, c := range out {
		require.Equal(t, i+1, c.ChunkOrder)
		require.Equal(t, "raw/split", c.Metadata.Get("section_type"))
		require.NotEmpty(t, c.Content)
	}
}
