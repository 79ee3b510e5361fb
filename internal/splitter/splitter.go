// Package splitter implements the two chunking strategies named in
// spec.md §4.2 Phase C: a section-aware chunker over a résumé's
// parsed_data, and a fallback recursive character splitter over raw text.
// Adapted from the ai/core/transformer/splitter (TextSplitter,
// TextSplitFunc) and ai/providers/document/transformers/splitter shapes,
// both since deleted from the tree (see DESIGN.md) — generalized here
// from "one splitter function over a flat document" into the fixed
// section-order table dispatch spec.md §9 calls for.
package splitter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/pkg/kv"
)

// Chunked is one produced chunk, prior to ChunkOrder assignment (the
// caller assigns ChunkOrder across the whole sequence — see BuildChunks).
type chunked struct {
	content     string
	sectionType string
}

// simpleSection is one entry in the fixed-order table of sections that are
// emitted as a single joined chunk.
type simpleSection struct {
	key         string
	sectionType string
	format      func(v any) (string, bool) // returns ("", false) to skip
}

var simpleSections = []simpleSection{
	{key: "summary", sectionType: "summary", format: formatPlainText},
	{key: "skills", sectionType: "skills", format: formatJoinedList("Skills: ")},
	{key: "certifications", sectionType: "certifications", format: formatJoinedList("Certifications: ")},
	{key: "languages", sectionType: "languages", format: formatJoinedList("Languages: ")},
}

// listSection is one entry in the fixed-order table of sections emitted as
// one chunk per item.
type listSection struct {
	key         string
	sectionType string
	formatItem  func(item kv.KSVA) string
}

var listSections = []listSection{
	{
		key:         "work_history",
		sectionType: "work_history",
		formatItem: func(item kv.KSVA) string {
			return fmt.Sprintf("%s at %s (%s)\n%s",
				cast.ToString(item.Get("title")),
				cast.ToString(item.Get("company")),
				cast.ToString(item.Get("dates")),
				cast.ToString(item.Get("description")))
		},
	},
	{
		key:         "education",
		sectionType: "education",
		formatItem: func(item kv.KSVA) string {
			return fmt.Sprintf("%s at %s (%s)",
				cast.ToString(item.Get("degree")),
				cast.ToString(item.Get("institution")),
				cast.ToString(item.Get("dates")))
		},
	},
	{
		key:         "projects",
		sectionType: "projects",
		formatItem: func(item kv.KSVA) string {
			return fmt.Sprintf("Project: %s\n%s",
				cast.ToString(item.Get("name")),
				cast.ToString(item.Get("description")))
		},
	},
}

func formatPlainText(v any) (string, bool) {
	s := cast.ToString(v)
	if s == "" {
		return "", false
	}
	return s, true
}

func formatJoinedList(prefix string) func(v any) (string, bool) {
	return func(v any) (string, bool) {
		items := cast.ToStringSlice(v)
		if len(items) == 0 {
			return "", false
		}
		return prefix + strings.Join(items, ", "), true
	}
}

// BuildChunks produces the ordered, numbered Chunk slice for one résumé,
// per spec.md §4.2 Phase C. It dispatches to SectionAware when parsedData
// is non-empty, and to Fallback over fullContent otherwise.
func BuildChunks(projectID, fileID string, parsedData kv.KSVA, fullContent string) []*domain.Chunk {
	var parts []chunked
	if len(parsedData) > 0 {
		parts = SectionAware(parsedData)
	} else {
		parts = fallbackParts(fullContent)
	}

	chunks := make([]*domain.Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, &domain.Chunk{
			ProjectID: projectID,
			Content:   p.content,
			Metadata: kv.NewKSVA().
				Put("file_id", fileID).
				Put("section_type", p.sectionType),
			ChunkOrder: i + 1,
		})
	}
	return chunks
}

// SectionAware produces chunks in the fixed section order of spec.md
// §4.2: the simple sections first (summary, skills, certifications,
// languages, each only if truthy), then the list-of-object sections
// (work_history, education, projects), one chunk per item.
func SectionAware(parsedData kv.KSVA) []chunked {
	var out []chunked
	for _, sec := range simpleSections {
		v, ok := parsedData.Value(sec.key)
		if !ok {
			continue
		}
		text, ok := sec.format(v)
		if !ok {
			continue
		}
		out = append(out, chunked{content: text, sectionType: sec.sectionType})
	}
	for _, sec := range listSections {
		v, ok := parsedData.Value(sec.key)
		if !ok {
			continue
		}
		items := toItems(v)
		for _, item := range items {
			out = append(out, chunked{content: sec.formatItem(item), sectionType: sec.sectionType})
		}
	}
	return out
}

func toItems(v any) []kv.KSVA {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return lo.FilterMap(raw, func(r any, _ int) (kv.KSVA, bool) {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, false
		}
		return kv.KSVA(m), true
	})
}

// Fallback config, per spec.md §4.2: chunk_size=1000, chunk_overlap=200,
// descending separator preference ["\n\n", "\n", " ", ""].
const (
	fallbackChunkSize    = 1000
	fallbackChunkOverlap = 200
)

var fallbackSeparators = []string{"\n\n", "\n", " ", ""}

func fallbackParts(text string) []chunked {
	raw := RecursiveSplit(text, fallbackChunkSize, fallbackChunkOverlap, fallbackSeparators)
	out := make([]chunked, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, chunked{content: r, sectionType: "raw"})
	}
	return out
}

// RecursiveSplit implements a recursive-character text splitter: try the
// first separator, and for any resulting piece still longer than
// chunkSize, recurse with the remaining separators. Final pieces are
// merged back together up to chunkSize with chunkOverlap carried forward,
// matching the classic "RecursiveCharacterTextSplitter" behavior this
// spec's fallback chunker is named after.
func RecursiveSplit(text string, chunkSize, chunkOverlap int, separators []string) []string {
	if text == "" {
		return nil
	}
	pieces := splitBySeparators(text, separators, chunkSize)
	return mergePieces(pieces, chunkSize, chunkOverlap)
}

func splitBySeparators(text string, separators []string, chunkSize int) []string {
	if len(separators) == 0 {
		return []string{text}
	}
	sep := separators[0]
	rest := separators[1:]

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var out []string
	for i, p := range pieces {
		if len(p) == 0 {
			continue
		}
		// reattach the separator so merging reconstructs original
		// spacing; only the final piece in the split omits it.
		if sep != "" && i < len(pieces)-1 {
			p += sep
		}
		if len(p) > chunkSize && len(rest) > 0 {
			out = append(out, splitBySeparators(p, rest, chunkSize)...)
			continue
		}
		out = append(out, p)
	}
	if len(out) <= 1 && len(rest) > 0 {
		return splitBySeparators(text, rest, chunkSize)
	}
	return out
}

func mergePieces(pieces []string, chunkSize, chunkOverlap int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
		}
	}

	for _, p := range pieces {
		if current.Len()+len(p) > chunkSize && current.Len() > 0 {
			flush()
			overlap := lastNChars(current.String(), chunkOverlap)
			current.Reset()
			current.WriteString(overlap)
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}

func lastNChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
