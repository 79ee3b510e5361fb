// Package qdrant implements vectorindex.Index against a Qdrant server,
// adapted from the ai/providers/vectorstores/qdrant store (since deleted,
// see DESIGN.md), which wired exactly one dense vector per point; this
// store generalizes that to two named vectors per point ("dense", "bm25")
// and queries with two RRF-fused prefetches, per spec.md §4.3.
package qdrant

import (
	"context"
	"fmt"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/filterexpr"
	"github.com/lynxscreen/screenpipe/internal/vectorindex"
	"github.com/lynxscreen/screenpipe/pkg/ptr"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "bm25"

	// payloadContentKey stores a chunk's text so query results can report
	// a preview without a second round-trip to the document store.
	payloadContentKey = "text"
	payloadFileIDKey  = "file_id"
)

// Store is a vectorindex.Index backed by a Qdrant server. One collection
// per project, named "project_{project_id}".
type Store struct {
	client   *qc.Client
	distance qc.Distance
	denseDim uint64
}

var _ vectorindex.Index = (*Store)(nil)

// New constructs a Store. distance must be one of the names
// internal/config.Config.Validate accepts (cosine, dot, euclid, manhattan).
func New(client *qc.Client, denseDim int, distance string) (*Store, error) {
	d, err := parseDistance(distance)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, distance: d, denseDim: uint64(denseDim)}, nil
}

func parseDistance(name string) (qc.Distance, error) {
	switch name {
	case "cosine":
		return qc.Distance_Cosine, nil
	case "dot":
		return qc.Distance_Dot, nil
	case "euclid":
		return qc.Distance_Euclid, nil
	case "manhattan":
		return qc.Distance_Manhattan, nil
	default:
		return 0, fmt.Errorf("qdrant: unsupported distance %q", name)
	}
}

func collectionName(projectID string) string {
	return "project_" + projectID
}

// EnsureCollection implements vectorindex.Index.
func (s *Store) EnsureCollection(ctx context.Context, projectID string, reset bool) error {
	name := collectionName(projectID)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return domain.VectorBackendError(err, "qdrant: check collection existence")
	}

	if exists && reset {
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return domain.VectorBackendError(err, "qdrant: drop collection %s", name)
		}
		exists = false
	}

	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: name,
		VectorsConfig: qc.NewVectorsConfigMap(map[string]*qc.VectorParams{
			denseVectorName: {
				Size:     s.denseDim,
				Distance: s.distance,
			},
		}),
		SparseVectorsConfig: qc.NewSparseVectorsConfig(map[string]*qc.SparseVectorParams{
			sparseVectorName: {},
		}),
	})
	if err != nil {
		return domain.VectorBackendError(err, "qdrant: create collection %s", name)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qc.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      payloadContentKey,
		FieldType:      qc.FieldType_FieldTypeText.Enum(),
	})
	if err != nil {
		return domain.VectorBackendError(err, "qdrant: create full-text index on %s", name)
	}

	return nil
}

// Upsert implements vectorindex.Index.
func (s *Store) Upsert(ctx context.Context, projectID string, points []vectorindex.Point) error {
	if len(points) == 0 {
		return nil
	}

	name := collectionName(projectID)
	built := make([]*qc.PointStruct, 0, len(points))
	for _, p := range points {
		point, err := s.buildPoint(p)
		if err != nil {
			return domain.VectorBackendError(err, "qdrant: build point for %s", p.ID)
		}
		built = append(built, point)
	}

	_, err := s.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: name,
		Wait:           ptr.Pointer(true),
		Points:         built,
	})
	if err != nil {
		return domain.VectorBackendError(err, "qdrant: upsert %d points into %s", len(built), name)
	}
	return nil
}

func (s *Store) buildPoint(p vectorindex.Point) (*qc.PointStruct, error) {
	point := &qc.PointStruct{
		Id: qc.NewID(p.ID),
		Vectors: qc.NewVectorsMap(map[string]*qc.Vector{
			denseVectorName:  qc.NewVectorDense(p.Dense),
			sparseVectorName: qc.NewVectorSparse(p.Sparse.Indices, p.Sparse.Values),
		}),
	}

	fileID, _ := p.Chunk.Metadata.Get(payloadFileIDKey).(string)
	fileIDValue, err := qc.NewValue(fileID)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payloadFileIDKey, err)
	}
	contentValue, err := qc.NewValue(p.Content)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payloadContentKey, err)
	}

	point.Payload = map[string]*qc.Value{
		payloadFileIDKey:  fileIDValue,
		payloadContentKey: contentValue,
	}
	return point, nil
}

// Query implements vectorindex.Index: a dense+sparse hybrid search, two
// prefetches fused by Qdrant's native RRF query mode.
func (s *Store) Query(ctx context.Context, projectID string, q vectorindex.Query, filter filterexpr.Expr, topK int) ([]vectorindex.ChunkHit, error) {
	name := collectionName(projectID)

	var qf *qc.Filter
	if filter != nil {
		f, err := filterexpr.ToQdrantFilter(filter)
		if err != nil {
			return nil, domain.InternalError(err, "qdrant: invalid filter")
		}
		qf = f
	}

	prefetchLimit := uint64(topK)
	query := &qc.QueryPoints{
		CollectionName: name,
		Limit:          ptr.Pointer(uint64(topK)),
		WithPayload:    qc.NewWithPayload(true),
		Filter:         qf,
		Prefetch: []*qc.PrefetchQuery{
			{
				Query:  qc.NewQueryDense(q.Dense),
				Using:  ptr.Pointer(denseVectorName),
				Limit:  ptr.Pointer(prefetchLimit),
				Filter: qf,
			},
			{
				Query:  qc.NewQuerySparse(q.Sparse.Indices, q.Sparse.Values),
				Using:  ptr.Pointer(sparseVectorName),
				Limit:  ptr.Pointer(prefetchLimit),
				Filter: qf,
			},
		},
		Query: qc.NewQueryFusion(qc.Fusion_RRF),
	}

	scored, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, domain.VectorBackendError(err, "qdrant: query %s", name)
	}

	hits := make([]vectorindex.ChunkHit, 0, len(scored))
	for _, point := range scored {
		payload := point.GetPayload()
		hits = append(hits, vectorindex.ChunkHit{
			FileID:  stringPayload(payload, payloadFileIDKey),
			Score:   float64(point.GetScore()),
			Content: stringPayload(payload, payloadContentKey),
		})
	}
	return hits, nil
}

func stringPayload(payload map[string]*qc.Value, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
