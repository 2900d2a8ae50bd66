// Package remotestore implements the session-partitioned multi-vector page
// store on Qdrant. Each point is one page of a document embedded as a set of
// sub-vectors compared under max-similarity aggregation: every query
// sub-vector takes its best match among a page's sub-vectors and the scores
// are aggregated per page.
package remotestore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Config holds connection and collection settings for the store.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string

	// Dimension is the sub-vector size (fixed per deployment).
	Dimension uint64

	// Retry bounds the batched upsert path. Zero value selects
	// DefaultRetryPolicy.
	Retry RetryPolicy
}

// Store wraps the Qdrant client with collection management and the retrying
// batched upsert.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	retry      RetryPolicy
}

// New creates a store and verifies the server is reachable, retrying the
// health check briefly so a freshly started Qdrant has time to come up.
func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		retry:      retry,
	}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return s, nil
}

// healthCheckWithRetry pings the server with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the page collection if it does not exist:
// cosine-distance sub-vectors of the configured dimension under a MaxSim
// multi-vector comparator, plus a keyword payload index on session_id so
// session filtering stays fast. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
			MultivectorConfig: &qdrant.MultiVectorConfig{
				Comparator: qdrant.MultiVectorComparator_MaxSim,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "session_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create session_id index: %w", err)
	}
	return nil
}

// UpsertBatch writes a batch of page points, retrying transient failures per
// the configured policy. The write waits for the points to be applied so a
// successful return means the batch is durable in the collection.
func (s *Store) UpsertBatch(ctx context.Context, points []PagePoint) error {
	if len(points) == 0 {
		return nil
	}
	for i, p := range points {
		for _, v := range p.Vectors {
			if uint64(len(v)) != s.dimension {
				return fmt.Errorf("%w: point %d has a %d-dim sub-vector, expected %d",
					ErrDimensionMismatch, i, len(v), s.dimension)
			}
		}
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectorsMulti(p.Vectors),
			Payload: qdrant.NewValueMap(map[string]any{
				"session_id": p.Payload.SessionID,
				"document":   p.Payload.Document,
				"page":       p.Payload.Page,
			}),
		}
	}

	return retryOperation(ctx, s.retry, func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         qdrantPoints,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	})
}

// Query runs a multi-vector nearest-neighbor search restricted to one
// session and returns scored payloads, highest first. Vectors are not
// returned.
func (s *Store) Query(ctx context.Context, queryVectors [][]float32, topK int, sessionID string) ([]ScoredPage, error) {
	for _, v := range queryVectors {
		if uint64(len(v)) != s.dimension {
			return nil, fmt.Errorf("%w: query has a %d-dim sub-vector, expected %d",
				ErrDimensionMismatch, len(v), s.dimension)
		}
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryMulti(queryVectors),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("session_id", sessionID),
			},
		},
		Limit:       qdrant.PtrOf(uint64(topK)),
		WithPayload: qdrant.NewWithPayload(true),
		WithVectors: qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}

	pages := make([]ScoredPage, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		pages = append(pages, ScoredPage{
			Score: result.Score,
			Payload: PagePayload{
				SessionID: payload["session_id"].GetStringValue(),
				Document:  payload["document"].GetStringValue(),
				Page:      int(payload["page"].GetIntegerValue()),
			},
		})
	}
	return pages, nil
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	PointsCount uint64
}

// GetCollectionInfo retrieves collection statistics including total points.
func (s *Store) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &CollectionInfo{PointsCount: info.GetPointsCount()}, nil
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
