package vectorstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Store is the sole owner of all Qdrant operations for one collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a Store around already-constructed Qdrant clients,
// bypassing the gRPC dial. Used by tests to inject mocks.
func NewWithClients(points pb.PointsClient, collections pb.CollectionsClient, collection string) *Store {
	return &Store{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection, if one was dialed.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// EnsureCollection implements spec §4.7.1: create the collection with
// cosine distance if absent; if present but its vector size doesn't match
// dims, delete and recreate it.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}

	exists := false
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			exists = true
			break
		}
	}

	if exists {
		info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
		if err != nil {
			return fmt.Errorf("vectorstore: get collection info %s: %w", s.collection, err)
		}
		current := int(info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if current == dims {
			return nil
		}
		if err := s.DeleteCollection(ctx); err != nil {
			return fmt.Errorf("vectorstore: recreate collection %s: %w", s.collection, err)
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", s.collection, err)
	}
	return nil
}

// DeleteCollection deletes the collection.
func (s *Store) DeleteCollection(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("vectorstore: delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert stores records into Qdrant, waiting for confirmation before
// returning, per spec §4.7 step 6.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*pb.Value, len(r.Payload))
		for k, val := range r.Payload {
			payload[k] = toValue(val)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Embedding}},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d points: %w", len(records), err)
	}
	return nil
}

// DeleteBySource removes all points matching a source identifier. Used when
// re-ingesting the same source to avoid duplicate chunks.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{Must: []*pb.Condition{fieldMatch("source", source)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete by source %s: %w", source, err)
	}
	return nil
}

// Search performs k-NN similarity search, optionally filtered by category.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, category string) ([]SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if category != "" {
		req.Filter = &pb.Filter{Must: []*pb.Condition{fieldMatch("category", category)}}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	results := make([]SearchResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		sr := SearchResult{ID: r.GetId().GetUuid(), Score: r.GetScore(), Meta: map[string]string{}}
		for k, val := range r.GetPayload() {
			str := val.GetStringValue()
			switch k {
			case "text":
				sr.Content = str
			case "source":
				sr.Source = str
			default:
				sr.Meta[k] = str
			}
		}
		results[i] = sr
	}
	return results, nil
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
			},
		},
	}
}
