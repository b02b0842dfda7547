// Package mongo implements store.Store on MongoDB.
package mongo

import (
	"context"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// DefaultTimeout bounds server selection and the connect ping.
const DefaultTimeout = 10 * time.Second

// Options configures Dial.
type Options struct {
	Timeout time.Duration
	Logger  *log.Logger
}

// Store is a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *log.Logger
}

// Dial connects to the database and pings it. The URI and database name
// are validated first.
func Dial(ctx context.Context, uri, dbName string, opts Options) (*Store, error) {
	if err := errors.ValidateConnection(uri, dbName); err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(opts.Timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "ping")
	}

	logger.Debug("connected to mongodb", "db", dbName)
	return &Store{client: client, db: client.Database(dbName), logger: logger}, nil
}

// Dialer returns a store.Dialer using opts.
func Dialer(opts Options) store.Dialer {
	return func(ctx context.Context, uri, dbName string) (store.Store, error) {
		s, err := Dial(ctx, uri, dbName, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// CatalogExists implements catalog.Catalog.
func (s *Store) CatalogExists(ctx context.Context, name string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeTransport, err, "list collections")
	}
	return len(names) > 0, nil
}

// FindByIDs implements catalog.Catalog with a single $in query. Each id is
// matched in its string, integer and ObjectID forms, so stored documents
// may use any of them.
func (s *Store) FindByIDs(ctx context.Context, name string, ids []workflow.ID) ([]workflow.MetadataRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var candidates bson.A
	for _, id := range ids {
		candidates = append(candidates, IDCandidates(id)...)
	}

	cur, err := s.db.Collection(name).Find(ctx, bson.M{"_id": bson.M{"$in": candidates}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "query %s", name)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "read %s", name)
	}

	records := make([]workflow.MetadataRecord, len(docs))
	for i, doc := range docs {
		records[i] = workflow.RecordFromDocument(doc)
	}
	s.logger.Debug("catalog lookup", "catalog", name, "ids", len(ids), "found", len(records))
	return records, nil
}

// ListWorkflows implements store.Store.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	ok, err := s.CatalogExists(ctx, catalog.WorkflowCatalog)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeCatalogUnavailable, "collection %s does not exist", catalog.WorkflowCatalog)
	}

	cur, err := s.db.Collection(catalog.WorkflowCatalog).Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "query %s", catalog.WorkflowCatalog)
	}
	list := []workflow.Workflow{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "read %s", catalog.WorkflowCatalog)
	}
	workflow.AssignIDs(list)
	return list, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)

// IDCandidates returns the stored forms an id may have: the string itself,
// the integer when it is a base-10 integer, and the ObjectID when it is 24
// hex digits.
func IDCandidates(id workflow.ID) bson.A {
	s := id.String()
	out := bson.A{s}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			out = append(out, int32(n))
		}
		out = append(out, n)
	}
	if len(s) == 24 {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
