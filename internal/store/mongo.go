package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tg_earning_bot/internal/config"
	"tg_earning_bot/internal/domain"
)

// CollectionAccounts holds one document per ledger account.
const CollectionAccounts = "accounts"

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Accounts returns the accounts collection handle.
func (m *Manager) Accounts() *mongo.Collection {
	return m.db.Collection(CollectionAccounts)
}

// EnsureBaseIndexes creates the unique index on user_id for the accounts
// collection. The collection is created implicitly if it does not exist.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	accountIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Accounts(), accountIndexes); err != nil {
		return fmt.Errorf("create accounts indexes: %w", err)
	}

	return nil
}

// Ping verifies connectivity against the primary; used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}

// accountDoc is the Mongo representation of one ledger entry: the map key
// becomes an explicit user_id field next to the inlined account.
type accountDoc struct {
	UserID  int64          `bson:"user_id"`
	Account domain.Account `bson:",inline"`
}

type accountCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// MongoStore implements Store on top of the accounts collection. It keeps
// the whole-document contract of the file backend: Load reads every account,
// Save upserts every account.
type MongoStore struct {
	accounts accountCollection
}

// NewMongoStore constructs a MongoStore over the provided collection.
func NewMongoStore(accounts accountCollection) *MongoStore {
	return &MongoStore{accounts: accounts}
}

// Load reads the full accounts collection into a ledger.
func (s *MongoStore) Load(ctx context.Context) (domain.Ledger, error) {
	if s == nil || s.accounts == nil {
		return domain.Ledger{}, errors.New("mongo store is not initialized")
	}

	cursor, err := s.accounts.Find(ctx, bson.D{})
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("find accounts: %w", err)
	}
	defer cursor.Close(ctx)

	ledger := domain.Ledger{}
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return domain.Ledger{}, fmt.Errorf("decode account: %w", err)
		}

		acc := doc.Account
		ledger[doc.UserID] = &acc
	}

	if err := cursor.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("iterate accounts: %w", err)
	}

	return ledger, nil
}

// Save upserts every ledger entry keyed by user_id.
func (s *MongoStore) Save(ctx context.Context, ledger domain.Ledger) error {
	if s == nil || s.accounts == nil {
		return errors.New("mongo store is not initialized")
	}

	for id, acc := range ledger {
		doc := accountDoc{UserID: id, Account: *acc}

		if _, err := s.accounts.ReplaceOne(ctx,
			bson.M{"user_id": id},
			doc,
			options.Replace().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("upsert account %d: %w", id, err)
		}
	}

	return nil
}
