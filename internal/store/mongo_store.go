package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// productDocument is the BSON shape of a product in the collection.
type productDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	ProductType      string             `bson:"productType"`
	Comision         float64            `bson:"comision"`
	LimitMovimientos int32              `bson:"limitMovimientos"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func (d productDocument) toProduct() BankProduct {
	return BankProduct{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		ProductType:      d.ProductType,
		Comision:         d.Comision,
		LimitMovimientos: d.LimitMovimientos,
		CreatedAt:        d.CreatedAt,
	}
}

// toDocument maps p to its BSON shape. BSON dates hold milliseconds, so createdAt is truncated
// to keep the returned product equal to what a later read yields.
func toDocument(id primitive.ObjectID, p BankProduct) productDocument {
	return productDocument{
		ID:               id,
		Name:             p.Name,
		ProductType:      p.ProductType,
		Comision:         p.Comision,
		LimitMovimientos: p.LimitMovimientos,
		CreatedAt:        p.CreatedAt.UTC().Truncate(time.Millisecond),
	}
}

// MongoStore implements ProductStore on a MongoDB collection. IDs are ObjectID hex strings.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a ProductStore backed by the named collection of db.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{
		collection: db.Collection(collection),
	}
}

// FindAll streams the collection through a cursor in _id order.
// The cursor is closed when iteration ends, including early exit.
func (s *MongoStore) FindAll(ctx context.Context) iter.Seq2[BankProduct, error] {
	return func(yield func(BankProduct, error) bool) {
		opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
		cursor, err := s.collection.Find(ctx, bson.D{}, opts)
		if err != nil {
			yield(BankProduct{}, fmt.Errorf("failed to find all products: %w", err))
			return
		}
		defer func() { _ = cursor.Close(context.WithoutCancel(ctx)) }()

		for cursor.Next(ctx) {
			var doc productDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(BankProduct{}, fmt.Errorf("failed to decode product: %w", err))
				return
			}
			if !yield(doc.toProduct(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(BankProduct{}, fmt.Errorf("failed to iterate products: %w", err))
		}
	}
}

// FindByID retrieves a product by its ObjectID hex string.
func (s *MongoStore) FindByID(ctx context.Context, id string) (BankProduct, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return BankProduct{}, false, nil
	}
	var doc productDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return BankProduct{}, false, nil
		}
		return BankProduct{}, false, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return doc.toProduct(), true, nil
}

// Insert stores the product under a new ObjectID.
func (s *MongoStore) Insert(ctx context.Context, product BankProduct) (BankProduct, error) {
	doc := toDocument(primitive.NewObjectID(), product)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return BankProduct{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return doc.toProduct(), nil
}

// Update replaces the document with the product's ID.
func (s *MongoStore) Update(ctx context.Context, product BankProduct) (BankProduct, error) {
	oid, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return BankProduct{}, perrors.ErrProductNotFound
	}
	doc := toDocument(oid, product)
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return BankProduct{}, fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return BankProduct{}, perrors.ErrProductNotFound
	}
	return doc.toProduct(), nil
}

// Delete removes the document with the product's ID.
func (s *MongoStore) Delete(ctx context.Context, product BankProduct) error {
	oid, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return perrors.ErrProductNotFound
	}
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// Ping checks the connection to the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, readpref.Primary())
}
