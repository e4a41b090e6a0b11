package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itik-it/grindstack/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) ProductRepository {
	return &mongoRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoRepository) GetAll(ctx context.Context) ([]*domain.Product, error) {
	return m.find(ctx, bson.M{})
}

func (m *mongoRepository) GetByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return m.find(ctx, bson.M{"category": category})
}

func (m *mongoRepository) find(ctx context.Context, filter bson.M) ([]*domain.Product, error) {
	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m *mongoRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *mongoRepository) GetByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"product_id": productID})
}

func (m *mongoRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (m *mongoRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.ID == "" {
		product.ID = primitive.NewObjectID().Hex()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProductID
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m *mongoRepository) Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	set := bson.M{"updated_at": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Stock != nil {
		set["stock"] = *update.Stock
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Images != nil {
		set["images"] = *update.Images
	}

	return m.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *mongoRepository) UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	update := bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now()}}
	return m.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (m *mongoRepository) DecrementStock(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	// The stock >= quantity predicate and the $inc run as one document
	// update, so two concurrent checkouts cannot both win the same units.
	filter := bson.M{
		"product_id": productID,
		"stock":      bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}

	product, err := m.findOneAndUpdate(ctx, filter, update)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}

	// Filter miss: either the product is gone or stock ran short.
	if _, readErr := m.GetByProductID(ctx, productID); readErr != nil {
		return nil, readErr
	}
	return nil, ErrInsufficientStock
}

func (m *mongoRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return &product, nil
}

func (m *mongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
