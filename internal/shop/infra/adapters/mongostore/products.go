package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

type ratingDoc struct {
	Rate  float64 `bson:"rate"`
	Count int     `bson:"count"`
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Image       string             `bson:"image"`
	ImageURL    string             `bson:"imageUrl,omitempty"`
	Category    string             `bson:"category"`
	Rating      ratingDoc          `bson:"rating"`
	Gallery     []string           `bson:"gallery,omitempty"`
	UserID      primitive.ObjectID `bson:"userId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toProductDoc(p entity.Product) productDoc {
	d := productDoc{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Rating:      ratingDoc{Rate: p.Rating.Rate, Count: p.Rating.Count},
		Gallery:     p.Gallery,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	d.ID, _ = primitive.ObjectIDFromHex(p.ID)
	d.UserID, _ = primitive.ObjectIDFromHex(p.UserID)
	return d
}

func (d productDoc) entity() entity.Product {
	return entity.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
		ImageURL:    d.ImageURL,
		Category:    d.Category,
		Rating:      entity.Rating{Rate: d.Rating.Rate, Count: d.Rating.Count},
		Gallery:     d.Gallery,
		UserID:      hexOrEmpty(d.UserID),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type ProductRepository struct {
	coll *mongo.Collection
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]entity.Product, error) {
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode products: %w", err)
	}
	out := make([]entity.Product, len(docs))
	for i, d := range docs {
		out[i] = d.entity()
	}
	return out, nil
}

// List pages through products in insertion order.
func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]entity.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list products: %w", err)
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (entity.Product, error) {
	oid, err := objectID(id, ports.ErrNotFound)
	if err != nil {
		return entity.Product{}, err
	}
	var d productDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if isNoDocuments(err) {
		return entity.Product{}, fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return entity.Product{}, fmt.Errorf("mongo: get product %s: %w", id, err)
	}
	return d.entity(), nil
}

func (r *ProductRepository) GetMany(ctx context.Context, ids []string) ([]entity.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []entity.Product{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("mongo: get products: %w", err)
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) Create(ctx context.Context, p entity.Product) (entity.Product, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	d := toProductDoc(p)
	d.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return entity.Product{}, fmt.Errorf("mongo: insert product: %w", err)
	}
	return d.entity(), nil
}

func (r *ProductRepository) Update(ctx context.Context, p entity.Product) (entity.Product, error) {
	oid, err := objectID(p.ID, ports.ErrNotFound)
	if err != nil {
		return entity.Product{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	d := toProductDoc(p)

	set := bson.M{
		"title":       d.Title,
		"price":       d.Price,
		"description": d.Description,
		"image":       d.Image,
		"imageUrl":    d.ImageURL,
		"category":    d.Category,
		"rating":      d.Rating,
		"gallery":     d.Gallery,
		"updatedAt":   d.UpdatedAt,
	}
	var updated productDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if isNoDocuments(err) {
		return entity.Product{}, fmt.Errorf("product %s: %w", p.ID, ports.ErrNotFound)
	}
	if err != nil {
		return entity.Product{}, fmt.Errorf("mongo: update product %s: %w", p.ID, err)
	}
	return updated.entity(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, ports.ErrNotFound)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	return nil
}
