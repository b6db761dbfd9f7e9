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

var _ ports.OrderRepository = (*OrderRepository)(nil)

type orderLineDoc struct {
	Product  productDoc `bson:"product"`
	Quantity int        `bson:"quantity"`
}

type orderDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Products  []orderLineDoc     `bson:"products"`
	Total     float64            `bson:"total"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d orderDoc) entity() entity.Order {
	o := entity.Order{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Lines:     make([]entity.OrderLine, len(d.Products)),
		Total:     d.Total,
		CreatedAt: d.CreatedAt,
	}
	for i, l := range d.Products {
		o.Lines[i] = entity.OrderLine{Product: l.Product.entity(), Quantity: l.Quantity}
	}
	return o
}

type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Create(ctx context.Context, o entity.Order) (entity.Order, error) {
	uid, err := objectID(o.UserID, ports.ErrNotFound)
	if err != nil {
		return entity.Order{}, err
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	d := orderDoc{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		Products:  make([]orderLineDoc, len(o.Lines)),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
	for i, l := range o.Lines {
		d.Products[i] = orderLineDoc{Product: toProductDoc(l.Product), Quantity: l.Quantity}
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return entity.Order{}, fmt.Errorf("mongo: insert order: %w", err)
	}
	return d.entity(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, ports.ErrNotFound)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: delete order %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("order %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []entity.Order{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"userId": uid},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode orders: %w", err)
	}
	out := make([]entity.Order, len(docs))
	for i, d := range docs {
		out[i] = d.entity()
	}
	return out, nil
}

// Revenue sums the totals of every order.
func (r *OrderRepository) Revenue(ctx context.Context) (float64, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	})
	if err != nil {
		return 0, fmt.Errorf("mongo: revenue: %w", err)
	}
	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("mongo: decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}
