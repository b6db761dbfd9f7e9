package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

type cartLineDoc struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Quantity  int                `bson:"quantity"`
}

type userDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	Password         string             `bson:"password"`
	Role             string             `bson:"role"`
	Cart             []cartLineDoc      `bson:"cart"`
	ResetToken       string             `bson:"resetToken,omitempty"`
	ResetTokenExpiry time.Time          `bson:"resetTokenExpiry,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func toCartDocs(lines []entity.CartLine) []cartLineDoc {
	out := make([]cartLineDoc, 0, len(lines))
	for _, l := range lines {
		oid, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			continue
		}
		out = append(out, cartLineDoc{ProductID: oid, Quantity: l.Quantity})
	}
	return out
}

func toUserDoc(u entity.User) userDoc {
	d := userDoc{
		Email:            u.Email,
		Password:         u.PasswordHash,
		Role:             string(u.Role),
		Cart:             toCartDocs(u.Cart),
		ResetToken:       u.ResetToken,
		ResetTokenExpiry: u.ResetTokenExpiry,
		CreatedAt:        u.CreatedAt,
	}
	d.ID, _ = primitive.ObjectIDFromHex(u.ID)
	return d
}

func (d userDoc) entity() entity.User {
	u := entity.User{
		ID:               d.ID.Hex(),
		Email:            d.Email,
		PasswordHash:     d.Password,
		Role:             entity.Role(d.Role),
		Cart:             make([]entity.CartLine, len(d.Cart)),
		ResetToken:       d.ResetToken,
		ResetTokenExpiry: d.ResetTokenExpiry,
		CreatedAt:        d.CreatedAt,
	}
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	for i, l := range d.Cart {
		u.Cart[i] = entity.CartLine{ProductID: l.ProductID.Hex(), Quantity: l.Quantity}
	}
	return u
}

type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) Create(ctx context.Context, u entity.User) (entity.User, error) {
	u.CreatedAt = time.Now().UTC()
	d := toUserDoc(u)
	d.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrDuplicate)
		}
		return entity.User{}, fmt.Errorf("mongo: insert user: %w", err)
	}
	return d.entity(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, what string) (entity.User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if isNoDocuments(err) {
		return entity.User{}, fmt.Errorf("user %s: %w", what, ports.ErrNotFound)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("mongo: find user %s: %w", what, err)
	}
	return d.entity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (entity.User, error) {
	oid, err := objectID(id, ports.ErrNotFound)
	if err != nil {
		return entity.User{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (entity.User, error) {
	if token == "" {
		return entity.User{}, fmt.Errorf("reset token: %w", ports.ErrNotFound)
	}
	return r.findOne(ctx, bson.M{
		"resetToken":       token,
		"resetTokenExpiry": bson.M{"$gt": time.Now().UTC()},
	}, "by reset token")
}

// Update rewrites the mutable fields of the user. An empty reset token
// removes the token fields.
func (r *UserRepository) Update(ctx context.Context, u entity.User) error {
	oid, err := objectID(u.ID, ports.ErrNotFound)
	if err != nil {
		return err
	}
	d := toUserDoc(u)
	set := bson.M{
		"email":    d.Email,
		"password": d.Password,
		"role":     d.Role,
		"cart":     d.Cart,
	}
	update := bson.M{"$set": set}
	if d.ResetToken == "" {
		update["$unset"] = bson.M{"resetToken": "", "resetTokenExpiry": ""}
	} else {
		set["resetToken"] = d.ResetToken
		set["resetTokenExpiry"] = d.ResetTokenExpiry
	}

	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("mongo: update user %s: %w", u.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", u.ID, ports.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) SaveCart(ctx context.Context, userID string, lines []entity.CartLine) error {
	oid, err := objectID(userID, ports.ErrNotFound)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"cart": toCartDocs(lines)}})
	if err != nil {
		return fmt.Errorf("mongo: save cart of %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, ports.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) CountWithCart(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"cart.0": bson.M{"$exists": true}})
	if err != nil {
		return 0, fmt.Errorf("mongo: count carts: %w", err)
	}
	return n, nil
}
