package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

type CustomerRepository struct {
	coll *mongo.Collection
	ids  counter
	now  func() time.Time
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		coll: db.Collection(collectionCustomers),
		ids:  counter{coll: db.Collection(collectionCounters)},
		now:  time.Now,
	}
}

type customerDoc struct {
	ID        int64     `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Phone     *string   `bson:"phone"`
	Address   *string   `bson:"address"`
	Status    string    `bson:"status"`
	Notes     *string   `bson:"notes"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d customerDoc) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Address:   d.Address,
		Status:    domain.CustomerStatus(d.Status),
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// mutableFields is the $set document for a full-record replace.
func mutableFields(f domain.CustomerFields) bson.M {
	return bson.M{
		"name":    f.Name,
		"email":   f.Email,
		"phone":   f.Phone,
		"address": f.Address,
		"status":  string(f.Status),
		"notes":   f.Notes,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, f domain.CustomerFields) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx, collectionCustomers)
	if err != nil {
		return nil, err
	}

	doc := customerDoc{
		ID:      id,
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Address: f.Address,
		Status:  string(f.Status),
		Notes:   f.Notes,
		// BSON dates carry millisecond precision.
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer cur.Close(ctx)

	var docs []customerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}

	out := make([]*domain.Customer, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc customerDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, f domain.CustomerFields) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc customerDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": mutableFields(f)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}
	return res.DeletedCount > 0, nil
}
