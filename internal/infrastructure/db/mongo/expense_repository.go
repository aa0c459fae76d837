package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

type ExpenseRepository struct {
	col *mongo.Collection
}

func NewExpenseRepository(db *mongo.Database) *ExpenseRepository {
	return &ExpenseRepository{col: db.Collection(collectionExpenses)}
}

type shareDoc struct {
	UserID string  `bson:"user_id"`
	Ratio  float64 `bson:"ratio"`
}

type expenseDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	GroupID    string             `bson:"group_id"`
	Amount     float64            `bson:"amount"`
	CategoryID string             `bson:"category_id"`
	Date       time.Time          `bson:"date"`
	PaidBy     string             `bson:"paid_by"`
	Notes      string             `bson:"notes,omitempty"`
	Split      []shareDoc         `bson:"split"`
	CreatedBy  string             `bson:"created_by"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func toExpenseDoc(e *domain.Expense) expenseDoc {
	split := make([]shareDoc, 0, len(e.Split))
	for _, s := range e.Split {
		split = append(split, shareDoc{UserID: s.UserID, Ratio: s.Ratio})
	}
	return expenseDoc{
		GroupID:    e.GroupID,
		Amount:     e.Amount,
		CategoryID: e.CategoryID,
		Date:       e.Date,
		PaidBy:     e.PaidBy,
		Notes:      e.Notes,
		Split:      split,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (d expenseDoc) toDomain() *domain.Expense {
	split := make([]domain.SplitShare, 0, len(d.Split))
	for _, s := range d.Split {
		split = append(split, domain.SplitShare{UserID: s.UserID, Ratio: s.Ratio})
	}
	return &domain.Expense{
		ID:         d.ID.Hex(),
		GroupID:    d.GroupID,
		Amount:     d.Amount,
		CategoryID: d.CategoryID,
		Date:       d.Date.UTC(),
		PaidBy:     d.PaidBy,
		Notes:      d.Notes,
		Split:      split,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toExpenseDoc(e)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*domain.Expense, error) {
	oid, err := objectID(id, domain.ErrExpenseNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc expenseDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	oid, err := objectID(e.ID, domain.ErrExpenseNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toExpenseDoc(e)
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"amount":      doc.Amount,
		"category_id": doc.CategoryID,
		"date":        doc.Date,
		"paid_by":     doc.PaidBy,
		"notes":       doc.Notes,
		"split":       doc.Split,
		"updated_at":  doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrExpenseNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// List returns matching expenses, newest date first.
func (r *ExpenseRepository) List(ctx context.Context, f ports.ExpenseFilter) ([]*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"group_id": f.GroupID}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}
	dateRange := bson.M{}
	if !f.DateFrom.IsZero() {
		dateRange["$gte"] = f.DateFrom
	}
	if !f.DateTo.IsZero() {
		dateRange["$lte"] = f.DateTo
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	out := make([]*domain.Expense, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ExpenseRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"group_id": groupID}); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return nil
}
