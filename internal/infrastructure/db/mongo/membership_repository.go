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
)

// MembershipRepository is the roster. The unique (group_id, user_id) index
// makes Add idempotent under concurrent joins.
type MembershipRepository struct {
	col *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	return &MembershipRepository{col: db.Collection(collectionMemberships)}
}

type membershipDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	GroupID  string             `bson:"group_id"`
	UserID   string             `bson:"user_id"`
	Role     string             `bson:"role"`
	JoinedAt time.Time          `bson:"joined_at"`
}

func (d membershipDoc) toDomain() domain.Membership {
	return domain.Membership{
		GroupID:  d.GroupID,
		UserID:   d.UserID,
		Role:     domain.Role(d.Role),
		JoinedAt: d.JoinedAt.UTC(),
	}
}

func (r *MembershipRepository) Add(ctx context.Context, m domain.Membership) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := membershipDoc{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyMember
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Remove(ctx context.Context, groupID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, groupID, userID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"role": string(role)}},
	)
	if err != nil {
		return fmt.Errorf("update membership role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MembershipRepository) Find(ctx context.Context, groupID, userID string) (*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc membershipDoc
	err := r.col.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m := doc.toDomain()
	return &m, nil
}

func (r *MembershipRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Membership, error) {
	return r.list(ctx, bson.M{"group_id": groupID})
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *MembershipRepository) list(ctx context.Context, filter bson.M) ([]domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	var docs []membershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}
	out := make([]domain.Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MembershipRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	return r.deleteMany(ctx, bson.M{"group_id": groupID})
}

func (r *MembershipRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.deleteMany(ctx, bson.M{"user_id": userID})
}

func (r *MembershipRepository) deleteMany(ctx context.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	return nil
}
