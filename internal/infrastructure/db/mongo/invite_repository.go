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

// InviteRepository is the invite ledger. Status changes are conditional
// updates on the current status, so two racing consumers cannot both win.
type InviteRepository struct {
	col *mongo.Collection
}

func NewInviteRepository(db *mongo.Database) *InviteRepository {
	return &InviteRepository{col: db.Collection(collectionInvites)}
}

type inviteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	GroupID   string             `bson:"group_id"`
	Email     string             `bson:"email"`
	Token     string             `bson:"token"`
	Role      string             `bson:"role"`
	Status    string             `bson:"status"`
	InvitedBy string             `bson:"invited_by"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d inviteDoc) toDomain() *domain.Invite {
	return &domain.Invite{
		ID:        d.ID.Hex(),
		GroupID:   d.GroupID,
		Email:     d.Email,
		Token:     d.Token,
		Role:      domain.Role(d.Role),
		Status:    domain.InviteStatus(d.Status),
		InvitedBy: d.InvitedBy,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
}

// UpsertPending writes the one pending invite for (group, email). A racing
// insert that loses on the partial unique index retries as an update.
func (r *InviteRepository) UpsertPending(ctx context.Context, inv *domain.Invite) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	email := domain.NormalizeEmail(inv.Email)
	filter := bson.M{
		"group_id": inv.GroupID,
		"email":    email,
		"status":   string(domain.InvitePending),
	}
	update := bson.M{
		"$set": bson.M{
			"token":      inv.Token,
			"role":       string(inv.Role),
			"invited_by": inv.InvitedBy,
			"created_at": inv.CreatedAt,
			"expires_at": inv.ExpiresAt,
			"updated_at": inv.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc inviteDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert invite: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *InviteRepository) FindByID(ctx context.Context, id string) (*domain.Invite, error) {
	oid, err := objectID(id, domain.ErrInviteNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *InviteRepository) FindByToken(ctx context.Context, token string) (*domain.Invite, error) {
	if token == "" {
		return nil, domain.ErrInviteNotFound
	}
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *InviteRepository) findOne(ctx context.Context, filter bson.M) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc inviteDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, fmt.Errorf("find invite: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *InviteRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	var docs []inviteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode invites: %w", err)
	}
	out := make([]*domain.Invite, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *InviteRepository) Transition(ctx context.Context, id string, from, to domain.InviteStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrInviteProcessed.WithMessage("invite cannot move from %s to %s", from, to)
	}
	oid, err := objectID(id, domain.ErrInviteNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("transition invite: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInviteProcessed
	}
	return nil
}

func (r *InviteRepository) ExpireStale(ctx context.Context, groupID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":     string(domain.InvitePending),
		"expires_at": bson.M{"$lt": now},
	}
	if groupID != "" {
		filter["group_id"] = groupID
	}
	res, err := r.col.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": string(domain.InviteExpired), "updated_at": now},
	})
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *InviteRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"group_id": groupID}); err != nil {
		return fmt.Errorf("delete invites: %w", err)
	}
	return nil
}
