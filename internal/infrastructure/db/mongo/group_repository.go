package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// GroupRepository stores group headers only. The roster lives in the
// memberships collection and invites in their own ledger.
type GroupRepository struct {
	col *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{col: db.Collection(collectionGroups)}
}

type groupDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatorID string             `bson:"creator_id"`
	Code      string             `bson:"code"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d groupDoc) toDomain() *domain.Group {
	return &domain.Group{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		CreatorID: d.CreatorID,
		Code:      d.Code,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (r *GroupRepository) Create(ctx context.Context, g *domain.Group) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := groupDoc{
		ID:        primitive.NewObjectID(),
		Name:      g.Name,
		CreatorID: g.CreatorID,
		Code:      domain.NormalizeCode(g.Code),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("insert group: %w", err)
	}
	g.ID = doc.ID.Hex()
	g.Code = doc.Code
	return nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	oid, err := objectID(id, domain.ErrGroupNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByCode expects codes stored uppercase, so normalizing the input is
// enough for a case-insensitive match.
func (r *GroupRepository) FindByCode(ctx context.Context, code string) (*domain.Group, error) {
	return r.findOne(ctx, bson.M{"code": domain.NormalizeCode(code)})
}

func (r *GroupRepository) findOne(ctx context.Context, filter bson.M) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc groupDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Group, error) {
	out := make(map[string]*domain.Group, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	for _, d := range docs {
		g := d.toDomain()
		out[g.ID] = g
	}
	return out, nil
}

func (r *GroupRepository) Touch(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id, domain.ErrGroupNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"updated_at": at}})
	if err != nil {
		return fmt.Errorf("touch group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrGroupNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}
