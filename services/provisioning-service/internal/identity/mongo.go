package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Rareminds-eym/skillpassport-sub044/shared/security"
)

const principalsCollection = "principals"

// principalStore is the subset of *mongo.Collection the directory uses.
type principalStore interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
}

type principalDocument struct {
	ID             string         `bson:"_id"`
	Email          string         `bson:"email"`
	PasswordHash   string         `bson:"password_hash"`
	EmailConfirmed bool           `bson:"email_confirmed"`
	Metadata       map[string]any `bson:"metadata,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

// MongoService is a self-hosted principal directory stored in MongoDB.
type MongoService struct {
	principals principalStore
	logger     *zerolog.Logger
}

var _ Service = (*MongoService)(nil)

// NewMongoService creates the principal directory and ensures its indexes.
func NewMongoService(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (*MongoService, error) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	collection := db.Collection(principalsCollection)
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, err
	}

	return &MongoService{principals: collection, logger: logger}, nil
}

func (s *MongoService) CreatePrincipal(ctx context.Context, params CreatePrincipalParams) (*Principal, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := principalDocument{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(params.Email),
		PasswordHash:   passwordHash,
		EmailConfirmed: params.Confirmed,
		Metadata:       params.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.principals.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrPrincipalExists
		}
		return nil, err
	}

	return doc.principal(), nil
}

func (s *MongoService) DeletePrincipal(ctx context.Context, id string) error {
	result, err := s.principals.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func (s *MongoService) ListPrincipals(ctx context.Context) ([]*Principal, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cursor, err := s.principals.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var principals []*Principal
	for cursor.Next(ctx) {
		var doc principalDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		principals = append(principals, doc.principal())
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return principals, nil
}

func (s *MongoService) UpdatePrincipalPassword(ctx context.Context, id, newPassword string) error {
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	result, err := s.principals.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func (d principalDocument) principal() *Principal {
	return &Principal{
		ID:             d.ID,
		Email:          d.Email,
		EmailConfirmed: d.EmailConfirmed,
		Metadata:       d.Metadata,
		CreatedAt:      d.CreatedAt,
	}
}
