// Package mongo implements the Record Store on MongoDB, keeping each user's
// log embedded in the user document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

const usersCollection = "users"

type userDocument struct {
	ID        string             `bson:"_id"`
	Username  string             `bson:"username"`
	Exercises []exerciseDocument `bson:"exercises"`
}

type exerciseDocument struct {
	Description string    `bson:"description"`
	Duration    float64   `bson:"duration"`
	Date        time.Time `bson:"date"`
}

func (d userDocument) toDomain() *domain.User {
	user := &domain.User{
		ID:        d.ID,
		Username:  d.Username,
		Exercises: make([]domain.Exercise, 0, len(d.Exercises)),
	}
	for _, e := range d.Exercises {
		user.Exercises = append(user.Exercises, domain.Exercise{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.Date.UTC(),
		})
	}
	return user
}

func fromExercise(e domain.Exercise) exerciseDocument {
	return exerciseDocument{Description: e.Description, Duration: e.Duration, Date: e.Date.UTC()}
}

// Store reads and writes the users collection.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

// Open connects to uri and selects database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, users: client.Database(database).Collection(usersCollection)}, nil
}

// Migrate ensures the unique username index exists.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) Insert(ctx context.Context, user domain.User) error {
	doc := userDocument{ID: user.ID, Username: user.Username, Exercises: make([]exerciseDocument, 0, len(user.Exercises))}
	for _, e := range user.Exercises {
		doc.Exercises = append(doc.Exercises, fromExercise(e))
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: 1}}).
		SetSort(bson.D{{Key: "username", Value: 1}})

	cursor, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]domain.UserSummary, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, domain.UserSummary{ID: doc.ID, Username: doc.Username})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AppendExercise pushes onto the embedded array in a single update, so
// concurrent appends cannot overwrite each other.
func (s *Store) AppendExercise(ctx context.Context, userID string, exercise domain.Exercise) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "exercises", Value: fromExercise(exercise)}}}},
	)
	if err != nil {
		return fmt.Errorf("append exercise: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
