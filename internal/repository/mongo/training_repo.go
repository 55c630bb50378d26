package mongo

import (
	"context"
	"errors"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainingCollectionName = "trainings"

// mongoTrainingRepository implements repository.TrainingRepository
type mongoTrainingRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoTrainingRepository creates a new Training repository backed by MongoDB.
func NewMongoTrainingRepository(db *mongo.Database) repository.TrainingRepository {
	return &mongoTrainingRepository{
		db:         db,
		collection: db.Collection(trainingCollectionName),
	}
}

// Create inserts a new training template into the database.
func (r *mongoTrainingRepository) Create(ctx context.Context, training *domain.Training) (primitive.ObjectID, error) {
	if training.Title == "" {
		return primitive.NilObjectID, errors.New("training title is required")
	}

	training.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	training.CreatedAt = now
	training.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, training)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted training ID")
	}

	return insertedID, nil
}

// GetByID retrieves a training by its ID.
func (r *mongoTrainingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Training, error) {
	var training domain.Training
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&training)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &training, nil
}

// GetByIDs retrieves all trainings whose ID is in the given list, in one query.
// IDs with no matching document are simply absent from the result.
func (r *mongoTrainingRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Training, error) {
	if len(ids) == 0 {
		return []domain.Training{}, nil
	}

	var trainings []domain.Training
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &trainings); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return trainings, nil
}

// GetAll retrieves every training template, sorted by title.
func (r *mongoTrainingRepository) GetAll(ctx context.Context) ([]domain.Training, error) {
	var trainings []domain.Training
	findOptions := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &trainings); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return trainings, nil
}

// Update modifies an existing training template.
func (r *mongoTrainingRepository) Update(ctx context.Context, training *domain.Training) error {
	if training.ID == primitive.NilObjectID {
		return errors.New("training ID is required for update")
	}

	filter := bson.M{"_id": training.ID}
	update := bson.M{
		"$set": bson.M{
			"title":         training.Title,
			"description":   training.Description,
			"category":      training.Category,
			"urgency":       training.Urgency,
			"duration":      training.Duration,
			"trainerName":   training.TrainerName,
			"scheduledDate": training.ScheduledDate,
			"validityDays":  training.ValidityDays,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the training and all assignments referencing it in one
// transaction, mirroring the user cascade.
func (r *mongoTrainingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	assignments := r.db.Collection(assignmentCollectionName)

	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if result.DeletedCount == 0 {
			return nil, repository.ErrNotFound
		}
		if _, err := assignments.DeleteMany(sc, bson.M{"trainingId": id}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// EnsureTrainingIndexes creates necessary indexes for the trainings collection.
func EnsureTrainingIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Listing sorts by title
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index(),
		},
		{
			// Digest grouping filters by responsible trainer
			Keys:    bson.D{{Key: "trainerName", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
