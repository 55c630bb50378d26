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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		db:         db,
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.UserID == primitive.NilObjectID || assignment.TrainingID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires userId and trainingId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if assignment.AssignedDate.IsZero() {
		assignment.AssignedDate = now
	}
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.StatusPending
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}

	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByUserID retrieves all assignments for a specific user, oldest first so the
// dashboard order stays stable as new assignments arrive.
func (r *mongoAssignmentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "assignedDate", Value: 1}}))
}

// GetByTrainingID retrieves all assignments for a specific training.
func (r *mongoAssignmentRepository) GetByTrainingID(ctx context.Context, trainingID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"trainingId": trainingID}, options.Find().SetSort(bson.D{{Key: "assignedDate", Value: 1}}))
}

// GetByUserAndTraining retrieves the single assignment for a (user, training) pair.
// Returns repository.ErrNotFound when the pair has no assignment yet.
func (r *mongoAssignmentRepository) GetByUserAndTraining(ctx context.Context, userID, trainingID primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	filter := bson.M{"userId": userID, "trainingId": trainingID}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByTrainingAndUsers retrieves the existing assignments for a training limited
// to the given users, in one query. Used by bulk assignment to partition the
// user list into update and insert branches.
func (r *mongoAssignmentRepository) GetByTrainingAndUsers(ctx context.Context, trainingID primitive.ObjectID, userIDs []primitive.ObjectID) ([]domain.Assignment, error) {
	if len(userIDs) == 0 {
		return []domain.Assignment{}, nil
	}
	filter := bson.M{
		"trainingId": trainingID,
		"userId":     bson.M{"$in": userIDs},
	}
	return r.find(ctx, filter, nil)
}

// GetAll retrieves every assignment document.
func (r *mongoAssignmentRepository) GetAll(ctx context.Context) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{}, nil)
}

// GetAssignedSince retrieves assignments created strictly after the given instant.
func (r *mongoAssignmentRepository) GetAssignedSince(ctx context.Context, since time.Time) ([]domain.Assignment, error) {
	filter := bson.M{"assignedDate": bson.M{"$gt": since}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "assignedDate", Value: 1}}))
}

// Reassign resets an existing assignment to pending. Scheduled date and trainer
// are overwritten only when provided; completedDate is kept so the previous
// completion stays visible in history.
func (r *mongoAssignmentRepository) Reassign(ctx context.Context, id primitive.ObjectID, fields repository.ReassignFields) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": reassignSet(fields)}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetStatus flips the completion state of an assignment. completedDate is only
// written when given; un-completing leaves the old date in place.
func (r *mongoAssignmentRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedDate *time.Time) error {
	updateFields := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if completedDate != nil {
		updateFields["completedDate"] = *completedDate
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single assignment. No cascades.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// BulkAssign applies the given inserts and reassignments as one atomic unit.
// The bulk write runs inside a transaction so a mid-batch failure cannot leave
// a partially assigned group behind.
func (r *mongoAssignmentRepository) BulkAssign(ctx context.Context, inserts []*domain.Assignment, reassigns map[primitive.ObjectID]repository.ReassignFields) error {
	if len(inserts) == 0 && len(reassigns) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(inserts)+len(reassigns))

	for _, a := range inserts {
		a.ID = primitive.NewObjectID()
		if a.AssignedDate.IsZero() {
			a.AssignedDate = now
		}
		a.UpdatedAt = now
		if a.Status == "" {
			a.Status = domain.StatusPending
		}
		models = append(models, mongo.NewInsertOneModel().SetDocument(a))
	}

	for id, fields := range reassigns {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": reassignSet(fields)}))
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.collection.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	return err
}

// reassignSet builds the $set document shared by Reassign and BulkAssign.
func reassignSet(fields repository.ReassignFields) bson.M {
	set := bson.M{
		"status":    domain.StatusPending, // a fresh assignment supersedes a stale completion
		"updatedAt": time.Now().UTC(),
	}
	if fields.ScheduledDate != nil {
		set["scheduledDate"] = *fields.ScheduledDate
	}
	if fields.TrainerName != "" {
		set["trainerName"] = fields.TrainerName
	}
	return set
}

// find is the shared cursor-draining helper for list queries.
func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Assignment, error) {
	var assignments []domain.Assignment

	var cursor *mongo.Cursor
	var err error
	if findOptions != nil {
		cursor, err = r.collection.Find(ctx, filter, findOptions)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The dedup lookup for Assign and the per-pair invariant both hit this.
			// Not unique: dedup is best-effort by design, see the service layer.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "trainingId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Per-training participant listings and cascade deletes
			Keys:    bson.D{{Key: "trainingId", Value: 1}},
			Options: options.Index(),
		},
		{
			// New-assignment digest scans by assignment date
			Keys:    bson.D{{Key: "assignedDate", Value: 1}},
			Options: options.Index(),
		},
		{
			// Status filters on dashboards and the monthly digest
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
