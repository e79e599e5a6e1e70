package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTaskRepository stores tasks as documents in a single collection.
type MongoTaskRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoTaskRepository(coll *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{
		coll: coll,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// taskDocument is the stored shape of a task.
type taskDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Message      string             `bson:"message"`
	Completed    models.TaskStatus  `bson:"completed"`
	Priority     models.Priority    `bson:"priority"`
	Order        int                `bson:"order"`
	ReminderTime *time.Time         `bson:"reminderTime,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:           d.ID.Hex(),
		Message:      d.Message,
		Completed:    d.Completed,
		Priority:     d.Priority,
		Order:        d.Order,
		ReminderTime: d.ReminderTime,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ValidateID accepts 24 character hex object ids.
func (r *MongoTaskRepository) ValidateID(id string) error {
	_, err := r.objectID(id)
	return err
}

func (r *MongoTaskRepository) objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, invalidIDError(id)
	}
	return oid, nil
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := r.now()
	doc := taskDocument{
		ID:           primitive.NewObjectID(),
		Message:      task.Message,
		Completed:    task.Completed,
		Priority:     task.Priority,
		Order:        task.Order,
		ReminderTime: task.ReminderTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return apperrors.Database(err, "failed to save task")
	}
	*task = doc.toModel()
	return nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := r.objectID(id)
	if err != nil {
		return nil, err
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err, id)
	}
	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) UpdateByID(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	return r.findAndUpdate(ctx, id, updateDocument(patch, r.now()))
}

func (r *MongoTaskRepository) SetCompleted(ctx context.Context, id string) (*models.Task, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{"completed": models.TaskStatusDone, "updatedAt": r.now()},
	})
}

func (r *MongoTaskRepository) DeleteByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := r.objectID(id)
	if err != nil {
		return nil, err
	}

	var doc taskDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err, id)
	}
	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) ListNotDone(ctx context.Context) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	tasks, err := r.find(ctx, bson.M{"completed": models.TaskStatusNotDone}, opts)
	if err != nil {
		return nil, apperrors.Database(err, "failed to list to-do tasks")
	}
	return tasks, nil
}

func (r *MongoTaskRepository) ListDone(ctx context.Context) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	tasks, err := r.find(ctx, bson.M{"completed": models.TaskStatusDone}, opts)
	if err != nil {
		return nil, apperrors.Database(err, "failed to list completed tasks")
	}
	return tasks, nil
}

// BulkSetOrder sends one unordered bulk write; every valid pair is applied
// even when others match nothing. The batch is not a transaction.
func (r *MongoTaskRepository) BulkSetOrder(ctx context.Context, pairs []OrderPair) (BulkResult, error) {
	if len(pairs) == 0 {
		return BulkResult{}, nil
	}

	now := r.now()
	writes := make([]mongo.WriteModel, 0, len(pairs))
	for _, p := range pairs {
		oid, err := r.objectID(p.ID)
		if err != nil {
			return BulkResult{}, err
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid, "completed": models.TaskStatusNotDone}).
			SetUpdate(bson.M{"$set": bson.M{"order": p.Order, "updatedAt": now}}))
	}

	res, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return BulkResult{}, apperrors.Database(err, "failed to reorder tasks")
	}
	return BulkResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (r *MongoTaskRepository) MaxOrderAmongNotDone(ctx context.Context) (int, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})

	var doc taskDocument
	err := r.coll.FindOne(ctx, bson.M{"completed": models.TaskStatusNotDone}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.Database(err, "failed to read max order")
	}
	return doc.Order, true, nil
}

func (r *MongoTaskRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*models.Task, error) {
	oid, err := r.objectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translateMongoError(err, id)
	}
	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toModel())
	}
	return tasks, nil
}

// updateDocument builds the $set/$unset update for a patch. A cleared
// reminder becomes an $unset so the field is removed from the document.
func updateDocument(patch TaskPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if patch.Message != nil {
		set["message"] = *patch.Message
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Order != nil {
		set["order"] = *patch.Order
	}

	update := bson.M{"$set": set}
	switch patch.Reminder.Op {
	case models.ReminderSet:
		set["reminderTime"] = patch.Reminder.Value
	case models.ReminderClear:
		update["$unset"] = bson.M{"reminderTime": ""}
	}
	return update
}

func translateMongoError(err error, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFoundError(id)
	}
	return apperrors.Database(err, "task %s", id)
}
