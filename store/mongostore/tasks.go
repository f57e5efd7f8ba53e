package mongostore

import (
	"context"
	"fmt"
	"time"

	"taskmanager/models"
	"taskmanager/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type checklistDocument struct {
	Text      string `bson:"text"`
	Completed bool   `bson:"completed"`
}

type taskDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Title         string               `bson:"title"`
	Description   string               `bson:"description"`
	Priority      string               `bson:"priority"`
	Status        string               `bson:"status"`
	DueDate       time.Time            `bson:"dueDate"`
	AssignedTo    []primitive.ObjectID `bson:"assignedTo"`
	CreatedBy     primitive.ObjectID   `bson:"createdBy"`
	Attachments   []string             `bson:"attachments"`
	TodoChecklist []checklistDocument  `bson:"todoChecklist"`
	Progress      int                  `bson:"progress"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", id, err)
		}
		out = append(out, oid)
	}
	return out, nil
}

func toTaskDocument(t *models.Task) (taskDocument, error) {
	doc := taskDocument{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		Attachments: t.Attachments,
		Progress:    t.Progress,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if doc.Attachments == nil {
		doc.Attachments = []string{}
	}
	if t.ID != "" {
		oid, err := primitive.ObjectIDFromHex(t.ID)
		if err != nil {
			return doc, store.ErrNotFound
		}
		doc.ID = oid
	}

	assignees, err := objectIDs(t.AssignedTo)
	if err != nil {
		return doc, err
	}
	doc.AssignedTo = assignees

	if t.CreatedBy != "" {
		creator, err := primitive.ObjectIDFromHex(t.CreatedBy)
		if err != nil {
			return doc, fmt.Errorf("invalid creator id %q: %w", t.CreatedBy, err)
		}
		doc.CreatedBy = creator
	}

	doc.TodoChecklist = make([]checklistDocument, len(t.TodoChecklist))
	for i, item := range t.TodoChecklist {
		doc.TodoChecklist[i] = checklistDocument{Text: item.Text, Completed: item.Completed}
	}
	return doc, nil
}

func (d taskDocument) toModel() models.Task {
	t := models.Task{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Priority:      models.Priority(d.Priority),
		Status:        models.TaskStatus(d.Status),
		DueDate:       d.DueDate,
		Progress:      d.Progress,
		CreatedBy:     d.CreatedBy.Hex(),
		Attachments:   d.Attachments,
		AssignedTo:    make([]string, len(d.AssignedTo)),
		TodoChecklist: make([]models.ChecklistItem, len(d.TodoChecklist)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for i, oid := range d.AssignedTo {
		t.AssignedTo[i] = oid.Hex()
	}
	for i, item := range d.TodoChecklist {
		t.TodoChecklist[i] = models.ChecklistItem{Text: item.Text, Completed: item.Completed}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	return t
}

// taskQuery translates a TaskFilter into a bson filter. ok is false when the
// filter can match nothing (an assignee id that is not an ObjectID).
func taskQuery(f store.TaskFilter) (query bson.M, ok bool) {
	query = bson.M{}
	if f.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(f.AssignedTo)
		if err != nil {
			return nil, false
		}
		query["assignedTo"] = oid
	}

	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = string(f.Status)
	}
	if f.ExcludeStatus != "" {
		status["$ne"] = string(f.ExcludeStatus)
	}
	if len(status) > 0 {
		query["status"] = status
	}

	due := bson.M{}
	if f.DueAfter != nil {
		due["$gte"] = *f.DueAfter
	}
	if f.DueBefore != nil {
		due["$lt"] = *f.DueBefore
	}
	if len(due) > 0 {
		query["dueDate"] = due
	}
	return query, true
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	doc, err := toTaskDocument(task)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now()
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = doc.ID.Hex()
	task.CreatedAt = doc.CreatedAt
	task.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc taskDocument
	if err := s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	task := doc.toModel()
	return &task, nil
}

func (s *Store) ReplaceTask(ctx context.Context, task *models.Task) error {
	doc, err := toTaskDocument(task)
	if err != nil {
		return err
	}

	result, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	result, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindTasks(ctx context.Context, filter store.TaskFilter, opts store.FindOptions) ([]models.Task, error) {
	query, ok := taskQuery(filter)
	if !ok {
		return nil, nil
	}

	findOpts := options.Find()
	if opts.NewestFirst {
		// ObjectIDs grow with insertion, so equal timestamps keep insertion order
		findOpts.SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.tasks.Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tasks, nil
}

func (s *Store) CountTasks(ctx context.Context, filter store.TaskFilter) (int64, error) {
	query, ok := taskQuery(filter)
	if !ok {
		return 0, nil
	}
	n, err := s.tasks.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func (s *Store) CountTasksByStatus(ctx context.Context, filter store.TaskFilter) (map[models.TaskStatus]int64, error) {
	raw, err := s.groupCount(ctx, filter, "$status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.TaskStatus]int64, len(raw))
	for k, v := range raw {
		out[models.TaskStatus(k)] = v
	}
	return out, nil
}

func (s *Store) CountTasksByPriority(ctx context.Context, filter store.TaskFilter) (map[models.Priority]int64, error) {
	raw, err := s.groupCount(ctx, filter, "$priority")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Priority]int64, len(raw))
	for k, v := range raw {
		out[models.Priority(k)] = v
	}
	return out, nil
}

func (s *Store) groupCount(ctx context.Context, filter store.TaskFilter, field string) (map[string]int64, error) {
	query, ok := taskQuery(filter)
	if !ok {
		return map[string]int64{}, nil
	}

	pipeline := []bson.M{
		{"$match": query},
		{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
	}
	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}
