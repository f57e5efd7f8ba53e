// Package pgstore persists users and tasks in PostgreSQL through gorm.
// Checklists, assignees and attachments are kept as jsonb columns so a task
// stays a single row, mirroring the document layout of mongostore.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/store"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Options struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
}

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

type userRow struct {
	ID              string    `gorm:"primaryKey;type:uuid"`
	Name            string    `gorm:"not null"`
	Email           string    `gorm:"uniqueIndex;not null"`
	Password        string    `gorm:"not null"`
	Role            string    `gorm:"not null;default:'member';index"`
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userRow) TableName() string { return "users" }

type taskRow struct {
	ID            string                 `gorm:"primaryKey;type:uuid"`
	Title         string                 `gorm:"not null"`
	Description   string                 `gorm:"not null"`
	Priority      string                 `gorm:"not null;default:'Medium'"`
	Status        string                 `gorm:"not null;default:'Pending';index"`
	DueDate       time.Time              `gorm:"not null;index"`
	AssignedTo    []string               `gorm:"type:jsonb;serializer:json"`
	CreatedBy     string                 `gorm:"type:uuid"`
	Attachments   []string               `gorm:"type:jsonb;serializer:json"`
	TodoChecklist []models.ChecklistItem `gorm:"type:jsonb;serializer:json"`
	Progress      int                    `gorm:"not null;default:0"`
	CreatedAt     time.Time              `gorm:"index"`
	UpdatedAt     time.Time
	// Seq breaks creation-time ties in insertion order.
	Seq int64 `gorm:"autoIncrement;not null"`
}

func (taskRow) TableName() string { return "tasks" }

// Connect opens the database, tunes the pool, pings and migrates.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&userRow{}, &taskRow{}); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	// pgx reports unique violations with SQLSTATE 23505
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "23505")
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func toUserRow(u *models.User) userRow {
	return userRow{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Role:            string(u.Role),
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		PasswordHash:    r.Password,
		Role:            models.RoleOrMember(r.Role),
		ProfileImageURL: r.ProfileImageURL,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	row := toUserRow(user)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	user.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	user := row.toModel()
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	user := row.toModel()
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if !validID(user.ID) {
		return store.ErrNotFound
	}
	row := toUserRow(user)
	result := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", row.ID).
		Select("*").Omit("id", "created_at").Updates(&row)
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("created_at")
	if role != "" {
		q = q.Where("role = ?", string(role))
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return userModels(rows), nil
}

func (s *Store) FindUsers(ctx context.Context, ids []string) ([]models.User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	var rows []userRow
	if err := s.db.WithContext(ctx).Where("id IN ?", valid).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return userModels(rows), nil
}

func userModels(rows []userRow) []models.User {
	users := make([]models.User, len(rows))
	for i, r := range rows {
		users[i] = r.toModel()
	}
	return users
}

func toTaskRow(t *models.Task) taskRow {
	return taskRow{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		DueDate:       t.DueDate,
		AssignedTo:    t.AssignedTo,
		CreatedBy:     t.CreatedBy,
		Attachments:   t.Attachments,
		TodoChecklist: t.TodoChecklist,
		Progress:      t.Progress,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (r taskRow) toModel() models.Task {
	t := models.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Priority:      models.Priority(r.Priority),
		Status:        models.TaskStatus(r.Status),
		DueDate:       r.DueDate,
		AssignedTo:    r.AssignedTo,
		CreatedBy:     r.CreatedBy,
		Attachments:   r.Attachments,
		TodoChecklist: r.TodoChecklist,
		Progress:      r.Progress,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if t.AssignedTo == nil {
		t.AssignedTo = []string{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if t.TodoChecklist == nil {
		t.TodoChecklist = []models.ChecklistItem{}
	}
	return t
}

// scope applies a TaskFilter. ok is false when nothing can match.
func scope(q *gorm.DB, f store.TaskFilter) (*gorm.DB, bool) {
	if f.AssignedTo != "" {
		if !validID(f.AssignedTo) {
			return q, false
		}
		needle, _ := json.Marshal([]string{f.AssignedTo})
		q = q.Where("assigned_to @> ?::jsonb", string(needle))
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ExcludeStatus != "" {
		q = q.Where("status <> ?", string(f.ExcludeStatus))
	}
	if f.DueAfter != nil {
		q = q.Where("due_date >= ?", *f.DueAfter)
	}
	if f.DueBefore != nil {
		q = q.Where("due_date < ?", *f.DueBefore)
	}
	return q, true
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	row := toTaskRow(task)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Omit("seq").Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = row.ID
	task.CreatedAt = row.CreatedAt
	task.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	var row taskRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	task := row.toModel()
	return &task, nil
}

func (s *Store) ReplaceTask(ctx context.Context, task *models.Task) error {
	if !validID(task.ID) {
		return store.ErrNotFound
	}
	row := toTaskRow(task)
	result := s.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", row.ID).
		Select("*").Omit("id", "seq", "created_at").Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	result := s.db.WithContext(ctx).Delete(&taskRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindTasks(ctx context.Context, filter store.TaskFilter, opts store.FindOptions) ([]models.Task, error) {
	q, ok := scope(s.db.WithContext(ctx).Model(&taskRow{}), filter)
	if !ok {
		return nil, nil
	}
	if opts.NewestFirst {
		q = q.Order("created_at DESC").Order("seq ASC")
	} else {
		q = q.Order("seq ASC")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var rows []taskRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	tasks := make([]models.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.toModel()
	}
	return tasks, nil
}

func (s *Store) CountTasks(ctx context.Context, filter store.TaskFilter) (int64, error) {
	q, ok := scope(s.db.WithContext(ctx).Model(&taskRow{}), filter)
	if !ok {
		return 0, nil
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

type groupRow struct {
	GroupKey string
	Count    int64
}

func (s *Store) groupCount(ctx context.Context, filter store.TaskFilter, column string) ([]groupRow, error) {
	q, ok := scope(s.db.WithContext(ctx).Model(&taskRow{}), filter)
	if !ok {
		return nil, nil
	}
	var rows []groupRow
	err := q.Select(column + " AS group_key, COUNT(*) AS count").Group(column).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group tasks by %s: %w", column, err)
	}
	return rows, nil
}

func (s *Store) CountTasksByStatus(ctx context.Context, filter store.TaskFilter) (map[models.TaskStatus]int64, error) {
	rows, err := s.groupCount(ctx, filter, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.TaskStatus]int64, len(rows))
	for _, r := range rows {
		out[models.TaskStatus(r.GroupKey)] = r.Count
	}
	return out, nil
}

func (s *Store) CountTasksByPriority(ctx context.Context, filter store.TaskFilter) (map[models.Priority]int64, error) {
	rows, err := s.groupCount(ctx, filter, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Priority]int64, len(rows))
	for _, r := range rows {
		out[models.Priority(r.GroupKey)] = r.Count
	}
	return out, nil
}
