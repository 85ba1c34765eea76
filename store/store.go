// Package store persists authored workflow definitions. Conversations and
// execution state are never stored; a run lives and dies in memory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cozelabs/agentgraph/graph"
)

// ErrNotFound is returned when a workflow id does not exist.
var ErrNotFound = errors.New("workflow not found")

// Workflow is one saved workflow definition row. The definition JSON is
// immutable per version; updating a workflow replaces the JSON wholesale.
type Workflow struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	Definition  []byte    `gorm:"type:blob;not null" json:"-"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store provides CRUD access to saved workflows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (and migrates) a SQLite-backed store at dsn.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow store: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing gorm connection and runs migrations.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Workflow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate workflow store: %w", err)
	}
	return &Store{db: db, logger: logger.With(zap.String("component", "store"))}, nil
}

// Save validates and persists a new workflow, returning its record.
func (s *Store) Save(ctx context.Context, def *graph.Definition) (*Workflow, error) {
	if _, err := graph.Compile(def); err != nil {
		return nil, err
	}
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow definition: %w", err)
	}

	record := &Workflow{
		ID:          uuid.NewString(),
		Name:        def.Name,
		Description: def.Description,
		Definition:  data,
		Active:      true,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}
	s.logger.Info("workflow saved", zap.String("workflow_id", record.ID), zap.String("name", record.Name))
	return record, nil
}

// Update replaces the definition of an existing workflow.
func (s *Store) Update(ctx context.Context, id string, def *graph.Definition) error {
	if _, err := graph.Compile(def); err != nil {
		return err
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode workflow definition: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&Workflow{}).Where("id = ?", id).Updates(map[string]any{
		"name":        def.Name,
		"description": def.Description,
		"definition":  data,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update workflow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a workflow record by id.
func (s *Store) Get(ctx context.Context, id string) (*Workflow, error) {
	var record Workflow
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	return &record, nil
}

// Graph decodes the record's stored graph definition.
func (w *Workflow) Graph() (*graph.Definition, error) {
	return graph.Import(w.Definition)
}

// List returns all saved workflows, newest first.
func (s *Store) List(ctx context.Context) ([]Workflow, error) {
	var records []Workflow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return records, nil
}

// SetActive toggles whether a workflow may be run.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	result := s.db.WithContext(ctx).Model(&Workflow{}).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update workflow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workflow.
func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Workflow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete workflow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
