package edit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Edit is the persisted record of a completed edit.
type Edit struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	CommandText      string    `json:"command_text" gorm:"not null"`
	EditedImageURL   string    `json:"edited_image_url" gorm:"not null"`
	ModelUsed        string    `json:"model_used" gorm:"not null"`
	ProcessingTimeMS int64     `json:"processing_time_ms" gorm:"column:processing_time_ms"`
	CostUSD          float64   `json:"cost_usd" gorm:"column:cost_usd"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the database table name.
func (Edit) TableName() string {
	return "edits"
}

// ToResponse converts an edit record to its history representation.
func (e *Edit) ToResponse() *EditRecordResponse {
	return &EditRecordResponse{
		ID:               e.ID,
		CommandText:      e.CommandText,
		EditedImageURL:   e.EditedImageURL,
		ModelUsed:        e.ModelUsed,
		ProcessingTimeMS: e.ProcessingTimeMS,
		CreatedAt:        e.CreatedAt,
	}
}

// AuditLog records completed edits. Recording is best effort: the
// pipeline never fails an edit the user already paid for because the
// history row could not be written.
type AuditLog interface {
	Record(ctx context.Context, edit *Edit)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Edit, error)
}

// Repository persists edit records.
type Repository interface {
	Create(ctx context.Context, edit *Edit) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Edit, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new edit repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, edit *Edit) error {
	if err := r.db.WithContext(ctx).Create(edit).Error; err != nil {
		return fmt.Errorf("create edit record: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Edit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var edits []*Edit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&edits).Error
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	return edits, nil
}

// Recorder persists edit records asynchronously so the response is
// never held up by history writes.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
	buffer chan *Edit
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewRecorder creates a new async edit recorder.
func NewRecorder(repo Repository, logger *zap.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	r := &Recorder{
		repo:   repo,
		logger: logger,
		buffer: make(chan *Edit, bufferSize),
		done:   make(chan struct{}),
	}
	r.start()
	return r
}

// Record queues an edit record for persistence.
func (r *Recorder) Record(_ context.Context, edit *Edit) {
	select {
	case r.buffer <- edit:
	default:
		// Buffer full, log and drop
		r.logger.Warn("edit record buffer full, dropping record",
			zap.String("user_id", edit.UserID.String()),
		)
	}
}

// ListByUser reads history directly from the repository.
func (r *Recorder) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Edit, error) {
	return r.repo.ListByUser(ctx, userID, limit)
}

// Close stops the recorder and flushes remaining records.
func (r *Recorder) Close() {
	close(r.done)
	r.wg.Wait()
}

func (r *Recorder) start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case edit := <-r.buffer:
				r.persist(edit)
			case <-r.done:
				// Flush remaining records
				for {
					select {
					case edit := <-r.buffer:
						r.persist(edit)
					default:
						return
					}
				}
			}
		}
	}()
}

func (r *Recorder) persist(edit *Edit) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.repo.Create(ctx, edit); err != nil {
		r.logger.Error("failed to persist edit record",
			zap.Error(err),
			zap.String("user_id", edit.UserID.String()),
		)
	}
}
