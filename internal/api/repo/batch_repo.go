package repo

import (
	"time"

	"docgen"
	"docgen/internal/api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository struct {
	Db *gorm.DB
}

func NewBatchRepository() *BatchRepository {
	return &BatchRepository{Db: docgen.DB}
}

func (r *BatchRepository) Create(batch *models.Batch) error {
	return r.Db.Create(batch).Error
}

func (r *BatchRepository) AddItem(item *models.BatchItem) error {
	return r.Db.Create(item).Error
}

func (r *BatchRepository) Finish(id uuid.UUID, status models.BatchStatus, failed int, finishedAt time.Time) error {
	return r.Db.Model(&models.Batch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"failed":      failed,
			"finished_at": finishedAt,
		}).Error
}

func (r *BatchRepository) FindByID(id uuid.UUID) (models.Batch, error) {
	var batch models.Batch
	err := r.Db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&batch, "id = ?", id).Error
	return batch, err
}

func (r *BatchRepository) FindRecent(limit int) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.Db.
		Order("created_at DESC").
		Limit(limit).
		Find(&batches).Error
	return batches, err
}
