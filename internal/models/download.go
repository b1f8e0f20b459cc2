package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DownloadStatus represents the lifecycle state of a download request
type DownloadStatus string

const (
	DownloadPending    DownloadStatus = "PENDING"
	DownloadProcessing DownloadStatus = "PROCESSING"
	DownloadCompleted  DownloadStatus = "COMPLETED"
	DownloadFailed     DownloadStatus = "FAILED"
)

// Download represents a video download request. The system never stores
// media: FilePath holds the direct URL returned by the resolver.
type Download struct {
	ID              string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID          string         `gorm:"column:user_id;size:36;not null;index" json:"userId"`
	VideoURL        string         `gorm:"column:video_url;size:2048;not null" json:"videoUrl"`
	VideoTitle      string         `gorm:"column:video_title;size:255" json:"videoTitle"`
	FilePath        *string        `gorm:"column:file_path;size:2048" json:"filePath"`
	FileSize        *int64         `gorm:"column:file_size" json:"fileSize"`
	VideoResolution string         `gorm:"column:video_resolution;size:20" json:"videoResolution"`
	Status          DownloadStatus `gorm:"column:status;size:20;default:PENDING;index" json:"status"`
	ErrorMessage    string         `gorm:"column:error_message;size:500" json:"errorMessage"`
	DownloadedAt    *time.Time     `gorm:"column:downloaded_at" json:"downloadedAt"`
	CreatedAt       time.Time      `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (d *Download) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (Download) TableName() string {
	return "downloads"
}
