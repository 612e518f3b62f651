package provider

import (
	"time"

	"gorm.io/gorm"
)

// KYCDocument represents one uploaded verification document and the data
// extracted from it.
type KYCDocument struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID string `gorm:"type:varchar(24);uniqueIndex;not null" json:"request_id"`

	ProviderID uint     `gorm:"not null;index" json:"provider_id"`
	Provider   Provider `gorm:"foreignKey:ProviderID" json:"provider"`

	OriginalFileName string `gorm:"type:varchar(255);not null" json:"original_file_name"`
	SavedFileName    string `gorm:"type:varchar(255)" json:"saved_file_name"`
	FileHash         string `gorm:"type:varchar(128);index" json:"file_hash"` // SHA256 hash
	FilePath         string `gorm:"type:varchar(500)" json:"file_path"`
	FileSize         int64  `gorm:"not null" json:"file_size"`
	MimeType         string `gorm:"type:varchar(100);not null" json:"mime_type"`

	Status           string `gorm:"type:varchar(50);not null;default:'processing';index" json:"status"` // processing, success, failed
	ProcessingTimeMs int64  `gorm:"default:0" json:"processing_time_ms"`

	// Extracted fields
	DocumentType       string `gorm:"type:varchar(100);default:''" json:"document_type"`
	LegalName          string `gorm:"type:varchar(255);default:''" json:"legal_name"`
	RegistrationNumber string `gorm:"type:varchar(100);index;default:''" json:"registration_number"`
	IssuedBy           string `gorm:"type:varchar(255);default:''" json:"issued_by"`
	ExpiryDate         string `gorm:"type:varchar(20);default:''" json:"expiry_date"`
	Confidence         string `gorm:"type:varchar(20);default:''" json:"confidence"` // high, medium, low

	// Error information
	ErrorMessage string `gorm:"type:text;default:''" json:"error_message"`

	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for KYCDocument
func (KYCDocument) TableName() string {
	return "kyc_documents"
}

// BeforeCreate hook to set default values
func (d *KYCDocument) BeforeCreate(tx *gorm.DB) error {
	if d.Status == "" {
		d.Status = "processing"
	}
	return nil
}

// IsProcessing checks if the document is still processing
func (d *KYCDocument) IsProcessing() bool {
	return d.Status == "processing"
}

// MarkAsSuccess persists the extracted fields on the document.
func (d *KYCDocument) MarkAsSuccess(db *gorm.DB, extracted *KYCExtraction, processingTime int64) error {
	d.Status = "success"
	d.DocumentType = extracted.DocumentType
	d.LegalName = extracted.LegalName
	d.RegistrationNumber = extracted.RegistrationNumber
	d.IssuedBy = extracted.IssuedBy
	d.ExpiryDate = extracted.ExpiryDate
	d.Confidence = extracted.Confidence
	d.ProcessingTimeMs = processingTime

	return db.Save(d).Error
}

// MarkAsFailed records the extraction failure.
func (d *KYCDocument) MarkAsFailed(db *gorm.DB, errorMsg string, processingTime int64) error {
	d.Status = "failed"
	d.ErrorMessage = errorMsg
	d.ProcessingTimeMs = processingTime

	return db.Save(d).Error
}

// KYCExtraction is the structured data pulled out of a document image.
type KYCExtraction struct {
	DocumentType       string `json:"document_type"`
	LegalName          string `json:"legal_name"`
	RegistrationNumber string `json:"registration_number"`
	IssuedBy           string `json:"issued_by"`
	ExpiryDate         string `json:"expiry_date"`
	Confidence         string `json:"confidence"`
}
