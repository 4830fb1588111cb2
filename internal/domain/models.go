package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is the unit of work: one uploaded ultrasound report and everything
// derived from it. It is owned by the document repository; the ingestion
// pipeline holds a working copy during processing.
type Document struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	OwnerID       string          `db:"owner_id" json:"owner_id"`
	Status        DocumentStatus  `db:"status" json:"status"`
	ErrorMessage  string          `db:"error_message" json:"error_message,omitempty"`
	OriginalFile  *OriginalFile   `db:"original_file" json:"original_file,omitempty"`
	ExtractedData *ExtractedData  `db:"extracted_data" json:"extracted_data,omitempty"`
	Images        []ImageMetadata `db:"images" json:"images"`
	Confidence    *float64        `db:"confidence_score" json:"confidence_score,omitempty"`
	ProcessingMS  *int64          `db:"processing_time_ms" json:"processing_time_ms,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	ProcessedAt   *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// OriginalFile describes the uploaded artifact. Created once at upload time,
// never mutated.
type OriginalFile struct {
	StoragePath    string `json:"storage_path"`
	Filename       string `json:"filename"`
	SizeBytes      int64  `json:"size_bytes"`
	MimeType       string `json:"mime_type"`
	ChecksumSHA256 string `json:"checksum_sha256,omitempty"`
}

// PatientInfo holds extracted patient (animal) fields. All fields are
// best-effort; an empty string means no pattern matched.
type PatientInfo struct {
	Name        string `json:"name,omitempty"`
	Species     string `json:"species,omitempty"`
	Breed       string `json:"breed,omitempty"`
	Age         string `json:"age,omitempty"`
	Weight      string `json:"weight,omitempty"`
	Sex         string `json:"sex,omitempty"`
	MicrochipID string `json:"microchip_id,omitempty"`
}

// OwnerInfo holds extracted pet-owner contact fields.
type OwnerInfo struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// VeterinarianInfo holds extracted veterinarian fields.
type VeterinarianInfo struct {
	Name           string `json:"name,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
	ClinicName     string `json:"clinic_name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// DiagnosisInfo holds the diagnostic section of the report.
type DiagnosisInfo struct {
	Primary   string   `json:"primary,omitempty"`
	Secondary []string `json:"secondary,omitempty"`
	Findings  []string `json:"findings,omitempty"`
	Severity  string   `json:"severity,omitempty"`
	RawText   string   `json:"raw_text,omitempty"`
}

// Recommendation is one treatment or follow-up item.
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Description string             `json:"description"`
	Priority    string             `json:"priority,omitempty"`
}

// ExtractedData aggregates everything the field extraction engine produced
// for one document. Created once, immutable afterwards.
type ExtractedData struct {
	Patient         PatientInfo      `json:"patient"`
	Owner           OwnerInfo        `json:"owner"`
	Veterinarian    VeterinarianInfo `json:"veterinarian"`
	Diagnosis       DiagnosisInfo    `json:"diagnosis"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ImageMetadata describes one raster image extracted from the PDF.
// StoragePath is empty until the image has been uploaded; SignedURL is
// populated on reads only and never persisted.
type ImageMetadata struct {
	ID          uuid.UUID `json:"id"`
	StoragePath string    `json:"storage_path"`
	PageNumber  int       `json:"page_number"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Format      string    `json:"format"`
	SizeBytes   int       `json:"size_bytes"`
	SignedURL   string    `json:"signed_url,omitempty"`
}
