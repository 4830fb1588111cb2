package domain

// DocumentStatus represents the processing lifecycle of a document.
type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether no further status transition may occur.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	switch DocumentStatus(s) {
	case StatusUploading, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// RecommendationType classifies a recommendation item.
type RecommendationType string

const (
	RecommendationMedication RecommendationType = "medication"
	RecommendationProcedure  RecommendationType = "procedure"
	RecommendationFollowup   RecommendationType = "followup"
	RecommendationOther      RecommendationType = "other"
)

// DefaultRecommendationPriority is assigned to every recommendation item.
// Priority is not inferred from text.
const DefaultRecommendationPriority = "medium"

// AllowedContentTypes maps accepted MIME content types for upload.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
}

// Scopes recognized by the auth layer.
const (
	ScopeDocumentsRead  = "documents:read"
	ScopeDocumentsWrite = "documents:write"
)
