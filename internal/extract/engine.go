package extract

import (
	"regexp"
	"strings"

	"vetscan/internal/domain"
)

// Engine turns raw report text into a typed ExtractedData record by layered
// pattern matching against the pattern library. It is a pure function of its
// input: identical text always yields a structurally identical record, and it
// never fails — worst case every field stays unset and confidence is 0.0.
type Engine struct{}

// NewEngine creates a field extraction engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Extract runs all entity extractors over the text and averages the supplied
// block-level confidences. A nil or empty confidence slice yields 0.0.
func (e *Engine) Extract(text string, confidences []float64) (*domain.ExtractedData, float64) {
	data := &domain.ExtractedData{
		Patient:         e.extractPatient(text),
		Owner:           e.extractOwner(text),
		Veterinarian:    e.extractVeterinarian(text),
		Diagnosis:       e.extractDiagnosis(text),
		Recommendations: e.extractRecommendations(text),
	}
	return data, meanConfidence(confidences)
}

func meanConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0.0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// firstMatch returns the trimmed first capture group of the first pattern
// that matches, or "" when none do.
func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// matchFields evaluates each field's rule independently; a miss on one field
// never blocks the others.
func matchFields(text string, rules []fieldRule) map[string]string {
	out := make(map[string]string, len(rules))
	for _, rule := range rules {
		if v := firstMatch(text, rule.patterns); v != "" {
			out[rule.field] = v
		}
	}
	return out
}

func (e *Engine) extractPatient(text string) domain.PatientInfo {
	m := matchFields(text, patientRules)
	return domain.PatientInfo{
		Name:        m["name"],
		Species:     m["species"],
		Breed:       m["breed"],
		Age:         m["age"],
		Weight:      m["weight"],
		Sex:         m["sex"],
		MicrochipID: m["microchip_id"],
	}
}

func (e *Engine) extractOwner(text string) domain.OwnerInfo {
	m := matchFields(text, ownerRules)
	return domain.OwnerInfo{
		Name:    m["name"],
		Phone:   m["phone"],
		Email:   m["email"],
		Address: m["address"],
	}
}

func (e *Engine) extractVeterinarian(text string) domain.VeterinarianInfo {
	m := matchFields(text, veterinarianRules)
	return domain.VeterinarianInfo{
		Name:           m["name"],
		LicenseNumber:  m["license_number"],
		ClinicName:     m["clinic_name"],
		Specialization: m["specialization"],
	}
}

func (e *Engine) extractDiagnosis(text string) domain.DiagnosisInfo {
	diagnosis := domain.DiagnosisInfo{}

	m := diagnosisSectionRe.FindStringSubmatch(text)
	if m == nil {
		return diagnosis
	}
	section := strings.TrimSpace(m[1])
	diagnosis.RawText = section

	diagnosis.Findings = listItems(section, bulletItemRe)
	if len(diagnosis.Findings) == 0 {
		diagnosis.Findings = listItems(section, numberedItemRe)
	}

	// Text up to the first sentence terminator.
	primary, _, _ := strings.Cut(section, ".")
	diagnosis.Primary = strings.TrimSpace(primary)

	return diagnosis
}

func (e *Engine) extractRecommendations(text string) []domain.Recommendation {
	m := recommendationSectionRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	section := strings.TrimSpace(m[1])
	if section == "" {
		return nil
	}

	items := listItems(section, bulletItemRe)
	if len(items) == 0 {
		items = listItems(section, numberedItemRe)
	}
	if len(items) == 0 {
		// Fall back to raw non-empty lines.
		for _, line := range strings.Split(section, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				items = append(items, line)
			}
		}
	}

	recs := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.Recommendation{
			Type:        classifyRecommendation(item),
			Description: item,
			Priority:    domain.DefaultRecommendationPriority,
		})
	}
	return recs
}

// listItems returns the trimmed captures of every match of re, one per line
// item, dropping empties.
func listItems(section string, re *regexp.Regexp) []string {
	var items []string
	for _, m := range re.FindAllStringSubmatch(section, -1) {
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// classifyRecommendation maps an item to exactly one type by testing keyword
// vocabularies in fixed priority order; no hit yields RecommendationOther.
func classifyRecommendation(item string) domain.RecommendationType {
	lower := strings.ToLower(item)
	if containsAny(lower, medicationKeywords) {
		return domain.RecommendationMedication
	}
	if containsAny(lower, procedureKeywords) {
		return domain.RecommendationProcedure
	}
	if containsAny(lower, followupKeywords) {
		return domain.RecommendationFollowup
	}
	return domain.RecommendationOther
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
