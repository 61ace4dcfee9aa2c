package ai

import (
	"math"
	"strings"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

const (
	// Confidence assigned when no rule matches at all.
	baselineConfidence = 0.1

	maxIndicators            = 10
	maxIndicatorsPerCategory = 2
)

// Classifier scores transcripts against the rule catalog. Stateless and
// safe for concurrent use.
type Classifier struct {
	catalog   *Catalog
	threshold float64
	log       *logger.Logger
}

// NewClassifier builds a classifier over the given catalog. threshold is the
// minimum confidence at which a transcript is flagged as a scam.
func NewClassifier(catalog *Catalog, threshold float64, log *logger.Logger) *Classifier {
	return &Classifier{
		catalog:   catalog,
		threshold: threshold,
		log:       log.WithComponent("classifier"),
	}
}

// Classify evaluates the full transcript, all senders included, and returns
// a verdict. It is a pure function of the input: the same messages always
// produce the same result.
func (c *Classifier) Classify(messages []models.Message) models.DetectionResult {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Text)
	}
	return c.classifyText(strings.ToLower(strings.Join(parts, " ")))
}

// QuickCheck scores a single piece of text outside any session.
func (c *Classifier) QuickCheck(text string) models.DetectionResult {
	return c.classifyText(strings.ToLower(text))
}

func (c *Classifier) classifyText(corpus string) models.DetectionResult {
	matched := make(map[string]int, len(c.catalog.Detection))
	var indicators []string

	for _, cat := range c.catalog.Detection {
		hits := 0
		for _, rule := range cat.Rules {
			if !rule.Matches(corpus) {
				continue
			}
			hits++
			if hits <= maxIndicatorsPerCategory && len(indicators) < maxIndicators {
				indicators = append(indicators, rule.Raw)
			}
		}
		if hits > 0 {
			matched[cat.Name] = hits
		}
	}

	if len(matched) == 0 {
		return models.DetectionResult{
			ScamDetected:    false,
			ConfidenceScore: baselineConfidence,
			ScamType:        models.ScamTypeUnknown,
			Indicators:      []string{},
			Reasoning:       "No scam indicators detected",
		}
	}

	confidence := c.score(matched)
	detected := confidence >= c.threshold
	scamType := primaryScamType(matched)

	if c.log != nil {
		c.log.Debug().
			Float64("confidence", confidence).
			Bool("detected", detected).
			Str("scam_type", string(scamType)).
			Int("categories", len(matched)).
			Msg("transcript classified")
	}

	return models.DetectionResult{
		ScamDetected:    detected,
		ConfidenceScore: confidence,
		ScamType:        scamType,
		Indicators:      indicators,
		Reasoning:       buildReasoning(matched, scamType),
	}
}

// score computes additive confidence from per-category match counts.
func (c *Classifier) score(matched map[string]int) float64 {
	confidence := math.Min(float64(len(matched))*0.15, 0.45)

	for _, hits := range matched {
		if hits >= 2 {
			confidence += 0.1
		}
		if hits >= 3 {
			confidence += 0.1
		}
	}

	if _, ok := matched[CategoryUrgency]; ok {
		confidence += 0.15
	}
	if _, ok := matched[CategoryOTPHarvesting]; ok {
		confidence += 0.15
	}
	if _, ok := matched[CategoryPhishing]; ok {
		confidence += 0.15
	}
	if _, ok := matched[CategoryUPIFraud]; ok {
		confidence += 0.1
	}
	if _, ok := matched[CategoryBankFraud]; ok {
		confidence += 0.1
	}

	_, urgency := matched[CategoryUrgency]
	_, bank := matched[CategoryBankFraud]
	_, upi := matched[CategoryUPIFraud]
	if urgency && (bank || upi) {
		confidence += 0.15
	}

	confidence = math.Min(confidence, 0.99)
	return math.Round(confidence*100) / 100
}

// primaryScamType picks the dominant type by fixed priority, so that a
// transcript hitting several categories maps to a stable label.
func primaryScamType(matched map[string]int) models.ScamType {
	priority := []struct {
		category string
		scamType models.ScamType
	}{
		{CategoryUPIFraud, models.ScamTypeUPIFraud},
		{CategoryBankFraud, models.ScamTypeBankFraud},
		{CategoryPhishing, models.ScamTypePhishing},
		{CategoryFakeOffers, models.ScamTypeFakeOffer},
		{CategoryOTPHarvesting, models.ScamTypeOTPHarvesting},
	}
	for _, p := range priority {
		if _, ok := matched[p.category]; ok {
			return p.scamType
		}
	}
	_, urgency := matched[CategoryUrgency]
	_, keywords := matched[CategorySuspiciousKeywords]
	if urgency || keywords {
		return models.ScamTypePhishing
	}
	return models.ScamTypeUnknown
}

var categoryDescriptions = []struct {
	category    string
	description string
}{
	{CategoryUrgency, "Creates false urgency"},
	{CategoryBankFraud, "Impersonates bank"},
	{CategoryUPIFraud, "Requests UPI transfer"},
	{CategoryPhishing, "Contains suspicious links"},
	{CategoryFakeOffers, "Promises fake rewards"},
	{CategoryOTPHarvesting, "Requests sensitive codes"},
	{CategorySuspiciousKeywords, "Uses suspicious terminology"},
}

func buildReasoning(matched map[string]int, scamType models.ScamType) string {
	var clauses []string
	for _, d := range categoryDescriptions {
		if _, ok := matched[d.category]; ok {
			clauses = append(clauses, d.description)
		}
	}
	if len(clauses) == 0 {
		return "Low confidence detection"
	}
	return "Detected " + string(scamType) + ": " + strings.Join(clauses, "; ")
}
