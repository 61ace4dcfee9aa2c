package models

// ScamType categorizes the primary fraud pattern observed in a conversation.
type ScamType string

const (
	ScamTypeBankFraud     ScamType = "bank_fraud"
	ScamTypeUPIFraud      ScamType = "upi_fraud"
	ScamTypePhishing      ScamType = "phishing"
	ScamTypeFakeOffer     ScamType = "fake_offer"
	ScamTypeOTPHarvesting ScamType = "otp_harvesting"
	ScamTypeUnknown       ScamType = "unknown"
)

// DetectionResult is the classifier verdict for a full transcript. It is
// recomputed from scratch every turn; classification is a pure function of
// the transcript.
type DetectionResult struct {
	ScamDetected    bool     `json:"scamDetected"`
	ConfidenceScore float64  `json:"confidenceScore"`
	ScamType        ScamType `json:"scamType"`
	Indicators      []string `json:"indicators"`
	Reasoning       string   `json:"reasoning"`
}
