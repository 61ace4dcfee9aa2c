package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(NewCatalog(), 0.6, logger.NewDefault())
}

func scammerSays(texts ...string) []models.Message {
	msgs := make([]models.Message, 0, len(texts))
	for _, txt := range texts {
		msgs = append(msgs, models.Message{Sender: models.SenderScammer, Text: txt})
	}
	return msgs
}

func TestClassifyBenignTranscript(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(scammerSays("hello, how are you doing today"))

	assert.False(t, result.ScamDetected)
	assert.Equal(t, 0.1, result.ConfidenceScore)
	assert.Equal(t, models.ScamTypeUnknown, result.ScamType)
	assert.Empty(t, result.Indicators)
	assert.Equal(t, "No scam indicators detected", result.Reasoning)
}

func TestClassifyBankFraudWithUrgency(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(scammerSays(
		"Your SBI bank account will be blocked today. Verify immediately to avoid suspension.",
	))

	assert.True(t, result.ScamDetected)
	assert.Equal(t, 0.99, result.ConfidenceScore)
	assert.Equal(t, models.ScamTypeBankFraud, result.ScamType)
	assert.NotEmpty(t, result.Indicators)
	assert.Contains(t, result.Reasoning, "Creates false urgency")
	assert.Contains(t, result.Reasoning, "Impersonates bank")
}

func TestClassifyScamTypePriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.ScamType
	}{
		{
			name: "upi wins over bank",
			text: "Your bank account needs verification, send money to fraud@paytm via UPI",
			want: models.ScamTypeUPIFraud,
		},
		{
			name: "bank wins over phishing",
			text: "Your debit card is locked, click here to restore it",
			want: models.ScamTypeBankFraud,
		},
		{
			name: "fake offer alone",
			text: "Congratulations! You won a lucky draw lottery",
			want: models.ScamTypeFakeOffer,
		},
		{
			name: "urgency alone falls back to phishing",
			text: "This is urgent, act right now before it is too late",
			want: models.ScamTypePhishing,
		},
	}

	c := newTestClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(scammerSays(tt.text))
			assert.Equal(t, tt.want, result.ScamType)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	msgs := scammerSays(
		"URGENT: your SBI account is suspended, share your OTP and PIN immediately",
		"transfer to fraud@ybl or click http://sbi-verify.tk now",
	)

	first := c.Classify(msgs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(msgs))
	}
}

func TestClassifyIndicatorCap(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(scammerSays(
		"URGENT final notice: your SBI bank account suspended, will be blocked today.",
		"Verify now at bit.ly/x, click here, login to update KYC details.",
		"Share your OTP, send me the PIN, enter code 123456.",
		"Congratulations you won rs. 50,000 cash prize in lucky draw lottery.",
		"Pay the processing fee via UPI, scan QR or transfer to win@paytm.",
	))

	assert.True(t, result.ScamDetected)
	assert.LessOrEqual(t, len(result.Indicators), 10)
	assert.LessOrEqual(t, result.ConfidenceScore, 0.99)
}

func TestClassifyConfidenceBounds(t *testing.T) {
	c := newTestClassifier(t)
	texts := []string{
		"hi",
		"urgent",
		"your bank account",
		"share your otp immediately or account suspended, transfer to x@ybl",
	}
	for _, txt := range texts {
		result := c.Classify(scammerSays(txt))
		assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0, txt)
		assert.LessOrEqual(t, result.ConfidenceScore, 0.99, txt)
	}
}

func TestClassifyBankImpersonationWithLink(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(scammerSays(
		"Your account will be blocked today. Click here to verify: http://sbi-verify-fake.com",
	))

	require.True(t, result.ScamDetected)
	assert.GreaterOrEqual(t, result.ConfidenceScore, 0.6)
	assert.Equal(t, models.ScamTypeBankFraud, result.ScamType)
}

func TestClassifyUPITransferRequest(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(scammerSays("Send Rs 5000 to my UPI id refund@phonepe"))

	require.True(t, result.ScamDetected)
	assert.Equal(t, models.ScamTypeUPIFraud, result.ScamType)
}

func TestQuickCheckMatchesClassify(t *testing.T) {
	c := newTestClassifier(t)
	text := "Your KYC update is pending, verify now or account suspended"

	assert.Equal(t, c.Classify(scammerSays(text)), c.QuickCheck(text))
}
