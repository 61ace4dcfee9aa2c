package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(NewCatalog(), "91", logger.NewDefault())
}

func TestExtractUPIIDs(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract(scammerSays(
		"Send the amount to fraudster@paytm right away",
		"I repeat, my ID is FRAUDSTER@paytm, also reach me at john@gmail.com",
	))

	assert.Equal(t, []string{"fraudster@paytm"}, intel.UPIIDs)
}

func TestExtractBankDetails(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract(scammerSays(
		"Deposit into account number: 123456789012, IFSC: SBIN0001234",
	))

	assert.Equal(t, []string{"123456789012"}, intel.BankAccounts)
	assert.Equal(t, []string{"SBIN0001234"}, intel.IFSCCodes)
}

func TestExtractPhoneNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare local number gets country code",
			text: "call me on 9876543210",
			want: []string{"+919876543210"},
		},
		{
			name: "prefixed and bare forms collapse",
			text: "call 9876543210 or +91 9876543210",
			want: []string{"+919876543210"},
		},
		{
			name: "short number dropped",
			text: "dial 12345 for support",
			want: nil,
		},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intel := e.Extract(scammerSays(tt.text))
			assert.Equal(t, tt.want, intel.PhoneNumbers)
		})
	}
}

func TestExtractLinksKeepsOnlySuspicious(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract(scammerSays(
		"Update KYC at http://sbi-verify.tk/login now.",
		"You can also search on https://www.google.com/search for proof.",
	))

	assert.Equal(t, []string{"http://sbi-verify.tk/login"}, intel.PhishingLinks)
}

func TestIsSuspiciousURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.google.com", false},
		{"https://paytm.com/offers", false},
		{"https://onlinesbi.sbi", false},
		{"http://sbi-secure.xyz", true},
		{"http://bit.ly/3xyz", true},
		{"www.icicibank-kyc.com", true},
		{"http://random-unknown-site.net", true},
		{"http://not a url", true},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsSuspiciousURL(tt.url))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract(scammerSays("This is urgent, verify now before your account is suspended"))

	assert.Contains(t, intel.SuspiciousKeywords, "urgent")
	assert.Contains(t, intel.SuspiciousKeywords, "verify now")
	assert.LessOrEqual(t, len(intel.SuspiciousKeywords), 15)
}

func TestExtractIgnoresAgentMessages(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract([]models.Message{
		{Sender: models.SenderAgent, Text: "Should I send it to helper@paytm or call 9876543210?"},
		{Sender: models.SenderScammer, Text: "yes do it fast"},
	})

	assert.False(t, intel.HasIntelligence())
}

func TestExtractIgnoresUserMessages(t *testing.T) {
	e := newTestExtractor(t)

	intel := e.Extract([]models.Message{
		{Sender: models.SenderUser, Text: "My UPI is victim@ybl and my number is 9876543210"},
		{Sender: models.SenderScammer, Text: "good, send it fast"},
	})

	assert.False(t, intel.HasIntelligence())
}

func TestExtractIsDeterministic(t *testing.T) {
	e := newTestExtractor(t)
	msgs := scammerSays(
		"Pay fraud@ybl or fraud2@paytm, account 987654321098, IFSC HDFC0001122",
		"visit http://secure-verify.top/kyc or call 9123456780",
	)

	first := e.Extract(msgs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(msgs))
	}
}
