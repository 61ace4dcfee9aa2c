package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntelligenceMergeIsIdempotent(t *testing.T) {
	var intel ExtractedIntelligence
	update := ExtractedIntelligence{
		UPIIDs:       []string{"fraud@paytm", "fraud@ybl"},
		BankAccounts: []string{"123456789012"},
	}

	intel.Merge(update)
	intel.Merge(update)

	assert.Equal(t, []string{"fraud@paytm", "fraud@ybl"}, intel.UPIIDs)
	assert.Equal(t, []string{"123456789012"}, intel.BankAccounts)
}

func TestIntelligenceMergePreservesOrder(t *testing.T) {
	intel := ExtractedIntelligence{UPIIDs: []string{"a@ybl"}}
	intel.Merge(ExtractedIntelligence{UPIIDs: []string{"b@ybl", "a@ybl", "c@ybl"}})

	assert.Equal(t, []string{"a@ybl", "b@ybl", "c@ybl"}, intel.UPIIDs)
}

func TestHasIntelligenceIgnoresKeywords(t *testing.T) {
	intel := ExtractedIntelligence{SuspiciousKeywords: []string{"urgent"}}
	assert.False(t, intel.HasIntelligence())

	intel.PhoneNumbers = []string{"+919876543210"}
	assert.True(t, intel.HasIntelligence())
}

func TestIntelligenceSummary(t *testing.T) {
	assert.Equal(t, "No actionable intelligence", ExtractedIntelligence{}.Summary())

	intel := ExtractedIntelligence{
		BankAccounts:  []string{"123456789012"},
		UPIIDs:        []string{"fraud@paytm", "fraud@ybl"},
		PhishingLinks: []string{"http://bad.tk"},
	}
	assert.Equal(t, "1 bank account(s), 2 UPI ID(s), 1 phishing link(s)", intel.Summary())
}

func TestMergeHistorySkipsDuplicates(t *testing.T) {
	s := NewSessionState("s1")
	s.AppendMessage(Message{Sender: SenderScammer, Text: "pay now"})

	s.MergeHistory([]Message{
		{Sender: SenderScammer, Text: "pay now"},
		{Sender: SenderAgent, Text: "why?"},
		{Sender: SenderScammer, Text: "pay now", Timestamp: 99},
	})

	assert.Len(t, s.Messages, 2)
}

func TestMessageCounts(t *testing.T) {
	s := NewSessionState("s1")
	s.AppendMessage(Message{Sender: SenderScammer, Text: "a"})
	s.AppendMessage(Message{Sender: SenderAgent, Text: "b"})
	s.AppendMessage(Message{Sender: SenderScammer, Text: "c"})

	assert.Equal(t, 2, s.ScammerMessageCount())
	assert.Equal(t, 1, s.AgentMessageCount())
}

func TestBuildSummaryWithoutDetection(t *testing.T) {
	s := NewSessionState("s1")
	summary := s.BuildSummary()

	assert.Equal(t, ScamTypeUnknown, summary.ScamType)
	assert.False(t, summary.ScamDetected)
	assert.True(t, summary.IsActive)
}
