package models

import (
	"fmt"
	"strings"
)

// ExtractedIntelligence holds the actionable identifiers pulled from
// scammer-authored text. Each list is deduplicated and accumulates
// monotonically over the life of a session: values are appended, never
// removed.
type ExtractedIntelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	IFSCCodes          []string `json:"ifscCodes"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// HasIntelligence reports whether any actionable identifier has been
// extracted. Keywords alone do not count: they are context, not evidence.
func (e ExtractedIntelligence) HasIntelligence() bool {
	return len(e.BankAccounts) > 0 ||
		len(e.IFSCCodes) > 0 ||
		len(e.UPIIDs) > 0 ||
		len(e.PhishingLinks) > 0 ||
		len(e.PhoneNumbers) > 0
}

// Summary returns a short human-readable count of extracted identifiers.
func (e ExtractedIntelligence) Summary() string {
	var items []string
	if n := len(e.BankAccounts); n > 0 {
		items = append(items, fmt.Sprintf("%d bank account(s)", n))
	}
	if n := len(e.UPIIDs); n > 0 {
		items = append(items, fmt.Sprintf("%d UPI ID(s)", n))
	}
	if n := len(e.PhishingLinks); n > 0 {
		items = append(items, fmt.Sprintf("%d phishing link(s)", n))
	}
	if n := len(e.PhoneNumbers); n > 0 {
		items = append(items, fmt.Sprintf("%d phone number(s)", n))
	}
	if len(items) == 0 {
		return "No actionable intelligence"
	}
	return strings.Join(items, ", ")
}

// Merge unions other into e field by field, preserving first-seen order.
// Re-adding an already-present value is a no-op, so merging the result of a
// full-transcript re-extraction is idempotent.
func (e *ExtractedIntelligence) Merge(other ExtractedIntelligence) {
	e.BankAccounts = appendMissing(e.BankAccounts, other.BankAccounts)
	e.IFSCCodes = appendMissing(e.IFSCCodes, other.IFSCCodes)
	e.UPIIDs = appendMissing(e.UPIIDs, other.UPIIDs)
	e.PhishingLinks = appendMissing(e.PhishingLinks, other.PhishingLinks)
	e.PhoneNumbers = appendMissing(e.PhoneNumbers, other.PhoneNumbers)
	e.SuspiciousKeywords = appendMissing(e.SuspiciousKeywords, other.SuspiciousKeywords)
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
