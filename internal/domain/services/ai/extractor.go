package ai

import (
	"net/url"
	"strings"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// Per-field caps keep a single extraction pass bounded no matter how much
// text a session accumulates.
const (
	maxBankAccounts = 5
	maxIFSCCodes    = 5
	maxUPIIDs       = 5
	maxPhoneNumbers = 5
	maxLinks        = 10
	maxKeywords     = 15
)

// Extractor pulls actionable identifiers out of scammer-authored text.
// Stateless and safe for concurrent use.
type Extractor struct {
	catalog     *Catalog
	countryCode string
	log         *logger.Logger
}

// NewExtractor builds an extractor. countryCode is the default dialing
// prefix (digits only, e.g. "91") applied to bare local phone numbers.
func NewExtractor(catalog *Catalog, countryCode string, log *logger.Logger) *Extractor {
	return &Extractor{
		catalog:     catalog,
		countryCode: countryCode,
		log:         log.WithComponent("extractor"),
	}
}

// Extract runs all field extractors over the scammer-authored portion of
// the transcript. Agent replies and victim-authored messages are excluded
// so only the counterparty can mint evidence.
func (e *Extractor) Extract(messages []models.Message) models.ExtractedIntelligence {
	var parts []string
	for _, m := range messages {
		if m.Sender == models.SenderScammer {
			parts = append(parts, m.Text)
		}
	}
	corpus := strings.Join(parts, " ")

	intel := models.ExtractedIntelligence{
		BankAccounts:       e.extractField(corpus, FieldBankAccount, normalizeDigits, maxBankAccounts),
		IFSCCodes:          e.extractField(corpus, FieldIFSC, strings.ToUpper, maxIFSCCodes),
		UPIIDs:             e.extractUPIIDs(corpus),
		PhishingLinks:      e.extractLinks(corpus),
		PhoneNumbers:       e.extractPhoneNumbers(corpus),
		SuspiciousKeywords: e.extractKeywords(strings.ToLower(corpus)),
	}

	if e.log != nil && intel.HasIntelligence() {
		e.log.Debug().
			Int("bank_accounts", len(intel.BankAccounts)).
			Int("upi_ids", len(intel.UPIIDs)).
			Int("links", len(intel.PhishingLinks)).
			Int("phones", len(intel.PhoneNumbers)).
			Msg("intelligence extracted")
	}
	return intel
}

// extractField is the generic pipeline: find, normalize, validate, dedup,
// cap. Match order is preserved so extraction stays deterministic.
func (e *Extractor) extractField(corpus string, field Field, normalize func(string) string, limit int) []string {
	spec := e.catalog.Extraction[field]
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range spec.FindCandidates(corpus) {
		v := normalize(strings.TrimSpace(raw))
		if v == "" || !spec.Validate(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (e *Extractor) extractUPIIDs(corpus string) []string {
	spec := e.catalog.Extraction[FieldUPI]
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range spec.FindCandidates(corpus) {
		v := strings.ToLower(strings.TrimSpace(raw))
		if !spec.Validate(v) || isEmailProvider(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= maxUPIIDs {
			break
		}
	}
	return out
}

// isEmailProvider filters out plain email addresses that the broad VPA
// pattern also matches.
func isEmailProvider(vpa string) bool {
	at := strings.LastIndex(vpa, "@")
	if at < 0 {
		return false
	}
	domain := strings.TrimSuffix(vpa[at+1:], ".com")
	switch domain {
	case "gmail", "yahoo", "hotmail":
		return true
	}
	return false
}

func (e *Extractor) extractPhoneNumbers(corpus string) []string {
	spec := e.catalog.Extraction[FieldPhone]
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range spec.FindCandidates(corpus) {
		v := e.normalizePhone(raw)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= maxPhoneNumbers {
			break
		}
	}
	return out
}

// normalizePhone canonicalizes to +<country><number>. Bare ten-digit local
// numbers get the configured country code; anything shorter is dropped.
func (e *Extractor) normalizePhone(raw string) string {
	digits := normalizeDigits(raw)
	switch {
	case len(digits) == 10:
		return "+" + e.countryCode + digits
	case len(digits) == 10+len(e.countryCode) && strings.HasPrefix(digits, e.countryCode):
		return "+" + digits
	case len(digits) > 10:
		return "+" + digits
	default:
		return ""
	}
}

func (e *Extractor) extractLinks(corpus string) []string {
	spec := e.catalog.Extraction[FieldLink]
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range spec.FindCandidates(corpus) {
		v := strings.TrimRight(strings.TrimSpace(raw), ".,;:!?)")
		if !spec.Validate(v) || !e.IsSuspiciousURL(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= maxLinks {
			break
		}
	}
	return out
}

// IsSuspiciousURL decides whether a URL belongs in the evidence list.
// Known-good domains are allowed through; everything else is treated as
// suspicious, with the intermediate checks recording the specific reason.
func (e *Extractor) IsSuspiciousURL(rawURL string) bool {
	candidate := rawURL
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())

	for _, domain := range e.catalog.LegitimateDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return false
		}
	}

	for _, tld := range e.catalog.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}

	// Typosquat check: a brand name embedded in a host that is not the
	// brand's real domain.
	for _, domain := range e.catalog.LegitimateDomains {
		brand := domain
		if i := strings.Index(brand, "."); i > 0 {
			brand = brand[:i]
		}
		if strings.Contains(host, brand) {
			return true
		}
	}

	for _, kw := range e.catalog.HostKeywords {
		if strings.Contains(host, kw) {
			return true
		}
	}

	for _, short := range e.catalog.Shorteners {
		if strings.Contains(host, short) {
			return true
		}
	}

	return true
}

// extractKeywords scans for derived rule fragments and known urgent phrases
// verbatim. Input must already be lowercased.
func (e *Extractor) extractKeywords(corpus string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(kw string) {
		if len(out) >= maxKeywords {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	for _, kw := range e.catalog.ScamKeywords() {
		if strings.Contains(corpus, kw) {
			add(kw)
		}
	}
	for _, phrase := range e.catalog.UrgentPhrases {
		if strings.Contains(corpus, phrase) {
			add(phrase)
		}
	}
	return out
}

func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
