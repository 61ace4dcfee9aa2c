package ai

import (
	"regexp"
	"strings"
)

// Detection category names. Order of evaluation is the catalog order below;
// it is fixed so that classification stays deterministic.
const (
	CategoryUrgency            = "urgency"
	CategoryBankFraud          = "bank_fraud"
	CategoryUPIFraud           = "upi_fraud"
	CategoryPhishing           = "phishing"
	CategoryFakeOffers         = "fake_offers"
	CategoryOTPHarvesting      = "otp_pin_harvesting"
	CategorySuspiciousKeywords = "suspicious_keywords"
)

// Field identifies an extraction target.
type Field string

const (
	FieldBankAccount Field = "bank_account"
	FieldIFSC        Field = "ifsc_code"
	FieldUPI         Field = "upi_id"
	FieldPhone       Field = "phone_number"
	FieldLink        Field = "phishing_link"
)

// DetectionRule is one compiled match rule. Raw keeps the source pattern
// text, which doubles as the rule's indicator identifier.
type DetectionRule struct {
	Raw  string
	expr *regexp.Regexp
}

// Matches reports whether the rule matches the (lowercased) corpus.
func (r DetectionRule) Matches(corpus string) bool {
	return r.expr.MatchString(corpus)
}

// DetectionCategory is a named, ordered list of match rules.
type DetectionCategory struct {
	Name  string
	Rules []DetectionRule
}

// ExtractionField is an ordered list of extraction rules plus a validator
// applied to each normalized candidate.
type ExtractionField struct {
	Name     Field
	patterns []*regexp.Regexp
	Validate func(string) bool
}

// FindCandidates returns all raw matches in order. When a pattern has a
// capture group the group text is returned, otherwise the whole match.
func (f ExtractionField) FindCandidates(corpus string) []string {
	var out []string
	for _, p := range f.patterns {
		for _, m := range p.FindAllStringSubmatch(corpus, -1) {
			candidate := m[0]
			if len(m) > 1 && m[1] != "" {
				candidate = m[1]
			}
			out = append(out, candidate)
		}
	}
	return out
}

// Catalog is the process-wide, read-only rule set: detection categories,
// extraction fields, and the URL-suspicion lists. Loaded once at startup and
// safely shared without locking.
type Catalog struct {
	Detection  []DetectionCategory
	Extraction map[Field]ExtractionField

	// URL suspicion heuristic data.
	LegitimateDomains []string
	SuspiciousTLDs    []string
	Shorteners        []string
	HostKeywords      []string

	// Keyword extraction data.
	UrgentPhrases []string
	scamKeywords  []string
}

// NewCatalog builds the default catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		Detection:  defaultDetectionCategories(),
		Extraction: defaultExtractionFields(),
		LegitimateDomains: []string{
			"google.com", "gmail.com", "yahoo.com", "hotmail.com",
			"facebook.com", "instagram.com", "twitter.com", "x.com",
			"youtube.com", "linkedin.com",
			"amazon.in", "amazon.com", "flipkart.com",
			"paytm.com", "phonepe.com", "google.com/pay",
			"sbi.co.in", "onlinesbi.sbi", "hdfcbank.com", "icicibank.com",
			"axisbank.com", "pnbindia.in", "bankofbaroda.in",
			"rbi.org.in", "npci.org.in",
			"whatsapp.com", "telegram.org",
		},
		SuspiciousTLDs: []string{
			".tk", ".ml", ".ga", ".cf", ".top", ".xyz", ".club", ".online", ".site",
		},
		Shorteners: []string{
			"bit.ly", "tinyurl", "t.co", "short.link", "goo.gl",
		},
		HostKeywords: []string{
			"verify", "secure", "login", "update", "kyc", "confirm", "validate",
		},
		UrgentPhrases: []string{
			"account blocked", "verify now", "urgent", "immediately",
			"hurry up", "last chance", "expires today", "final notice",
			"suspended", "limited time", "act now",
		},
	}
	c.scamKeywords = deriveKeywords(c.Detection)
	return c
}

// ScamKeywords returns keyword fragments derived from the detection rules,
// used by the extractor's verbatim keyword scan.
func (c *Catalog) ScamKeywords() []string {
	return c.scamKeywords
}

func compileRules(patterns ...string) []DetectionRule {
	rules := make([]DetectionRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, DetectionRule{
			Raw:  p,
			expr: regexp.MustCompile("(?i)" + p),
		})
	}
	return rules
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

func defaultDetectionCategories() []DetectionCategory {
	return []DetectionCategory{
		{
			Name: CategoryUrgency,
			Rules: compileRules(
				`blocked\s*(today|now|immediately)`,
				`will\s*be\s*blocked`,
				`urgent`,
				`immediately`,
				`right\s*now`,
				`hurry`,
				`expires?\s*(today|soon)`,
				`last\s*chance`,
				`final\s*notice`,
				`account\s*suspended`,
				`verify\s*(now|immediately)`,
			),
		},
		{
			Name: CategoryBankFraud,
			Rules: compileRules(
				`\b(sbi|hdfc|icici|axis|pnb|bob|union\s*bank)\b`,
				`bank\s*account`,
				`debit\s*card`,
				`credit\s*card`,
				`kyc\s*(update|verification)`,
				`account\s*verification`,
				`transaction\s*failed`,
				`suspicious\s*activity`,
			),
		},
		{
			Name: CategoryUPIFraud,
			Rules: compileRules(
				`\bupi\b`,
				`\b(paytm|phonepe|gpay|google\s*pay|bhim)\b`,
				`qr\s*code`,
				`scan\s*qr`,
				`collect\s*request`,
				`request\s*money`,
				`send\s*money\s*to`,
				`transfer\s*to`,
				`@(?:paytm|phonepe|ybl|oksbi|okhdfcbank|okicici|okaxis)`,
			),
		},
		{
			Name: CategoryPhishing,
			Rules: compileRules(
				`click\s*(here|link)`,
				`tap\s*here`,
				`http[s]?://[^\s]+(?:verify|secure|login|update|kyc)`,
				`bit\.ly|tinyurl|t\.co|short\.link`,
				`verify\s*(?:account|identity|details)`,
				`update\s*(?:kyc|details|information)`,
				`login\s*to`,
				`enter\s*(?:otp|pin|password)`,
			),
		},
		{
			Name: CategoryFakeOffers,
			Rules: compileRules(
				`won\s*(?:rs\.?|₹)?\s*[\d,]+`,
				`congratulations!*\s*you\s*(?:have\s*)?won`,
				`lucky\s*(?:draw|winner|prize)`,
				`lottery`,
				`cash\s*(?:prize|back|reward)`,
				`\b(?:rs\.?|₹)\s*[\d,]+\s*(?:lakhs?|crores?|000)`,
				`gift\s*(?:waiting|pending|ready)`,
				`claim\s*(?:your|now)`,
			),
		},
		{
			Name: CategoryOTPHarvesting,
			Rules: compileRules(
				`\botp\b`,
				`\bpin\b`,
				`one[-\s]?time[-\s]?password`,
				`verification\s*code`,
				`security\s*code`,
				`share\s*(?:your|the)\s*(?:otp|pin|code)`,
				`send\s*(?:me|us)\s*(?:otp|pin|code)`,
				`provide\s*(?:otp|pin|code)`,
				`enter\s*(?:otp|pin|code)`,
				`\b\d{4,6}\b`,
			),
		},
		{
			Name: CategorySuspiciousKeywords,
			Rules: compileRules(
				`processing\s*fee`,
				`advance\s*payment`,
				`gst\s*(?:charges|fee)`,
				`tax\s*payment`,
				`refund\s*(?:pending|processing)`,
				`insurance\s*claim`,
				`package\s*delivery`,
				`courier`,
				`custom\s*duty`,
			),
		},
	}
}

func defaultExtractionFields() map[Field]ExtractionField {
	digitsLen := func(s string) int {
		n := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				n++
			}
		}
		return n
	}

	return map[Field]ExtractionField{
		FieldBankAccount: {
			Name: FieldBankAccount,
			patterns: compilePatterns(
				`\b\d{9,18}\b`,
				`(?:account|a/c)\s*(?:number|no)?[:\s]+(\d+)`,
				`(?:account|a/c)[:\s]+(\d{9,18})`,
			),
			Validate: func(s string) bool {
				n := digitsLen(s)
				return n >= 9 && n <= 18
			},
		},
		FieldIFSC: {
			Name: FieldIFSC,
			patterns: compilePatterns(
				`\b[A-Z]{4}0[A-Z0-9]{6}\b`,
				`ifsc[:\s]+([A-Z]{4}0[A-Z0-9]{6})`,
			),
			Validate: func(s string) bool {
				return len(s) == 11 && s[4] == '0'
			},
		},
		FieldUPI: {
			Name: FieldUPI,
			patterns: compilePatterns(
				`\b[\w.-]+@(?:paytm|phonepe|ybl|oksbi|okhdfcbank|okicici|okaxis|ibl|axl)\b`,
				`\b[\w.-]+@[\w]+\b`,
				`upi\s*(?:id)?[:\s]+([\w.-]+@[\w]+)`,
			),
			Validate: func(s string) bool {
				at := strings.Index(s, "@")
				return at >= 3
			},
		},
		FieldPhone: {
			Name: FieldPhone,
			patterns: compilePatterns(
				`\+91[-\s]?\d{10}`,
				`\b\d{10}\b`,
				`(?:mobile|phone|contact|call)[:\s]+(\+?\d[\d\s-]{8,})`,
			),
			Validate: func(s string) bool {
				return digitsLen(s) >= 10
			},
		},
		FieldLink: {
			Name: FieldLink,
			patterns: compilePatterns(
				"https?://[^\\s<>\"{}|\\\\^`\\[\\]]+",
				"www\\.[^\\s<>\"{}|\\\\^`\\[\\]]+",
			),
			Validate: func(s string) bool {
				return strings.Contains(s, ".") && len(s) > 10
			},
		},
	}
}

// deriveKeywords turns the first few rules of each detection category into
// plain keyword fragments for verbatim matching. Only simple patterns
// survive the cleanup; anything still carrying regex syntax will simply
// never match verbatim text.
func deriveKeywords(categories []DetectionCategory) []string {
	replacer := strings.NewReplacer(`\b`, "", `\s*`, " ", "?", "", "*", "")
	var keywords []string
	for _, cat := range categories {
		rules := cat.Rules
		if len(rules) > 3 {
			rules = rules[:3]
		}
		for _, rule := range rules {
			kw := replacer.Replace(rule.Raw)
			if len(kw) > 3 {
				keywords = append(keywords, kw)
			}
		}
	}
	return keywords
}
