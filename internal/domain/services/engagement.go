package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// Strategy labels one response tactic for a single turn.
type Strategy string

const (
	StrategyExtractUPI       Strategy = "extract_upi"
	StrategyExtractBank      Strategy = "extract_bank"
	StrategyExtractPhone     Strategy = "extract_phone"
	StrategyExtractLink      Strategy = "extract_link"
	StrategyExpressConfusion Strategy = "express_confusion"
	StrategyAskClarification Strategy = "ask_clarification"
	StrategyShowCooperation  Strategy = "show_cooperation"
	StrategyExpressConcern   Strategy = "express_concern"
)

// Persona is a fixed character the engine speaks as for the whole session.
type Persona struct {
	Name      string
	Style     string
	Responses []string
	// FlavorLine is appended to extraction questions to keep them in voice.
	FlavorLine string
}

var personas = map[string]Persona{
	"confused": {
		Name:       "Ramesh",
		Style:      "slightly confused, elderly, cooperative",
		FlavorLine: " I want to make sure I do it correctly.",
		Responses: []string{
			"Wait... I'm a bit confused. Could you explain that again?",
			"Sorry, I'm not very good with technology. What did you say?",
			"My eyes aren't what they used to be. Can you repeat that slowly?",
			"I'm worried about making a mistake. Can you guide me step by step?",
			"Let me write this down... could you say that again?",
			"I didn't understand. Can you explain in simple words?",
			"Is this safe? I've heard about scams...",
			"My son usually helps me with these things. Let me try to understand.",
			"I'm getting a bit worried. Is everything okay?",
			"Please be patient with me, I'm trying my best.",
		},
	},
	"cooperative": {
		Name:       "Priya",
		Style:      "cooperative but cautious, asks questions",
		FlavorLine: " I want to help.",
		Responses: []string{
			"Okay, I want to help. What do I need to do?",
			"I can do that. Just to confirm - what was the ID again?",
			"I want to make sure I do this right. Can you repeat?",
			"Alright, I'm following. What's the next step?",
			"I understand. But why do you need this information?",
			"I'll help, but I want to be careful. Is this legitimate?",
			"Let me check... okay, I'm ready. What next?",
			"I want to do this correctly. Can you confirm the details?",
		},
	},
	"skeptical": {
		Name:       "Vikram",
		Style:      "slightly suspicious, asks for proof",
		FlavorLine: " I need to verify this first.",
		Responses: []string{
			"How do I know this is real? I've been scammed before.",
			"Can you prove you're from the bank?",
			"This seems suspicious. Why do you need this?",
			"I need to verify this. Can you give me a reference number?",
			"I'm not comfortable sharing this. Can I call the bank directly?",
			"Something doesn't feel right. Can you explain more?",
			"Let me think about this. Why is this urgent?",
		},
	},
	"curious": {
		Name:  "Ananya",
		Style: "curious, asks many questions",
		Responses: []string{
			"Interesting... tell me more about this.",
			"Why would my account be blocked? I didn't do anything wrong.",
			"How does this work exactly?",
			"What happens if I don't do this?",
			"Can you explain why this is necessary?",
			"I have so many questions. Is this normal?",
			"Wait, let me understand this properly first.",
		},
	},
}

// personaOrder fixes the iteration order for random selection so that a
// seeded engine always picks the same persona.
var personaOrder = []string{"confused", "cooperative", "skeptical", "curious"}

var extractionQuestions = map[string][]string{
	"upi_id": {
		"What's the UPI ID I should send to? I want to make sure I get it right.",
		"Can you confirm the UPI ID? I don't want to send to the wrong person.",
		"Sorry, I got disconnected. What was the UPI ID again?",
		"Let me write this down. What's the exact UPI ID?",
	},
	"bank_account": {
		"Which account should I transfer to? Can you give me the details?",
		"I can do a bank transfer. What are the account details?",
		"My bank needs the account number and IFSC. Can you provide those?",
		"I prefer bank transfer. What's the account information?",
	},
	"phone_number": {
		"Can I call you to confirm? What's your number?",
		"My phone is having issues. Can you give me your number again?",
		"I'd like to save your number. What is it?",
	},
	"phishing_link": {
		"The link isn't working. Can you send it again?",
		"I'm having trouble opening the link. Could you resend?",
		"My browser says the link is broken. Can you check and resend?",
	},
}

var confusionResponses = []string{
	"I'm a bit confused. Could you explain that again more simply?",
	"Sorry, I didn't understand. Can you repeat that?",
	"This is confusing for me. What exactly do you need?",
	"I'm not sure I follow. Can you break it down?",
	"Wait... I'm lost. What are you asking for?",
}

var clarificationResponses = []string{
	"Why do you need this information?",
	"Is this really from my bank?",
	"How do I know this is legitimate?",
	"Can you tell me more about why this is urgent?",
	"What will happen if I don't do this?",
}

var cooperativeResponses = []string{
	"Okay, I'm listening. What should I do next?",
	"I understand. Please guide me through this.",
	"Alright, I want to do this right. What's the next step?",
	"I'm ready. What do I need to do?",
	"Okay, I'm following along. Please continue.",
}

var concernResponses = []string{
	"This feels rushed. Can we take this slowly?",
	"I'm getting worried. Is everything okay?",
	"Why is this so urgent? Can you explain?",
	"I need to think about this. Is there a deadline?",
	"I'm concerned. Can I verify this with my bank first?",
}

// ConversationMemory tracks what the engine has already obtained and how
// often it has pushed for each identifier, so it does not nag.
type ConversationMemory struct {
	Extracted map[string]bool
	Attempts  map[string]int
	Topics    []string
}

func newConversationMemory() *ConversationMemory {
	return &ConversationMemory{
		Extracted: map[string]bool{"upi": false, "bank": false, "phone": false, "link": false},
		Attempts:  map[string]int{"upi": 0, "bank": 0, "phone": 0, "link": 0},
	}
}

// RecordAttempt counts one extraction push for the given identifier kind.
func (m *ConversationMemory) RecordAttempt(kind string) {
	if _, ok := m.Attempts[kind]; ok {
		m.Attempts[kind]++
	}
}

// MarkExtracted records that the identifier kind has been obtained.
func (m *ConversationMemory) MarkExtracted(kind string) {
	if _, ok := m.Extracted[kind]; ok {
		m.Extracted[kind] = true
	}
}

// AddTopic keeps a short sliding window of recent conversation topics.
func (m *ConversationMemory) AddTopic(topic string) {
	m.Topics = append(m.Topics, topic)
	if len(m.Topics) > 5 {
		m.Topics = m.Topics[len(m.Topics)-5:]
	}
}

// StrategyEngine generates in-character replies for one session. Not safe
// for concurrent use; the coordinator serializes access per session.
type StrategyEngine struct {
	sessionID string
	scamType  models.ScamType
	persona   Persona
	memory    *ConversationMemory
	turnCount int
	startTime time.Time
	maxTurns  int
	rng       *rand.Rand
	log       *logger.Logger
}

// NewStrategyEngine creates an engine for a session. rng drives persona
// selection and reply variation; passing a seeded source makes the engine
// fully deterministic.
func NewStrategyEngine(sessionID string, scamType models.ScamType, maxTurns int, rng *rand.Rand, log *logger.Logger) *StrategyEngine {
	e := &StrategyEngine{
		sessionID: sessionID,
		scamType:  scamType,
		memory:    newConversationMemory(),
		startTime: time.Now().UTC(),
		maxTurns:  maxTurns,
		rng:       rng,
		log:       log.WithComponent("engagement").WithSession(sessionID),
	}
	e.persona = e.selectPersona()
	return e
}

// selectPersona maps scam types to the persona that plays best against
// them; other types get a random one.
func (e *StrategyEngine) selectPersona() Persona {
	switch e.scamType {
	case models.ScamTypeBankFraud:
		return personas["skeptical"]
	case models.ScamTypeUPIFraud:
		return personas["confused"]
	case models.ScamTypeFakeOffer:
		return personas["curious"]
	default:
		return personas[personaOrder[e.rng.Intn(len(personaOrder))]]
	}
}

// Persona exposes the selected persona, mainly for logging.
func (e *StrategyEngine) Persona() Persona {
	return e.persona
}

// TurnCount reports how many replies the engine has produced.
func (e *StrategyEngine) TurnCount() int {
	return e.turnCount
}

// Respond produces the next in-character reply given the transcript so far
// and the intelligence extracted from it.
func (e *StrategyEngine) Respond(messages []models.Message, extracted models.ExtractedIntelligence) string {
	e.turnCount++

	var lastScammerMsg string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == models.SenderScammer {
			lastScammerMsg = strings.ToLower(messages[i].Text)
			break
		}
	}
	if lastScammerMsg == "" {
		return e.pick(e.persona.Responses)
	}

	if len(extracted.UPIIDs) > 0 {
		e.memory.MarkExtracted("upi")
	}
	if len(extracted.BankAccounts) > 0 {
		e.memory.MarkExtracted("bank")
	}
	if len(extracted.PhoneNumbers) > 0 {
		e.memory.MarkExtracted("phone")
	}
	if len(extracted.PhishingLinks) > 0 {
		e.memory.MarkExtracted("link")
	}

	strategy := e.determineStrategy(lastScammerMsg, extracted)
	reply := e.execute(strategy)

	if e.log != nil {
		e.log.Debug().
			Str("strategy", string(strategy)).
			Str("persona", e.persona.Name).
			Int("turn", e.turnCount).
			Msg("reply generated")
	}
	return reply
}

// determineStrategy walks a fixed ladder: push for whatever identifier the
// scammer just brought up and we still lack, then react to pressure, then
// fall back to keeping the conversation alive. First match wins.
func (e *StrategyEngine) determineStrategy(msg string, extracted models.ExtractedIntelligence) Strategy {
	if containsAny(msg, "upi", "paytm", "phonepe") {
		if len(extracted.UPIIDs) == 0 && e.memory.Attempts["upi"] < 2 {
			return StrategyExtractUPI
		}
	}
	if containsAny(msg, "bank", "account", "transfer") {
		if len(extracted.BankAccounts) == 0 && e.memory.Attempts["bank"] < 2 {
			return StrategyExtractBank
		}
	}
	if containsAny(msg, "call", "phone", "contact") {
		if len(extracted.PhoneNumbers) == 0 && e.memory.Attempts["phone"] < 2 {
			return StrategyExtractPhone
		}
	}
	if containsAny(msg, "click", "link", "website") {
		if len(extracted.PhishingLinks) == 0 && e.memory.Attempts["link"] < 2 {
			return StrategyExtractLink
		}
	}
	if containsAny(msg, "hurry", "quick", "now", "urgent", "immediately") {
		return StrategyExpressConcern
	}
	if containsAny(msg, "send", "share", "provide", "give") {
		return StrategyExpressConfusion
	}
	if e.turnCount <= 2 {
		return StrategyAskClarification
	}
	return StrategyShowCooperation
}

func (e *StrategyEngine) execute(strategy Strategy) string {
	switch strategy {
	case StrategyExtractUPI:
		e.memory.RecordAttempt("upi")
		return e.extractionQuestion("upi_id")
	case StrategyExtractBank:
		e.memory.RecordAttempt("bank")
		return e.extractionQuestion("bank_account")
	case StrategyExtractPhone:
		e.memory.RecordAttempt("phone")
		return e.extractionQuestion("phone_number")
	case StrategyExtractLink:
		e.memory.RecordAttempt("link")
		return e.extractionQuestion("phishing_link")
	case StrategyExpressConfusion:
		return e.pick(confusionResponses)
	case StrategyAskClarification:
		return e.pick(clarificationResponses)
	case StrategyExpressConcern:
		return e.pick(concernResponses)
	case StrategyShowCooperation:
		return e.pick(cooperativeResponses)
	default:
		return e.pick(e.persona.Responses)
	}
}

func (e *StrategyEngine) extractionQuestion(kind string) string {
	pool, ok := extractionQuestions[kind]
	if !ok {
		return "Can you tell me more?"
	}
	return e.pick(pool) + e.persona.FlavorLine
}

func (e *StrategyEngine) pick(pool []string) string {
	return pool[e.rng.Intn(len(pool))]
}

// ShouldContinue reports whether the engine is still within its engagement
// budget.
func (e *StrategyEngine) ShouldContinue() bool {
	return e.turnCount < e.maxTurns
}

// EngagementDuration is the wall-clock time since the engine was created.
func (e *StrategyEngine) EngagementDuration() time.Duration {
	return time.Since(e.startTime)
}

// GenerateNotes summarizes the engagement for reporting: what the scammer
// tried, the tactics seen, what was extracted, and how long we kept them
// talking.
func (e *StrategyEngine) GenerateNotes(extracted models.ExtractedIntelligence) string {
	parts := []string{fmt.Sprintf("Scammer attempted %s.", e.scamType)}

	var tactics []string
	keywords := strings.ToLower(strings.Join(extracted.SuspiciousKeywords, " "))
	if strings.Contains(keywords, "urgent") || strings.Contains(keywords, "immediately") {
		tactics = append(tactics, "urgency tactics")
	}
	if len(extracted.PhishingLinks) > 0 {
		tactics = append(tactics, "phishing links")
	}
	if len(extracted.UPIIDs) > 0 {
		tactics = append(tactics, "UPI fraud")
	}
	if len(extracted.BankAccounts) > 0 {
		tactics = append(tactics, "bank account fraud")
	}
	if len(tactics) > 0 {
		parts = append(parts, fmt.Sprintf("Used %s.", strings.Join(tactics, " and ")))
	}

	if summary := extracted.Summary(); summary != "No actionable intelligence" {
		parts = append(parts, fmt.Sprintf("Extracted: %s.", summary))
	}

	parts = append(parts, fmt.Sprintf("Engaged for %d turns.", e.turnCount))
	return strings.Join(parts, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
