package intent

import (
	"context"
	"fmt"
	"strings"

	"heritage-archive-be/pkg/rag"
)

// MinMeaningfulTokens is the least number of content tokens a searchable query needs.
const MinMeaningfulTokens = 1

const (
	GreetingReply = "Hello! I can help you explore Malaysian heritage archives. " +
		"Try asking for something like \"batik from Kelantan\" or \"old photographs of Penang\"."
	ClosingReply = "You're welcome! Come back any time you want to explore more heritage archives."
	AboutReply   = "I search a collection of heritage materials: photographs, videos, documents and audio recordings. " +
		"Tell me a craft, a place or a tradition and I'll find related archives."
	UnrelatedReply = "I can only help with searching the heritage archive collection. " +
		"Ask me about traditional crafts, performances, places or historical materials."
	ClarificationReply = "Could you tell me a bit more about what you're looking for? " +
		"For example a craft (batik, songket), a place (Sarawak, Melaka) or a type of material (videos, photographs)."
)

// RuleClassifier decides intent from fixed patterns and the heritage vocabulary. It has no side effects.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(_ context.Context, userText string) (rag.IntentResult, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, fmt.Errorf("%w: query must not be empty", rag.ErrInvalidInput)
	}
	if verdict := preClassify(text); verdict != nil {
		return verdict, nil
	}
	return rag.SearchIntent{Query: text}, nil
}

// preClassify applies the three gating rules in order and returns nil when the text should be searched.
func preClassify(text string) rag.IntentResult {
	if verdict := conversational(text); verdict != nil {
		return verdict
	}
	if unrelated(text) {
		return rag.UnrelatedIntent{ReplyText: UnrelatedReply}
	}
	if vaguePattern.MatchString(text) || rag.MeaningfulTokenCount(text) < MinMeaningfulTokens {
		return rag.ClarificationIntent{Prompt: ClarificationReply}
	}
	return nil
}

// unrelated matches out-of-domain questions. Heritage queries that merely mention the
// weather or a joke ("Iban weather rituals") are not unrelated.
func unrelated(text string) bool {
	for _, p := range unrelatedPatterns {
		if p.MatchString(text) {
			return !rag.ExtractTerms(text).Anchored()
		}
	}
	return false
}

func conversational(text string) rag.IntentResult {
	switch {
	case closingPattern.MatchString(text):
		return rag.ConversationalIntent{ReplyText: ClosingReply}
	case smallTalkPattern.MatchString(text):
		return rag.ConversationalIntent{ReplyText: AboutReply}
	case acknowledgementPattern.MatchString(text):
		return rag.ConversationalIntent{ReplyText: ClosingReply}
	}

	loc := greetingPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	rest := strings.TrimSpace(text[loc[1]:])
	if rest == "" || smallTalkPattern.MatchString(rest) {
		return rag.ConversationalIntent{ReplyText: GreetingReply}
	}
	// "hi there" and similar stay conversational; "hi, batik from Kelantan please" does not
	if !rag.ExtractTerms(rest).HasDomainSignal() && rag.MeaningfulTokenCount(rest) <= 1 {
		return rag.ConversationalIntent{ReplyText: GreetingReply}
	}
	return nil
}
