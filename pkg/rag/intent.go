// FILE: pkg/rag/intent.go
// PURPOSE: Classified intent of one user turn

package rag

import "context"

// IntentKind names the four intent classes.
type IntentKind string

const (
	IntentSearch         IntentKind = "SEARCH"
	IntentClarification  IntentKind = "CLARIFICATION_NEEDED"
	IntentConversational IntentKind = "CONVERSATIONAL"
	IntentUnrelated      IntentKind = "UNRELATED"
)

// IntentResult is produced once per user turn and decides which path runs.
// Implementations are SearchIntent, ClarificationIntent, ConversationalIntent and UnrelatedIntent.
type IntentResult interface {
	Kind() IntentKind
	// Reply is the text returned to the user for non-search intents.
	Reply() string
	isIntent()
}

type SearchIntent struct {
	Query string
}

type ClarificationIntent struct {
	Prompt string
}

type ConversationalIntent struct {
	ReplyText string
}

type UnrelatedIntent struct {
	ReplyText string
}

func (SearchIntent) Kind() IntentKind         { return IntentSearch }
func (ClarificationIntent) Kind() IntentKind  { return IntentClarification }
func (ConversationalIntent) Kind() IntentKind { return IntentConversational }
func (UnrelatedIntent) Kind() IntentKind      { return IntentUnrelated }

func (SearchIntent) Reply() string           { return "" }
func (i ClarificationIntent) Reply() string  { return i.Prompt }
func (i ConversationalIntent) Reply() string { return i.ReplyText }
func (i UnrelatedIntent) Reply() string      { return i.ReplyText }

func (SearchIntent) isIntent()         {}
func (ClarificationIntent) isIntent()  {}
func (ConversationalIntent) isIntent() {}
func (UnrelatedIntent) isIntent()      {}

// Classifier maps raw user text to an intent.
type Classifier interface {
	Classify(ctx context.Context, userText string) (IntentResult, error)
}
