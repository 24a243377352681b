package message

// TranscriptLimit caps how many messages a thread keeps.
const TranscriptLimit = 20

// Append adds msgs to a transcript and trims it to TranscriptLimit, dropping the oldest.
func Append(transcript []Message, msgs ...Message) []Message {
	out := append(transcript, msgs...)
	if len(out) > TranscriptLimit {
		out = append([]Message(nil), out[len(out)-TranscriptLimit:]...)
	}
	return out
}

// Reply builds a TextReply.
func Reply(text string) Message {
	return TextReply{Text: text}
}

// Invocation builds a ToolInvocation.
func Invocation(tool string, args map[string]interface{}) Message {
	return ToolInvocation{Tool: tool, Args: args}
}

// Result builds a ToolResult from record ids and an optional error.
func Result(tool string, ids []string, attempts int, err error) Message {
	res := ToolResult{Tool: tool, Count: len(ids), IDs: ids, Attempts: attempts}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
