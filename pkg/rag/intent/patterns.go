package intent

import "regexp"

// Greetings open a conversation. A greeting followed by a concrete request is judged on the request.
var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|hiya|howdy|yo|greetings|good\s+(morning|afternoon|evening|day)|salam|assalamualaikum|selamat\s+(pagi|petang|malam|datang))\b[\s,.!?]*`)

// Closings and thanks win even when the text names heritage terms ("thanks for the batik").
var closingPattern = regexp.MustCompile(`(?i)^\s*(thanks|thank\s+you|thx|ty|terima\s+kasih|bye|goodbye|see\s+you|see\s+ya|cheers|that'?s\s+all|ok(ay)?\s+(thanks|bye)|great,?\s+thanks)\b`)

// Small talk about the assistant itself.
var smallTalkPattern = regexp.MustCompile(`(?i)^\s*(how\s+are\s+you|how'?s\s+it\s+going|what'?s\s+up|who\s+are\s+you|what\s+are\s+you|what\s+can\s+you\s+do|what\s+do\s+you\s+do|help|can\s+you\s+help(\s+me)?|nice\s+to\s+meet\s+you|apa\s+khabar)[\s?!.]*$`)

// Acknowledgements on their own.
var acknowledgementPattern = regexp.MustCompile(`(?i)^\s*(ok(ay)?|cool|great|nice|awesome|alright|sure|got\s+it|i\s+see)[\s!.]*$`)

var unrelatedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain(ing)?\s+(today|tomorrow))\b`),
	regexp.MustCompile(`(?i)^\s*(what\s+is\s+|what'?s\s+)?\d+(\.\d+)?(\s*[-+*/x×÷^]\s*\d+(\.\d+)?)+\s*[=?]?\s*$`),
	regexp.MustCompile(`(?i)\b(calculate|solve|equation|square\s+root|multiply|divided\s+by)\b`),
	regexp.MustCompile(`(?i)\b(tell\s+me\s+a\s+joke|joke|riddle)\b`),
	regexp.MustCompile(`(?i)\b(stock\s+price|stocks|bitcoin|crypto(currency)?|exchange\s+rate)\b`),
	regexp.MustCompile(`(?i)\b(write|debug|fix)\s+(some\s+|my\s+)?(code|program|script|function)\b`),
	regexp.MustCompile(`(?i)\b(python|javascript|golang|java|sql)\s+(code|tutorial|error)\b`),
	regexp.MustCompile(`(?i)\b(what\s+time\s+is\s+it|what'?s\s+the\s+time|today'?s\s+date|what\s+day\s+is\s+(it|today))\b`),
	regexp.MustCompile(`(?i)\b(latest\s+news|headlines|football|premier\s+league|movie\s+times)\b`),
}

// Vague phrases that carry content words but no searchable subject.
var vaguePattern = regexp.MustCompile(`(?i)^\s*(surprise\s+me|i\s+don'?t\s+know|idk|dunno|not\s+sure|no\s+idea|anything\s+works|up\s+to\s+you|you\s+choose|random(ly)?)[\s!.?]*$`)
