// FILE: pkg/rag/vocabulary.go
// PURPOSE: Heritage vocabulary shared by the classifier, planner and relevance check

package rag

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['-][\p{L}\p{N}]+)*`)

// Tokenize lower-cases text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// StopWords carry no search meaning (English + common Malay fillers).
var StopWords = toSet(
	"i", "im", "i'm", "me", "my", "we", "our", "you", "your", "a", "an", "the", "of", "from", "in", "on",
	"at", "for", "to", "and", "or", "with", "about", "by", "as", "into", "is", "are", "was", "were", "be",
	"been", "do", "does", "did", "can", "could", "would", "should", "will", "please", "pls", "show", "find",
	"search", "look", "looking", "want", "wanna", "need", "give", "get", "see", "view", "browse", "list",
	"all", "any", "some", "every", "there", "what", "which", "who", "where", "have", "has", "had", "related",
	"regarding", "archive", "archives", "item", "items", "material", "materials", "record", "records",
	"let", "lets", "let's", "us", "just", "also", "more", "like", "kind", "type", "types",
	"saya", "nak", "mahu", "tentang", "dari", "dan", "yang", "untuk", "tunjuk", "cari",
)

// VagueWords make a query non-specific on their own.
var VagueWords = toSet(
	"something", "anything", "everything", "interesting", "whatever", "else", "stuff", "things", "thing",
	"it", "this", "that", "these", "those", "them", "one", "ones", "random", "cool", "nice", "good",
)

// MediaFormats maps surface words to the stored media_types values.
var MediaFormats = map[string]string{
	"video": "video", "videos": "video", "footage": "video", "film": "video", "films": "video",
	"clip": "video", "clips": "video", "movie": "video", "movies": "video",
	"image": "image", "images": "image", "photo": "image", "photos": "image", "photograph": "image",
	"photographs": "image", "picture": "image", "pictures": "image", "pic": "image", "pics": "image",
	"document": "document", "documents": "document", "doc": "document", "docs": "document", "pdf": "document",
	"pdfs": "document", "manuscript": "document", "manuscripts": "document", "report": "document",
	"reports": "document", "letter": "document", "letters": "document",
	"audio": "audio", "sound": "audio", "sounds": "audio", "song": "audio", "songs": "audio",
	"music": "audio", "recording": "audio", "recordings": "audio", "podcast": "audio",
}

var mediaHints = map[string]string{
	"video":    "video footage",
	"image":    "photographs images",
	"document": "documents manuscripts",
	"audio":    "audio recordings",
}

// Regions maps place and culture names to the Malaysian region they belong to.
// Cultures spread across the whole country are deliberately absent.
var Regions = map[string]string{
	"johor": "johor", "kedah": "kedah", "kelantan": "kelantan", "melaka": "melaka", "malacca": "melaka",
	"negeri sembilan": "negeri sembilan", "pahang": "pahang", "penang": "penang", "pulau pinang": "penang",
	"perak": "perak", "perlis": "perlis", "sabah": "sabah", "sarawak": "sarawak", "selangor": "selangor",
	"terengganu": "terengganu", "kuala lumpur": "kuala lumpur", "labuan": "labuan", "putrajaya": "putrajaya",
	"kadazan": "sabah", "kadazandusun": "sabah", "dusun": "sabah", "bajau": "sabah", "murut": "sabah",
	"iban": "sarawak", "bidayuh": "sarawak", "melanau": "sarawak", "orang ulu": "sarawak",
	"minangkabau": "negeri sembilan", "adat perpatih": "negeri sembilan",
	"baba nyonya": "melaka", "peranakan": "melaka", "chitty": "melaka",
}

// Items maps heritage item names and synonyms to a canonical item.
var Items = map[string]string{
	"batik": "batik", "songket": "songket", "tenun": "songket",
	"pottery": "pottery", "ceramic": "pottery", "ceramics": "pottery", "labu sayong": "pottery", "tembikar": "pottery",
	"wau": "wau", "kite": "wau", "kites": "wau",
	"keris": "keris", "kris": "keris",
	"silat": "silat", "mak yong": "mak yong", "dikir barat": "dikir barat", "zapin": "zapin", "joget": "joget",
	"wayang kulit": "wayang kulit", "shadow puppet": "wayang kulit", "shadow puppets": "wayang kulit",
	"gamelan": "gamelan", "rebana": "rebana", "sape": "sape",
	"pua kumbu": "pua kumbu", "woodcarving": "woodcarving", "wood carving": "woodcarving", "ukiran": "woodcarving",
	"anyaman": "weaving", "weaving": "weaving", "basketry": "weaving", "tekat": "tekat", "embroidery": "tekat",
}

var itemExpansions = map[string]string{
	"batik":        "batik textile hand-dyed fabric",
	"songket":      "songket woven brocade textile",
	"pottery":      "traditional pottery ceramics",
	"wau":          "wau traditional kite",
	"keris":        "keris traditional dagger weaponry",
	"silat":        "silat martial art",
	"mak yong":     "mak yong dance theatre",
	"dikir barat":  "dikir barat vocal performance",
	"zapin":        "zapin traditional dance",
	"joget":        "joget traditional dance",
	"wayang kulit": "wayang kulit shadow puppet theatre",
	"gamelan":      "gamelan traditional music ensemble",
	"rebana":       "rebana hand drum music",
	"sape":         "sape lute music",
	"pua kumbu":    "pua kumbu woven textile",
	"woodcarving":  "traditional woodcarving craft",
	"weaving":      "traditional weaving craft",
	"tekat":        "tekat gold thread embroidery",
}

// DomainWords signal a heritage query even without a known item or place.
var DomainWords = toSet(
	"heritage", "traditional", "tradition", "culture", "cultural", "craft", "crafts", "handicraft",
	"history", "historical", "museum", "artefact", "artefacts", "artifact", "artifacts", "textile", "textiles",
	"dance", "dances", "ritual", "rituals", "ceremony", "ceremonies", "festival", "festivals", "costume",
	"architecture", "folk", "customs", "adat", "storytelling",
	"malaysia", "malaysian", "malay", "old", "vintage", "ancient", "colonial",
)

// Terms is the vocabulary found in one piece of text.
type Terms struct {
	Tokens  []string // content tokens: no stop words, no vague words
	Items   []string // canonical items
	Regions []string // canonical regions
	Formats []string // stored media types
	Phrases []string // surface phrases of items and regions, in text order
}

// Anchored reports whether the text is about heritage material even when it also uses
// out-of-domain words: it names an item, or a region together with a format or a domain word.
func (t Terms) Anchored() bool {
	if len(t.Items) > 0 {
		return true
	}
	if len(t.Regions) == 0 {
		return false
	}
	if len(t.Formats) > 0 {
		return true
	}
	for _, tok := range t.Tokens {
		if DomainWords[tok] {
			return true
		}
	}
	return false
}

// HasDomainSignal reports whether the text names anything heritage-related.
func (t Terms) HasDomainSignal() bool {
	if len(t.Items) > 0 || len(t.Regions) > 0 || len(t.Formats) > 0 {
		return true
	}
	for _, tok := range t.Tokens {
		if DomainWords[tok] {
			return true
		}
	}
	return false
}

// ExtractTerms scans text for vocabulary terms.
func ExtractTerms(text string) Terms {
	tokens := Tokenize(text)
	var out Terms

	type hit struct {
		pos    int
		phrase string
	}
	var hits []hit
	consumed := make([]bool, len(tokens))

	// Two-word phrases are matched before single words.
	for n := 2; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			if anyConsumed(consumed[i : i+n]) {
				continue
			}
			phrase := strings.Join(tokens[i:i+n], " ")
			_, isItem := Items[phrase]
			_, isRegion := Regions[phrase]
			if !isItem && !isRegion {
				continue
			}
			hits = append(hits, hit{pos: i, phrase: phrase})
			for j := i; j < i+n; j++ {
				consumed[j] = true
			}
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	seenItem, seenRegion, seenFormat := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, h := range hits {
		out.Phrases = append(out.Phrases, h.phrase)
		if item, ok := Items[h.phrase]; ok && !seenItem[item] {
			seenItem[item] = true
			out.Items = append(out.Items, item)
		}
		if region, ok := Regions[h.phrase]; ok && !seenRegion[region] {
			seenRegion[region] = true
			out.Regions = append(out.Regions, region)
		}
	}

	for _, tok := range tokens {
		if format, ok := MediaFormats[tok]; ok && !seenFormat[format] {
			seenFormat[format] = true
			out.Formats = append(out.Formats, format)
		}
		if StopWords[tok] || VagueWords[tok] {
			continue
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}

// SalientTerm picks the single most telling phrase of a query for tag/title filters.
// Item names win over places; otherwise the first content words that are not format words.
func SalientTerm(text string) string {
	terms := ExtractTerms(text)
	for _, phrase := range terms.Phrases {
		if _, ok := Items[phrase]; ok {
			return phrase
		}
	}
	if len(terms.Phrases) > 0 {
		return terms.Phrases[0]
	}

	var words []string
	for _, tok := range terms.Tokens {
		if _, isFormat := MediaFormats[tok]; isFormat {
			continue
		}
		if DomainWords[tok] && len(terms.Tokens) > 1 {
			continue
		}
		words = append(words, tok)
		if len(words) == 3 {
			break
		}
	}
	return strings.Join(words, " ")
}

// MediaFormat returns the stored media type named by text, or "".
func MediaFormat(text string) string {
	terms := ExtractTerms(text)
	if len(terms.Formats) == 0 {
		return ""
	}
	return terms.Formats[0]
}

// MeaningfulTokenCount counts content tokens; format words count as meaningful.
func MeaningfulTokenCount(text string) int {
	return len(ExtractTerms(text).Tokens)
}

func anyConsumed(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
