package prompt

import (
	"strings"
)

// ArchiveMetadata is what the uploader told us about the materials.
type ArchiveMetadata struct {
	Title       string
	Description string
	MediaTypes  []string
	Tags        []string
}

var mediaGuidance = map[string]string{
	"image": "Images: describe composition, objects, people, settings, readable text, colours, motifs and symbols. " +
		"Note the style (photograph, illustration, diagram) and the likely purpose.",
	"video": "Videos: describe scenes, actions, dialogue or narration, music, participants, settings and the key moments in order.",
	"audio": "Audio: describe speakers, topics, tone, music or instruments, background sounds and notable quotes.",
	"document": "Documents: extract headings, main topics, names, organizations, dates, figures and conclusions. " +
		"Identify the document type.",
}

var mediaOrder = []string{"image", "video", "audio", "document"}

// AnalysisBuilder builds the multimodal summarization prompt for an uploaded archive.
// The summary it asks for is what gets embedded, so it favours concrete names, places and dates.
type AnalysisBuilder struct {
	meta ArchiveMetadata
}

func NewAnalysisBuilder(meta ArchiveMetadata) *AnalysisBuilder {
	return &AnalysisBuilder{meta: meta}
}

func (b *AnalysisBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeContext(&prompt)
	b.writeMediaGuidance(&prompt)
	b.writeGuidelines(&prompt)
	b.writeOutputFormat(&prompt)

	return prompt.String()
}

func (b *AnalysisBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a cultural heritage archivist analysing uploaded materials for a Malaysian heritage archive.\n")
	prompt.WriteString("Produce a detailed, self-contained summary of everything the materials contain.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *AnalysisBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<archive_context>\n")
	prompt.WriteString("Title: " + b.meta.Title + "\n")
	prompt.WriteString("Media types: " + strings.Join(b.meta.MediaTypes, ", ") + "\n")

	tags := "None provided"
	if len(b.meta.Tags) > 0 {
		tags = strings.Join(b.meta.Tags, ", ")
	}
	prompt.WriteString("Tags: " + tags + "\n")

	description := "Not provided"
	if strings.TrimSpace(b.meta.Description) != "" {
		description = b.meta.Description
	}
	prompt.WriteString("Description: " + description + "\n")
	prompt.WriteString("</archive_context>\n\n")
}

func (b *AnalysisBuilder) writeMediaGuidance(prompt *strings.Builder) {
	present := make(map[string]bool, len(b.meta.MediaTypes))
	for _, m := range b.meta.MediaTypes {
		present[strings.ToLower(m)] = true
	}

	prompt.WriteString("<media_guidance>\n")
	wrote := false
	for _, m := range mediaOrder {
		if present[m] {
			prompt.WriteString("- " + mediaGuidance[m] + "\n")
			wrote = true
		}
	}
	if !wrote {
		prompt.WriteString("- Analyse every file comprehensively.\n")
	}
	prompt.WriteString("</media_guidance>\n\n")
}

func (b *AnalysisBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Analyse all files; when there are several, note how they relate\n")
	prompt.WriteString("2. Extract names of people, places, crafts, ethnic groups and organizations\n")
	prompt.WriteString("3. Extract dates, periods and any numbers or measurements\n")
	prompt.WriteString("4. Note the cultural, historical and regional context\n")
	prompt.WriteString("5. Separate what is stated from what is inferred\n")
	prompt.WriteString("6. Use the title, tags and description as hints, but prioritise the actual content\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *AnalysisBuilder) writeOutputFormat(prompt *strings.Builder) {
	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Plain prose with short headed sections:\n")
	prompt.WriteString("- Overview (2-3 sentences)\n")
	prompt.WriteString("- Detailed content\n")
	prompt.WriteString("- Key facts (people, places, dates)\n")
	prompt.WriteString("- Cultural context\n")
	prompt.WriteString("Typically 500-1500 words.\n")
	prompt.WriteString("</output_format>\n\n")
	prompt.WriteString("Begin the summary now:")
}
