package dto

import (
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/executor"
	"heritage-archive-be/pkg/rag/response"
)

type SearchRequest struct {
	Query    string `json:"query" validate:"required,min=1"`
	ThreadId string `json:"thread_id,omitempty"`
}

type SearchMetadata struct {
	QueriesMade   []string              `json:"queries_made"`
	ToolCallCount int                   `json:"tool_calls"`
	Steps         []executor.StepReport `json:"steps"`
}

type SearchResponse struct {
	Intent   rag.IntentKind         `json:"intent"`
	Message  string                 `json:"message,omitempty"`
	Archives []response.ArchiveView `json:"archives"`
	Total    int                    `json:"total"`
	Query    string                 `json:"query"`
	ThreadId string                 `json:"thread_id"`
	Metadata SearchMetadata         `json:"metadata"`
}

type ThreadSnapshotResponse struct {
	ThreadId      string                 `json:"thread_id"`
	QueriesMade   []string               `json:"queries_made"`
	TurnCount     int                    `json:"turn_count"`
	ToolCallCount int                    `json:"tool_call_count"`
	Archives      []response.ArchiveView `json:"archives"`
}
