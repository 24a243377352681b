// FILE: internal/dto/admin_log_dto.go
package dto

// Log ids are MD5 hashes of the raw line, not UUIDs.

type ListLogsRequest struct {
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
	Level    string `query:"level" validate:"omitempty,oneof=debug info warn error"`
	Module   string `query:"module"`
	ThreadId string `query:"thread_id"`
}

type LogListResponse struct {
	Id        string `json:"id"`
	Level     string `json:"level"`
	Module    string `json:"module"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	InstanceId string `json:"instance_id"`
	Clients    int    `json:"ws_clients"`
}
