package model

import "time"

// AuditLog captures one webhook/API request end to end
type AuditLog struct {
	ID           string                 `json:"id" db:"id"`
	Method       string                 `json:"method" db:"method"`
	Path         string                 `json:"path" db:"path"`
	IP           string                 `json:"ip" db:"ip"`
	UserAgent    string                 `json:"user_agent" db:"user_agent"`
	RequestBody  string                 `json:"request_body" db:"request_body"`
	StatusCode   int                    `json:"status_code" db:"status_code"`
	ResponseBody string                 `json:"response_body" db:"response_body"`
	LatencyMs    int64                  `json:"latency_ms" db:"latency_ms"`
	Context      map[string]interface{} `json:"context" db:"-"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
