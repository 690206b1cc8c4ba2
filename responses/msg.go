package responses

type Message struct {
	Type    string `json:"type"` // "error", "ok"
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"` // application-level logic code
}

// Application-level codes carried in Message.Code
const (
	CodeInvalidInput = 1001
	CodeThrottled    = 1002
	CodeUnauthorized = 1003
	CodeNotFound     = 1004
	CodeUpstream     = 1005
)
