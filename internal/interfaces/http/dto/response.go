package dto

// ErrorDetail is one field or line level failure
type ErrorDetail struct {
	Field     string `json:"field,omitempty"`
	Line      *int   `json:"line,omitempty"`
	ProductID string `json:"productId,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	OK        bool          `json:"ok"`
	Message   string        `json:"message"`
	Code      string        `json:"code"`
	Errors    []ErrorDetail `json:"errors,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
}

// NewErrorResponse creates a failure envelope
func NewErrorResponse(code, message string, details ...ErrorDetail) ErrorResponse {
	return ErrorResponse{
		OK:      false,
		Message: message,
		Code:    code,
		Errors:  details,
	}
}

// Payload is the body of a success envelope. Its keys are merged next to "ok".
type Payload map[string]any

// NewSuccessResponse builds {"ok": true, ...payload}
func NewSuccessResponse(payload Payload) map[string]any {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["ok"] = true
	return body
}

// Pagination carries list metadata
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total items
func NewPagination(total int64, page, pageSize int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Pagination{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
