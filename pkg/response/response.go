package response

import "backend/pkg/pagination"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// PageData wraps list payloads with their pagination envelope
type PageData struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Paginated returns a success response carrying a page of items
func Paginated(statusCode int, items interface{}, page, limit int, total int64) Response {
	return Success(statusCode, PageData{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pagination.Pages(limit, total),
	})
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
