package handler

// envelope is the uniform response shape: {success, message, data?}.
// Paginated endpoints additionally carry the total matching count so callers
// can derive page counts.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

func ok(message string, data any) envelope {
	return envelope{Success: true, Message: message, Data: data}
}

func okPage(message string, data any, total int64) envelope {
	return envelope{Success: true, Message: message, Data: data, Total: &total}
}
