package httputil

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse is the JSON envelope for paginated list endpoints.
type PaginatedResponse struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// NewPaginatedResponse builds a paginated envelope for the given page of data.
func NewPaginatedResponse(data any, total, page, perPage int) PaginatedResponse {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return PaginatedResponse{
		Data: data,
		Meta: PaginationMeta{
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
		},
	}
}
