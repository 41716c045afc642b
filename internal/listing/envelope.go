package listing

// QAPagination is the pagination block of the question and answer endpoints.
type QAPagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}

type QAEnvelope[T any] struct {
	Data       []T          `json:"data"`
	Pagination QAPagination `json:"pagination"`
}

func ToQAEnvelope[T any](p Page[T]) QAEnvelope[T] {
	return QAEnvelope[T]{
		Data: p.Items,
		Pagination: QAPagination{
			CurrentPage: p.CurrentPage,
			PerPage:     p.PerPage,
			Total:       p.TotalItems,
			TotalPages:  p.TotalPages,
		},
	}
}

// DirectoryPagination is the pagination block of the member directory endpoints.
type DirectoryPagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type DirectoryEnvelope[T any] struct {
	Users      []T                 `json:"users"`
	Pagination DirectoryPagination `json:"pagination"`
}

func ToDirectoryEnvelope[T any](p Page[T]) DirectoryEnvelope[T] {
	return DirectoryEnvelope[T]{
		Users: p.Items,
		Pagination: DirectoryPagination{
			CurrentPage:  p.CurrentPage,
			TotalPages:   p.TotalPages,
			TotalItems:   p.TotalItems,
			ItemsPerPage: p.PerPage,
		},
	}
}
