package service

// Page sizes per listing.
const (
	FeedPageSize       = 10
	MaxPageSize        = 100
	ProfilePageSize    = 5
	CommentPageSize    = 6
	CommentPreviewSize = 2
	SearchLimit        = 20
	SuggestionLimit    = 10
	MaxSuggestionLimit = 50
)

// PageRequest is a normalized 1-indexed page.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest clamps page to >= 1 and size into [1, MaxPageSize], using
// def when size is not positive.
func NewPageRequest(page, size, def int) PageRequest {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
