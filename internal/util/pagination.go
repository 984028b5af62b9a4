package util

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

func Paginate(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: page, Size: size}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
