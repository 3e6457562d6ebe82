package catalog

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// Page is an offset window over a category listing.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// NewPage clamps the requested page: numbers start at 1 and out of range
// sizes fall back to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
