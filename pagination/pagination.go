package pagination

import "strconv"

// PageSize is the fixed number of posts shown on a page.
const PageSize = 10

// Page describes one slice of an ordered collection. Offset and Size feed
// straight into a LIMIT/OFFSET query.
type Page struct {
	Number     int
	Size       int
	TotalPages int
	Offset     int
	HasNext    bool
	HasPrev    bool
}

// Requested parses the raw ?page= value on its own, without clamping against
// a collection. A missing or unparsable value is the first page. The cached
// feed keys its entries on this number so the lookup needs no count query.
func Requested(pageParam string) int {
	number, err := strconv.Atoi(pageParam)
	if err != nil || number < 1 {
		return 1
	}
	return number
}

// Paginate resolves the raw ?page= value against a collection of total items.
// Page numbers are 1-based. A missing or unparsable value falls back to the
// first page, a number beyond the last page clamps to the last page. It never
// fails: every input maps to some valid page.
func Paginate(total int, pageParam string) Page {
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	number := Requested(pageParam)
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		Size:       PageSize,
		TotalPages: totalPages,
		Offset:     (number - 1) * PageSize,
		HasNext:    number < totalPages,
		HasPrev:    number > 1,
	}
}

// PrevNumber and NextNumber are used by the pager template links.
func (p Page) PrevNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int { return p.Number + 1 }
