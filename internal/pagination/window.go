package pagination

import "math"

// MaxPage keeps Skip within a Postgres integer OFFSET.
const MaxPage = math.MaxInt32 / MaxLimit

// Offset describes a numbered page of an admin table.
type Offset struct {
	Page     int
	PageSize int
}

// NewOffset clamps page to [1, MaxPage] and the size to [1, MaxLimit].
func NewOffset(page, pageSize int) Offset {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return Offset{Page: page, PageSize: NormalizeLimit(pageSize)}
}

// Skip is the SQL OFFSET for the page.
func (o Offset) Skip() int {
	return (o.Page - 1) * o.PageSize
}

// TotalPages rounds up, zero rows give zero pages.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Link is one entry of a pagination bar. Ellipsis entries carry no number.
type Link struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Window lists the links a pagination bar renders: first and last page,
// siblings pages around current and an ellipsis for every gap wider than
// one page. A one-page gap is filled with that page.
func Window(current, total, siblings int) []Link {
	if total <= 0 {
		return nil
	}
	if siblings < 0 {
		siblings = 0
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	start := max(current-siblings, 1)
	end := min(current+siblings, total)

	links := make([]Link, 0, end-start+5)
	add := func(n int) {
		links = append(links, Link{Number: n, Current: n == current})
	}

	if start > 1 {
		add(1)
		switch {
		case start == 3:
			add(2)
		case start > 3:
			links = append(links, Link{Ellipsis: true})
		}
	}

	for n := start; n <= end; n++ {
		add(n)
	}

	if end < total {
		switch {
		case end == total-2:
			add(total - 1)
		case end < total-2:
			links = append(links, Link{Ellipsis: true})
		}
		add(total)
	}

	return links
}

// Meta is the pagination block returned next to admin table rows.
type Meta struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Links      []Link `json:"links"`
}

// NewMeta assembles Meta with a window of one sibling on each side.
func NewMeta(o Offset, total int) Meta {
	pages := TotalPages(total, o.PageSize)
	return Meta{
		Page:       o.Page,
		PageSize:   o.PageSize,
		Total:      total,
		TotalPages: pages,
		Links:      Window(o.Page, pages, 1),
	}
}
