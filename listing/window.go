package listing

// WindowSize is the maximum number of page links shown at once.
const WindowSize = 5

// PageWindow returns the page numbers to link to when page of total is
// current: at most WindowSize pages, centred on page where possible and
// shifted to keep the full width near either edge.
func PageWindow(page, total int) []int {
	if total < 1 {
		return nil
	}
	start := max(1, page-2)
	end := min(total, start+WindowSize-1)
	if end-start+1 < WindowSize {
		start = max(1, end-WindowSize+1)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
