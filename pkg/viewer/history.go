package viewer

import (
	"github.com/samber/lo"

	"inkview/pkg/render"
)

const historySize = 8

// Visit is a page as it was shown.
type Visit struct {
	Page   int
	Params render.Params
}

// History keeps the last few pages shown, oldest first.
type History struct {
	max   int
	items []Visit
}

func NewHistory(max int) *History {
	return &History{max: max}
}

func (h *History) Push(item Visit) {
	h.items = append(h.items, item)
	if len(h.items) > h.max {
		h.items = h.items[1:]
	}
}

func (h *History) Visits() []Visit {
	return h.items
}

func (h *History) Curr() (Visit, bool) {
	v, err := lo.Last(h.items)
	return v, err == nil
}

func (h *History) Prev() (Visit, bool) {
	v, err := lo.Nth(h.items, -2)
	return v, err == nil
}

// Pop drops the current visit and the one before it, returning the latter.
func (h *History) Pop() (Visit, bool) {
	prev, ok := h.Prev()
	if !ok {
		return Visit{}, false
	}
	h.items = h.items[:len(h.items)-2]
	return prev, true
}
