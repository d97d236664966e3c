package flow

import (
	"kudos-bot/model"
)

// pageOf returns the page-th window of items. ok is false when page is out of range;
// page 0 of an empty list is valid.
func pageOf[T any](items []T, page, size int) (window []T, hasNext bool, ok bool) {
	if page < 0 || size < 1 || page > len(items)/size {
		return nil, false, false
	}
	start := page * size
	if start >= len(items) && !(page == 0 && len(items) == 0) {
		return nil, false, false
	}
	end := min(start+size, len(items))
	return items[start:end], end < len(items), true
}

// memberRows renders one member per row plus a navigation row.
func memberRows(members []model.Member, page, size int, action Action, back bool) ([][]Button, bool) {
	window, hasNext, ok := pageOf(members, page, size)
	if !ok {
		return nil, false
	}

	rows := make([][]Button, 0, len(window)+2)
	for _, mem := range window {
		rows = append(rows, []Button{button(mem.Name, NewChoice(action, SubUser, mem.ID))})
	}

	var nav []Button
	if page > 0 {
		nav = append(nav, button("⬅️", NewChoice(action, SubPage, page-1)))
	}
	if hasNext {
		nav = append(nav, button("➡️", NewChoice(action, SubPage, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	if back {
		rows = append(rows, backRow())
	}
	return rows, true
}

func without(members []model.Member, id int64) []model.Member {
	out := make([]model.Member, 0, len(members))
	for _, mem := range members {
		if mem.ID != id {
			out = append(out, mem)
		}
	}
	return out
}
