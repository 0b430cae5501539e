// Package rollup combines per-board sprint series into board group series and
// the display window shown for a selection.
package rollup

import "slices"

// Group is a named set of boards reported as one series.
type Group struct {
	Name   string
	Boards []string
}

// Expansion is a selection resolved into the boards that must be fetched.
type Expansion struct {
	// Boards are the distinct boards to fetch, in selection order.
	Boards []string
	// Groups are the selected groups in selection order.
	Groups []Group
	// BoardToGroups lists, per member board, the selected groups containing it.
	BoardToGroups map[string][]string
}

// Expand resolves a selection of board ids and group names. Entries that name
// a group are replaced by its members; anything else is taken as a board id.
func Expand(selection []string, groups []Group) Expansion {
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}

	exp := Expansion{BoardToGroups: make(map[string][]string)}
	add := func(board string) {
		if board != "" && !slices.Contains(exp.Boards, board) {
			exp.Boards = append(exp.Boards, board)
		}
	}
	for _, sel := range selection {
		g, ok := byName[sel]
		if !ok {
			add(sel)
			continue
		}
		if slices.ContainsFunc(exp.Groups, func(x Group) bool { return x.Name == g.Name }) {
			continue
		}
		exp.Groups = append(exp.Groups, g)
		for _, b := range g.Boards {
			add(b)
			exp.BoardToGroups[b] = append(exp.BoardToGroups[b], g.Name)
		}
	}
	return exp
}

// IsGroup reports whether name is one of the expanded groups.
func (e Expansion) IsGroup(name string) bool {
	return slices.ContainsFunc(e.Groups, func(g Group) bool { return g.Name == name })
}
