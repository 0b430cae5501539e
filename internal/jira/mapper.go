package jira

import (
	"slices"
)

// MapIssue transforms a Jira DTO into a domain Issue.
// History entries with unparseable timestamps are dropped and the rest are
// sorted ascending, keeping the API order for identical timestamps.
func MapIssue(item IssueDTO, pointsField string) Issue {
	if pointsField == "" {
		pointsField = DefaultPointsField
	}

	issue := Issue{
		Key:       item.Key,
		IssueType: item.Fields.IssueType.Name,
		Status:    item.Fields.Status.Name,
		Created:   ParseOptionalTime(item.Fields.Created),
		Resolved:  ParseOptionalTime(item.Fields.ResolutionDate),
		Labels:    item.Fields.Labels,
		Flagged:   item.Fields.IsFlagged(),
	}
	if item.Fields.Parent != nil {
		issue.ParentKey = item.Fields.Parent.Key
	}
	if pts, ok := item.Fields.Number(pointsField); ok && pts > 0 {
		issue.Points = pts
	}

	if item.Changelog != nil {
		issue.History = MapHistory(item.Changelog.Histories, pointsField)
	}
	return issue
}

// MapHistory converts changelog histories into typed, chronologically sorted changes.
func MapHistory(histories []HistoryDTO, pointsField string) []Change {
	changes := make([]Change, 0, len(histories))
	for _, h := range histories {
		at, err := ParseTime(h.Created)
		if err != nil {
			continue
		}

		items := make([]ChangeItem, 0, len(h.Items))
		for _, itm := range h.Items {
			items = append(items, ChangeItem{
				Kind:       ResolveField(itm, pointsField),
				Field:      itm.Field,
				From:       itm.From,
				FromString: itm.FromString,
				To:         itm.To,
				ToString:   itm.ToString,
			})
		}
		changes = append(changes, Change{At: at, Items: items})
	}

	slices.SortStableFunc(changes, func(a, b Change) int {
		return a.At.Compare(b.At)
	})
	return changes
}
