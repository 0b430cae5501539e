package jira

import "strings"

// FieldKind is the typed meaning of a changelog field.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldStatus
	FieldStoryPoints
	FieldSprint
)

func (k FieldKind) String() string {
	switch k {
	case FieldStatus:
		return "status"
	case FieldStoryPoints:
		return "story-points"
	case FieldSprint:
		return "sprint"
	default:
		return "other"
	}
}

// DefaultPointsField is the story point custom field on the boards this tool was built for.
const DefaultPointsField = "customfield_10002"

var storyPointNames = map[string]bool{
	"story points":         true,
	"story point estimate": true,
}

// ResolveField maps a changelog item's field name variants to a FieldKind.
// pointsField is the configured story point custom field id.
func ResolveField(item ItemDTO, pointsField string) FieldKind {
	name := strings.ToLower(strings.TrimSpace(item.Field))
	switch {
	case name == "status":
		return FieldStatus
	case name == "sprint":
		return FieldSprint
	case storyPointNames[name]:
		return FieldStoryPoints
	case pointsField != "" && (strings.EqualFold(item.Field, pointsField) || strings.EqualFold(item.FieldID, pointsField)):
		return FieldStoryPoints
	}
	return FieldOther
}
