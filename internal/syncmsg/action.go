package syncmsg

import "fmt"

// Action is the per-file classification of a reconciliation pass and the verb of a directive.
type Action uint8

const (
	ActionPass Action = iota
	ActionCreate
	ActionEdit
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionCreate:
		return "create"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("???(%d)", a)
	}
}

// ParseAction is the inverse of String. Unknown names are an error, never a silent Pass.
func ParseAction(s string) (Action, error) {
	switch s {
	case "pass":
		return ActionPass, nil
	case "create":
		return ActionCreate, nil
	case "edit":
		return ActionEdit, nil
	case "delete":
		return ActionDelete, nil
	default:
		return ActionPass, fmt.Errorf("unknown action %q", s)
	}
}

// IsWrite reports whether the action carries file contents
func (a Action) IsWrite() bool {
	return a == ActionCreate || a == ActionEdit
}

func (a Action) MarshalText() ([]byte, error) {
	if a > ActionDelete {
		return nil, fmt.Errorf("invalid action %d", a)
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
