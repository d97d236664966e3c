package flow

import (
	"strconv"
	"strings"

	"kudos-bot/errs"
)

type Kind int

const (
	KindCommand Kind = iota + 1
	KindChoice
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindChoice:
		return "choice"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Event is one inbound interaction from an external identity.
type Event struct {
	ID       string // trace id, assigned by Handle when empty
	Identity string
	Kind     Kind
	Command  string
	Choice   Choice
	Text     string
}

func CommandEvent(identity, name string) Event {
	return Event{Identity: identity, Kind: KindCommand, Command: strings.TrimPrefix(name, "/")}
}

func ChoiceEvent(identity string, c Choice) Event {
	return Event{Identity: identity, Kind: KindChoice, Choice: c}
}

func TextEvent(identity, text string) Event {
	return Event{Identity: identity, Kind: KindText, Text: text}
}

type Action string

const (
	ActSelectSelf Action = "select_self"
	ActSelf       Action = "self"
	ActChooseUser Action = "choose_user"
	ActReason     Action = "reason"
	ActComment    Action = "comment"
	ActShop       Action = "shop"
	ActMenu       Action = "menu"
	ActAdmin      Action = "admin"
)

// Subactions.
const (
	SubUser      = "user"
	SubPage      = "page"
	SubConfirm   = "confirm"
	SubCancel    = "cancel"
	SubPick      = "pick"
	SubAdd       = "add"
	SubSkip      = "skip"
	SubItem      = "item"
	SubGive      = "give"
	SubStatus    = "status"
	SubShop      = "shop"
	SubBack      = "back"
	SubAddMember = "add_member"
	SubMembers   = "members"
)

var grammar = map[Action][]string{
	ActSelectSelf: {SubUser, SubPage},
	ActSelf:       {SubConfirm, SubCancel},
	ActChooseUser: {SubUser, SubPage},
	ActReason:     {SubPick},
	ActComment:    {SubAdd, SubSkip},
	ActShop:       {SubItem, SubConfirm, SubCancel},
	ActMenu:       {SubGive, SubStatus, SubShop, SubBack},
	ActAdmin:      {SubAddMember, SubMembers},
}

// Choice is a parsed button payload "<action>:<subaction>:<id>".
type Choice struct {
	Action Action
	Sub    string
	ID     string
}

func NewChoice(action Action, sub string, id any) Choice {
	c := Choice{Action: action, Sub: sub}
	switch v := id.(type) {
	case nil:
	case string:
		c.ID = v
	case int:
		c.ID = strconv.Itoa(v)
	case int64:
		c.ID = strconv.FormatInt(v, 10)
	}
	return c
}

func (c Choice) Payload() string {
	return string(c.Action) + ":" + c.Sub + ":" + c.ID
}

// ParseChoice validates payload against the known actions once, at the boundary.
func ParseChoice(payload string) (Choice, error) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return Choice{}, errs.Reject(errs.ErrInvalidInput, "malformed payload %q", payload)
	}
	c := Choice{Action: Action(parts[0]), Sub: parts[1], ID: parts[2]}

	subs, ok := grammar[c.Action]
	if !ok {
		return Choice{}, errs.Reject(errs.ErrInvalidInput, "unknown action %q", parts[0])
	}
	for _, s := range subs {
		if s == c.Sub {
			return c, nil
		}
	}
	return Choice{}, errs.Reject(errs.ErrInvalidInput, "unknown subaction %q for %q", c.Sub, c.Action)
}

// Int parses the id as a number.
func (c Choice) Int() (int64, error) {
	n, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil {
		return 0, errs.Reject(errs.ErrInvalidInput, "payload %q: id is not a number", c.Payload())
	}
	return n, nil
}
