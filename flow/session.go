package flow

import (
	"strings"
	"sync"
	"time"

	"kudos-bot/errs"
)

type State int

const (
	StateUnbound State = iota
	StateSelfChoice
	StateSelfConfirm
	StateBound
	StateRecipient
	StateReason
	StateCustomReason
	StateCommentChoice
	StateCommentText
	StateItemChoice
	StatePurchaseConfirm
	StateMemberName
)

var stateNames = [...]string{
	StateUnbound:         "Unbound",
	StateSelfChoice:      "AwaitingSelfChoice",
	StateSelfConfirm:     "AwaitingSelfConfirm",
	StateBound:           "Bound",
	StateRecipient:       "AwaitingRecipient",
	StateReason:          "AwaitingReason",
	StateCustomReason:    "AwaitingCustomReasonText",
	StateCommentChoice:   "AwaitingCommentChoice",
	StateCommentText:     "AwaitingCommentText",
	StateItemChoice:      "AwaitingItemChoice",
	StatePurchaseConfirm: "AwaitingPurchaseConfirm",
	StateMemberName:      "AwaitingMemberName",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}

// Session is the ephemeral per-identity state. It is never persisted.
type Session struct {
	Identity string
	MemberID int64 // cached identity, 0 when unresolved
	State    State

	PendingSelfID  int64
	PlusTo         int64
	PendingReason  string
	PendingBuyItem string

	AwaitingCustomReason bool
	AwaitingComment      bool
	AwaitingMemberName   bool
}

// reset drops all flow scratch and moves to state. The cached identity stays.
func (s *Session) reset(state State) {
	*s = Session{Identity: s.Identity, MemberID: s.MemberID, State: state}
}

// forget drops everything including the cached identity.
func (s *Session) forget() {
	*s = Session{Identity: s.Identity, State: StateUnbound}
}

func (s *Session) expectsText() bool {
	return s.AwaitingCustomReason || s.AwaitingComment || s.AwaitingMemberName
}

// need is a set of scratch fields a step depends on.
type need uint8

const (
	needSelf need = 1 << iota
	needRecipient
	needReason
	needItem
)

func (s *Session) require(n need) error {
	var missing []string
	if n&needSelf != 0 && s.PendingSelfID == 0 {
		missing = append(missing, "pending_self_id")
	}
	if n&needRecipient != 0 && s.PlusTo == 0 {
		missing = append(missing, "plus_to")
	}
	if n&needReason != 0 && s.PendingReason == "" {
		missing = append(missing, "pending_reason")
	}
	if n&needItem != 0 && s.PendingBuyItem == "" {
		missing = append(missing, "pending_buy_item")
	}
	if len(missing) > 0 {
		return errs.Reject(errs.ErrPreconditionLost, "%s: missing %s", s.State, strings.Join(missing, ", "))
	}
	return nil
}

// Sessions owns every live Session and serializes events per identity.
type Sessions struct {
	mu    sync.Mutex
	slots map[string]*slot
	now   func() time.Time
}

type slot struct {
	mu         sync.Mutex // held while an event for this identity runs
	sess       Session
	refs       int // holders and waiters, guarded by Sessions.mu
	lastActive time.Time
}

func NewSessions() *Sessions {
	return &Sessions{slots: make(map[string]*slot), now: time.Now}
}

// Acquire locks the session for identity, creating it on first use.
// The caller must call release exactly once.
func (s *Sessions) Acquire(identity string) (sess *Session, release func()) {
	s.mu.Lock()
	sl, ok := s.slots[identity]
	if !ok {
		sl = &slot{sess: Session{Identity: identity}}
		s.slots[identity] = sl
	}
	sl.refs++
	s.mu.Unlock()

	sl.mu.Lock()
	return &sl.sess, func() {
		sl.mu.Unlock()
		s.mu.Lock()
		sl.refs--
		sl.lastActive = s.now()
		s.mu.Unlock()
	}
}

// Peek returns a copy of the session, if any. For tests and diagnostics.
func (s *Sessions) Peek(identity string) (Session, bool) {
	s.mu.Lock()
	sl, ok := s.slots[identity]
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.sess, true
}

// CleanUpInactive removes sessions idle for longer than maxIdle and returns how many.
func (s *Sessions) CleanUpInactive(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sl := range s.slots {
		if sl.refs == 0 && now.Sub(sl.lastActive) > maxIdle {
			delete(s.slots, id)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
