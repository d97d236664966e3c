package flow

import (
	"context"
	"strings"

	"kudos-bot/catalog"
	"kudos-bot/errs"
	"kudos-bot/model"
	"kudos-bot/store"

	"github.com/google/logger"
	"github.com/google/uuid"
)

type Directory interface {
	ListAll(ctx context.Context) ([]model.Member, error)
	Get(ctx context.Context, id int64) (model.Member, bool, error)
	Register(ctx context.Context, name string, isAdmin bool) (int64, error)
}

type Registry interface {
	Resolve(ctx context.Context, externalID string) (int64, bool, error)
	Bind(ctx context.Context, externalID string, memberID int64) error
	Unbind(ctx context.Context, externalID string) (bool, error)
}

type Ledger interface {
	RecordAward(ctx context.Context, from, to int64, reason string, comment *string) (int64, error)
	AwardsReceived(ctx context.Context, member int64, order store.Order) ([]store.AwardView, error)
	AwardsGiven(ctx context.Context, member int64, order store.Order) ([]store.AwardView, error)
	Recent(ctx context.Context, limit int) ([]store.AwardView, error)
}

type Shop interface {
	Catalog(ctx context.Context) ([]model.ShopItem, error)
	Item(ctx context.Context, key string) (model.ShopItem, error)
	RemainingStock(ctx context.Context, key string) (store.Stock, error)
	Balance(ctx context.Context, member int64) (int, error)
	Purchase(ctx context.Context, member int64, key string) (store.Receipt, error)
	Purchases(ctx context.Context, member int64) ([]model.Purchase, error)
}

const (
	DefaultPageSize = 8
	DefaultFeedSize = 10
)

type Deps struct {
	Members  Directory
	Bindings Registry
	Ledger   Ledger
	Shop     Shop
	Reasons  catalog.Reasons
	Sessions *Sessions
	PageSize int
	FeedSize int
}

// Machine drives the per-session conversation flows.
type Machine struct {
	members  Directory
	bindings Registry
	ledger   Ledger
	shop     Shop
	reasons  catalog.Reasons
	sessions *Sessions
	pageSize int
	feedSize int
}

func New(d Deps) *Machine {
	m := &Machine{
		members:  d.Members,
		bindings: d.Bindings,
		ledger:   d.Ledger,
		shop:     d.Shop,
		reasons:  d.Reasons,
		sessions: d.Sessions,
		pageSize: d.PageSize,
		feedSize: d.FeedSize,
	}
	if m.sessions == nil {
		m.sessions = NewSessions()
	}
	if m.pageSize < 1 {
		m.pageSize = DefaultPageSize
	}
	if m.feedSize < 1 {
		m.feedSize = DefaultFeedSize
	}
	return m
}

func (m *Machine) Sessions() *Sessions {
	return m.sessions
}

// Handle processes one event. Events for the same identity run one at a time.
//
// Domain rejections come back as a Response. A non-nil error means storage
// failed; the session is left exactly as it was before the event.
// A nil Response with a nil error means there is nothing to say.
func (m *Machine) Handle(ctx context.Context, ev Event) (*Response, error) {
	if ev.ID == "" {
		ev.ID = uuid.Must(uuid.NewV7()).String()
	}
	sess, release := m.sessions.Acquire(ev.Identity)
	defer release()

	work := *sess
	resp, err := m.dispatch(ctx, &work, ev)
	if err != nil {
		if !errs.IsDomain(err) {
			logger.Errorf("event %s (%s %s): %v", ev.ID, ev.Identity, ev.Kind, err)
			return nil, err
		}
		logger.Infof("event %s (%s %s) rejected in %s: %v", ev.ID, ev.Identity, ev.Kind, work.State, err)
		resp = recoverFrom(&work, err)
	}
	logger.V(1).Infof("event %s (%s %s): %s -> %s", ev.ID, ev.Identity, ev.Kind, sess.State, work.State)
	*sess = work
	return resp, nil
}

func (m *Machine) dispatch(ctx context.Context, s *Session, ev Event) (*Response, error) {
	switch ev.Kind {
	case KindCommand:
		return m.onCommand(ctx, s, ev.Command)
	case KindChoice:
		return m.onChoice(ctx, s, ev.Choice)
	case KindText:
		return m.onText(ctx, s, ev.Text)
	}
	return nil, errs.Reject(errs.ErrInvalidInput, "unknown event kind %d", ev.Kind)
}

func (m *Machine) onCommand(ctx context.Context, s *Session, name string) (*Response, error) {
	switch strings.ToLower(name) {
	case "start":
		return m.start(ctx, s)
	case "logout":
		return m.logout(ctx, s)
	case "plus", "give":
		return m.bound(ctx, s, func() (*Response, error) { return m.enterRecipient(ctx, s) })
	case "shop":
		return m.bound(ctx, s, func() (*Response, error) { return m.enterShop(ctx, s) })
	case "status":
		return m.bound(ctx, s, func() (*Response, error) { return m.status(ctx, s) })
	case "given":
		return m.bound(ctx, s, func() (*Response, error) { return m.given(ctx, s) })
	case "feed":
		return m.bound(ctx, s, func() (*Response, error) { return m.feed(ctx, s) })
	case "admin":
		return m.bound(ctx, s, func() (*Response, error) { return m.adminMenu(ctx, s) })
	case "cancel":
		return m.bound(ctx, s, func() (*Response, error) {
			s.reset(StateBound)
			return withMenu("Действие отменено."), nil
		})
	}
	return nil, errs.Reject(errs.ErrInvalidInput, "unknown command %q", name)
}

func (m *Machine) onChoice(ctx context.Context, s *Session, c Choice) (*Response, error) {
	switch c.Action {
	case ActSelectSelf:
		return m.onSelectSelf(ctx, s, c)
	case ActSelf:
		return m.onSelf(ctx, s, c)
	case ActChooseUser:
		return m.bound(ctx, s, func() (*Response, error) { return m.onChooseUser(ctx, s, c) })
	case ActReason:
		return m.bound(ctx, s, func() (*Response, error) { return m.onReason(s, c) })
	case ActComment:
		return m.bound(ctx, s, func() (*Response, error) { return m.onComment(ctx, s, c) })
	case ActShop:
		return m.bound(ctx, s, func() (*Response, error) { return m.onShop(ctx, s, c) })
	case ActMenu:
		return m.bound(ctx, s, func() (*Response, error) { return m.onMenu(ctx, s, c) })
	case ActAdmin:
		return m.bound(ctx, s, func() (*Response, error) { return m.onAdmin(ctx, s, c) })
	}
	return nil, errs.Reject(errs.ErrInvalidInput, "unknown action %q", c.Action)
}

// onText is inert unless a step is waiting for free text.
func (m *Machine) onText(ctx context.Context, s *Session, text string) (*Response, error) {
	if !s.expectsText() {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	return m.bound(ctx, s, func() (*Response, error) {
		switch {
		case s.AwaitingMemberName:
			return m.onMemberName(ctx, s, text)
		case s.AwaitingCustomReason:
			return m.onCustomReason(s, text)
		default:
			return m.onCommentText(ctx, s, text)
		}
	})
}

func (m *Machine) onMenu(ctx context.Context, s *Session, c Choice) (*Response, error) {
	switch c.Sub {
	case SubGive:
		return m.enterRecipient(ctx, s)
	case SubStatus:
		return m.status(ctx, s)
	case SubShop:
		return m.enterShop(ctx, s)
	}
	s.reset(StateBound)
	return withMenu("Главное меню:"), nil
}

// identify resolves the member behind the session: cache first, then the registry.
func (m *Machine) identify(ctx context.Context, s *Session) (bool, error) {
	if s.MemberID != 0 {
		return true, nil
	}
	id, ok, err := m.bindings.Resolve(ctx, s.Identity)
	if err != nil || !ok {
		return false, err
	}
	s.MemberID = id
	return true, nil
}

// bound runs fn only for a resolved identity; otherwise it starts self-identification.
func (m *Machine) bound(ctx context.Context, s *Session, fn func() (*Response, error)) (*Response, error) {
	ok, err := m.identify(ctx, s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return m.enterSelfChoice(ctx, s, "Сначала выбери себя из списка:")
	}
	return fn()
}

// recoverFrom returns the session to its nearest stable state and explains why.
func recoverFrom(s *Session, err error) *Response {
	var text string
	switch {
	case errs.Is(err, errs.ErrPreconditionLost):
		text = "Что-то пошло не так, начни заново 🙏"
	case errs.Is(err, errs.ErrNotFound):
		text = "Не нашёл такого участника или товара."
	case errs.Is(err, errs.ErrConflict):
		text = "❌ Этот пользователь уже занят."
	case errs.Is(err, errs.ErrDuplicateName):
		text = "❌ Такой пользователь уже существует."
	case errs.Is(err, errs.ErrOutOfStock):
		text = "Этот товар закончился."
	case errs.Is(err, errs.ErrInsufficientBalance):
		text = "Недостаточно плюсиков."
	default:
		text = "Не понял запрос."
	}

	if s.MemberID == 0 {
		s.forget()
		return reply(text + "\nИспользуй /start")
	}
	s.reset(StateBound)
	return withMenu(text)
}
