package flow

import (
	"context"
	"fmt"

	"kudos-bot/errs"
)

func (m *Machine) start(ctx context.Context, s *Session) (*Response, error) {
	ok, err := m.identify(ctx, s)
	if err != nil {
		return nil, err
	}
	if ok {
		s.reset(StateBound)
		return withMenu("С возвращением! 👋"), nil
	}
	return m.enterSelfChoice(ctx, s, "Выбери себя из списка:")
}

func (m *Machine) logout(ctx context.Context, s *Session) (*Response, error) {
	removed, err := m.bindings.Unbind(ctx, s.Identity)
	if err != nil {
		return nil, err
	}
	s.forget()
	if !removed {
		return reply("Ты и так не вошёл. Используй /start для входа."), nil
	}
	return reply("Вы вышли. Используй /start для входа."), nil
}

func (m *Machine) enterSelfChoice(ctx context.Context, s *Session, text string) (*Response, error) {
	members, err := m.members.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.forget()
	if len(members) == 0 {
		return reply("Список участников пока пуст. Попроси администратора добавить тебя."), nil
	}
	rows, _ := memberRows(members, 0, m.pageSize, ActSelectSelf, false)
	s.State = StateSelfChoice
	return reply(text, rows...), nil
}

func (m *Machine) onSelectSelf(ctx context.Context, s *Session, c Choice) (*Response, error) {
	ok, err := m.identify(ctx, s)
	if err != nil {
		return nil, err
	}
	if ok {
		s.reset(StateBound)
		return withMenu("Ты уже вошёл. Чтобы сменить пользователя, используй /logout."), nil
	}

	id, err := c.Int()
	if err != nil {
		return nil, err
	}

	if c.Sub == SubPage {
		members, err := m.members.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		rows, ok := memberRows(members, int(id), m.pageSize, ActSelectSelf, false)
		if !ok {
			return nil, nil
		}
		s.reset(StateSelfChoice)
		return &Response{Text: "Выбери себя из списка:", Choices: rows, Edit: true}, nil
	}

	member, found, err := m.members.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Reject(errs.ErrNotFound, "member %d", id)
	}

	s.reset(StateSelfConfirm)
	s.PendingSelfID = member.ID
	return reply(fmt.Sprintf("Подтверди, что ты — %s:", member.Name),
		[]Button{button("✅ Да, это я", NewChoice(ActSelf, SubConfirm, member.ID))},
		[]Button{button("❌ Нет, вернуться", NewChoice(ActSelf, SubCancel, member.ID))},
	), nil
}

func (m *Machine) onSelf(ctx context.Context, s *Session, c Choice) (*Response, error) {
	if c.Sub == SubCancel {
		s.forget()
		return reply("Выбор отменён. Используй /start"), nil
	}

	if err := s.require(needSelf); err != nil {
		return nil, err
	}
	if id, err := c.Int(); err != nil || id != s.PendingSelfID {
		return nil, errs.Reject(errs.ErrPreconditionLost, "confirm %q does not match pending %d", c.ID, s.PendingSelfID)
	}

	memberID := s.PendingSelfID
	err := m.bindings.Bind(ctx, s.Identity, memberID)
	if errs.Is(err, errs.ErrConflict) {
		return m.bindConflict(ctx, s)
	}
	if err != nil {
		return nil, err
	}

	s.reset(StateBound)
	s.MemberID = memberID
	return withMenu("✅ Ты успешно вошёл!"), nil
}

// bindConflict handles a lost race for a member, or an identity bound elsewhere.
func (m *Machine) bindConflict(ctx context.Context, s *Session) (*Response, error) {
	s.forget()
	ok, err := m.identify(ctx, s)
	if err != nil {
		return nil, err
	}
	if ok {
		s.reset(StateBound)
		return withMenu("Ты уже вошёл под другим пользователем. Чтобы сменить его, используй /logout."), nil
	}
	return m.enterSelfChoice(ctx, s, "❌ Этот пользователь уже занят. Выбери себя из списка:")
}
