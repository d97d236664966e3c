package flow

import (
	"context"
	"fmt"
	"strings"

	"kudos-bot/errs"
	"kudos-bot/model"
	"kudos-bot/store"
)

func (m *Machine) status(ctx context.Context, s *Session) (*Response, error) {
	received, err := m.ledger.AwardsReceived(ctx, s.MemberID, store.NewestFirst)
	if err != nil {
		return nil, err
	}
	bal, err := m.shop.Balance(ctx, s.MemberID)
	if err != nil {
		return nil, err
	}
	purchases, err := m.shop.Purchases(ctx, s.MemberID)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)

	var b strings.Builder
	if len(received) == 0 {
		b.WriteString("У тебя пока нет плюсиков 🙂")
	} else {
		fmt.Fprintf(&b, "🌟 Твои плюсики (%d):", len(received))
		for _, a := range received {
			fmt.Fprintf(&b, "\n• %s — от %s", a.Reason, a.FromName)
			if a.Comment != nil {
				fmt.Fprintf(&b, "\n   💬 %s", *a.Comment)
			}
		}
	}
	fmt.Fprintf(&b, "\n\n💰 Баланс: %d", bal)
	writePurchases(&b, purchases)
	return withMenu(b.String()), nil
}

func writePurchases(b *strings.Builder, purchases []model.Purchase) {
	if len(purchases) == 0 {
		return
	}
	b.WriteString("\n\n🛍 Покупки:")
	for _, p := range purchases {
		fmt.Fprintf(b, "\n• %s — %d", p.ItemName, p.Price)
	}
}

func (m *Machine) given(ctx context.Context, s *Session) (*Response, error) {
	given, err := m.ledger.AwardsGiven(ctx, s.MemberID, store.NewestFirst)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)
	if len(given) == 0 {
		return withMenu("Ты ещё никому не ставил плюсики."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🤝 Ты поставил плюсиков: %d", len(given))
	for _, a := range given {
		fmt.Fprintf(&b, "\n• %s — %s", a.ToName, a.Reason)
	}
	return withMenu(b.String()), nil
}

func (m *Machine) feed(ctx context.Context, s *Session) (*Response, error) {
	recent, err := m.ledger.Recent(ctx, m.feedSize)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)
	if len(recent) == 0 {
		return withMenu("Пока никто не ставил плюсиков."), nil
	}

	var b strings.Builder
	b.WriteString("📰 Последние плюсики:")
	for _, a := range recent {
		fmt.Fprintf(&b, "\n• %s → %s: %s", a.FromName, a.ToName, a.Reason)
	}
	return withMenu(b.String()), nil
}

// --- Admin ---

func adminRows() [][]Button {
	return [][]Button{
		{button("👤 Добавить участника", NewChoice(ActAdmin, SubAddMember, nil))},
		{button("📋 Участники", NewChoice(ActAdmin, SubMembers, nil))},
		backRow(),
	}
}

func (m *Machine) isAdmin(ctx context.Context, s *Session) (bool, error) {
	member, found, err := m.members.Get(ctx, s.MemberID)
	if err != nil {
		return false, err
	}
	return found && member.IsAdmin, nil
}

func notAdmin(s *Session) *Response {
	s.reset(StateBound)
	return withMenu("⛔ Эта команда только для администраторов.")
}

func (m *Machine) adminMenu(ctx context.Context, s *Session) (*Response, error) {
	admin, err := m.isAdmin(ctx, s)
	if err != nil {
		return nil, err
	}
	if !admin {
		return notAdmin(s), nil
	}
	s.reset(StateBound)
	return reply("Админ-меню:", adminRows()...), nil
}

func (m *Machine) onAdmin(ctx context.Context, s *Session, c Choice) (*Response, error) {
	admin, err := m.isAdmin(ctx, s)
	if err != nil {
		return nil, err
	}
	if !admin {
		return notAdmin(s), nil
	}

	if c.Sub == SubAddMember {
		s.reset(StateMemberName)
		s.AwaitingMemberName = true
		return reply("Введи имя нового участника:"), nil
	}

	members, err := m.members.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Участники (%d):", len(members))
	for _, mem := range members {
		fmt.Fprintf(&b, "\n%d. %s", mem.ID, mem.Name)
		if mem.IsAdmin {
			b.WriteString(" (админ)")
		}
	}
	return reply(b.String(), adminRows()...), nil
}

func (m *Machine) onMemberName(ctx context.Context, s *Session, name string) (*Response, error) {
	admin, err := m.isAdmin(ctx, s)
	if err != nil {
		return nil, err
	}
	if !admin {
		return notAdmin(s), nil
	}

	id, err := m.members.Register(ctx, name, false)
	switch {
	case errs.Is(err, errs.ErrInvalidInput):
		return reply("Имя должно быть хотя бы из 2 символов."), nil
	case errs.Is(err, errs.ErrDuplicateName):
		return reply(fmt.Sprintf("❌ Пользователь '%s' уже существует.", name)), nil
	case err != nil:
		return nil, err
	}

	s.reset(StateBound)
	return reply(fmt.Sprintf("✅ Пользователь '%s' добавлен (ID: %d).", name, id), adminRows()...), nil
}
