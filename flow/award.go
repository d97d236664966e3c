package flow

import (
	"context"
	"unicode/utf8"

	"kudos-bot/catalog"
	"kudos-bot/errs"
	"kudos-bot/store"

	"golang.org/x/text/unicode/norm"
)

const minCustomReasonLen = 3

func (m *Machine) enterRecipient(ctx context.Context, s *Session) (*Response, error) {
	members, err := m.members.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)

	others := without(members, s.MemberID)
	if len(others) == 0 {
		return withMenu("Пока некому ставить плюсики 🙂"), nil
	}
	rows, _ := memberRows(others, 0, m.pageSize, ActChooseUser, true)
	s.State = StateRecipient
	return reply("Кому поставить плюсик?", rows...), nil
}

func (m *Machine) onChooseUser(ctx context.Context, s *Session, c Choice) (*Response, error) {
	id, err := c.Int()
	if err != nil {
		return nil, err
	}

	if c.Sub == SubPage {
		members, err := m.members.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		rows, ok := memberRows(without(members, s.MemberID), int(id), m.pageSize, ActChooseUser, true)
		if !ok {
			return nil, nil
		}
		s.reset(StateRecipient)
		return &Response{Text: "Кому поставить плюсик?", Choices: rows, Edit: true}, nil
	}

	_, found, err := m.members.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Reject(errs.ErrNotFound, "recipient %d", id)
	}

	s.reset(StateReason)
	s.PlusTo = id
	return reply("За что ставим плюсик?", m.reasonRows()...), nil
}

func (m *Machine) reasonRows() [][]Button {
	rows := make([][]Button, 0, len(m.reasons)+2)
	for _, r := range m.reasons {
		rows = append(rows, []Button{button(r.Text, NewChoice(ActReason, SubPick, r.Key))})
	}
	rows = append(rows, []Button{button("Другое", NewChoice(ActReason, SubPick, catalog.OtherKey))})
	rows = append(rows, backRow())
	return rows
}

func (m *Machine) onReason(s *Session, c Choice) (*Response, error) {
	if err := s.require(needRecipient); err != nil {
		return nil, err
	}
	to := s.PlusTo

	if c.ID == catalog.OtherKey {
		s.reset(StateCustomReason)
		s.PlusTo = to
		s.AwaitingCustomReason = true
		return reply("✍️ Напиши свою причину"), nil
	}

	text, ok := m.reasons.Text(c.ID)
	if !ok {
		return nil, errs.Reject(errs.ErrInvalidInput, "unknown reason %q", c.ID)
	}
	return commentChoice(s, to, text), nil
}

func (m *Machine) onCustomReason(s *Session, text string) (*Response, error) {
	if err := s.require(needRecipient); err != nil {
		return nil, err
	}
	text = norm.NFC.String(text)
	if utf8.RuneCountInString(text) < minCustomReasonLen {
		return reply("Опиши причину чуть подробнее 🙂"), nil
	}
	return commentChoice(s, s.PlusTo, catalog.OtherPrefix+text), nil
}

func commentChoice(s *Session, to int64, reason string) *Response {
	s.reset(StateCommentChoice)
	s.PlusTo = to
	s.PendingReason = reason
	return reply("Хочешь добавить комментарий?",
		[]Button{button("✍️ Добавить комментарий", NewChoice(ActComment, SubAdd, nil))},
		[]Button{button("⏭ Пропустить", NewChoice(ActComment, SubSkip, nil))},
	)
}

func (m *Machine) onComment(ctx context.Context, s *Session, c Choice) (*Response, error) {
	if err := s.require(needRecipient | needReason); err != nil {
		return nil, err
	}
	if c.Sub == SubSkip {
		return m.commitAward(ctx, s, nil)
	}
	s.State = StateCommentText
	s.AwaitingComment = true
	return reply("✍️ Напиши комментарий (до 300 символов)"), nil
}

func (m *Machine) onCommentText(ctx context.Context, s *Session, text string) (*Response, error) {
	text = norm.NFC.String(text)
	return m.commitAward(ctx, s, &text)
}

// commitAward writes the award built up in the session. Only a successful
// write clears the scratch; failures are handled by the caller.
func (m *Machine) commitAward(ctx context.Context, s *Session, comment *string) (*Response, error) {
	if err := s.require(needRecipient | needReason); err != nil {
		return nil, err
	}
	for _, id := range []int64{s.MemberID, s.PlusTo} {
		_, found, err := m.members.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errs.Reject(errs.ErrNotFound, "member %d", id)
		}
	}

	comment = store.TruncateComment(comment)
	if _, err := m.ledger.RecordAward(ctx, s.MemberID, s.PlusTo, s.PendingReason, comment); err != nil {
		return nil, err
	}
	s.reset(StateBound)
	if comment != nil {
		return withMenu("✅ Плюсик с комментарием успешно добавлен!"), nil
	}
	return withMenu("✅ Плюсик добавлен!"), nil
}
