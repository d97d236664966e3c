package flow

import (
	"context"
	"fmt"

	"kudos-bot/errs"
	"kudos-bot/model"
)

func (m *Machine) enterShop(ctx context.Context, s *Session) (*Response, error) {
	items, err := m.shop.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := m.shop.Balance(ctx, s.MemberID)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)
	if len(items) == 0 {
		return withMenu("Магазин пока пуст."), nil
	}

	rows := make([][]Button, 0, len(items)+1)
	for _, it := range items {
		label, err := m.itemLabel(ctx, it)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []Button{button(label, NewChoice(ActShop, SubItem, it.Key))})
	}
	rows = append(rows, backRow())

	s.State = StateItemChoice
	return reply(fmt.Sprintf("🛍 Магазин\nТвой баланс: %d", bal), rows...), nil
}

func (m *Machine) itemLabel(ctx context.Context, it model.ShopItem) (string, error) {
	label := fmt.Sprintf("%s — %d", it.Name, it.Price)
	if it.StockLimit == nil {
		return label, nil
	}
	stock, err := m.shop.RemainingStock(ctx, it.Key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (осталось %d)", label, stock.Remaining), nil
}

func (m *Machine) onShop(ctx context.Context, s *Session, c Choice) (*Response, error) {
	switch c.Sub {
	case SubItem:
		return m.chooseItem(ctx, s, c.ID)
	case SubConfirm:
		return m.confirmPurchase(ctx, s, c.ID)
	}
	s.reset(StateBound)
	return withMenu("Покупка отменена."), nil
}

func (m *Machine) chooseItem(ctx context.Context, s *Session, key string) (*Response, error) {
	item, err := m.shop.Item(ctx, key)
	if err != nil {
		return nil, err
	}
	bal, err := m.shop.Balance(ctx, s.MemberID)
	if err != nil {
		return nil, err
	}

	s.reset(StatePurchaseConfirm)
	s.PendingBuyItem = item.Key
	return reply(fmt.Sprintf("Купить «%s» за %d? Твой баланс: %d", item.Name, item.Price, bal),
		[]Button{
			button("✅ Купить", NewChoice(ActShop, SubConfirm, item.Key)),
			button("❌ Отмена", NewChoice(ActShop, SubCancel, item.Key)),
		},
	), nil
}

func (m *Machine) confirmPurchase(ctx context.Context, s *Session, key string) (*Response, error) {
	if err := s.require(needItem); err != nil {
		return nil, err
	}
	if key != s.PendingBuyItem {
		return nil, errs.Reject(errs.ErrPreconditionLost, "confirm %q does not match pending %q", key, s.PendingBuyItem)
	}

	r, err := m.shop.Purchase(ctx, s.MemberID, key)
	if errs.Is(err, errs.ErrInsufficientBalance) {
		return m.insufficient(ctx, s, key)
	}
	if err != nil {
		return nil, err
	}

	s.reset(StateBound)
	return withMenu(fmt.Sprintf("Куплено: %s за %d плюсов. Остаток: %d.", r.ItemName, r.Price, r.NewBalance)), nil
}

func (m *Machine) insufficient(ctx context.Context, s *Session, key string) (*Response, error) {
	item, err := m.shop.Item(ctx, key)
	if err != nil {
		return nil, err
	}
	bal, err := m.shop.Balance(ctx, s.MemberID)
	if err != nil {
		return nil, err
	}
	s.reset(StateBound)
	return withMenu(fmt.Sprintf("Недостаточно плюсов — нужно %d, у тебя %d.", item.Price, bal)), nil
}
