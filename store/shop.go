package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"kudos-bot/catalog"
	"kudos-bot/errs"
	"kudos-bot/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stock is the remaining quantity of an item. Limited is false for unlimited items.
type Stock struct {
	Limited   bool
	Remaining int
}

// Receipt describes a committed purchase.
type Receipt struct {
	PurchaseID int64
	ItemName   string
	Price      int
	NewBalance int
}

// Shop is the catalog and the purchase engine.
type Shop struct {
	db       *gorm.DB
	defaults []catalog.Item

	seedMu sync.Mutex
	seeded bool
}

func NewShop(db *gorm.DB, defaults []catalog.Item) *Shop {
	return &Shop{db: db, defaults: defaults}
}

// Catalog returns all items ordered by price, then key.
// The first call seeds the defaults if the table is empty.
func (s *Shop) Catalog(ctx context.Context) ([]model.ShopItem, error) {
	if err := s.seed(ctx); err != nil {
		return nil, err
	}
	var items []model.ShopItem
	if err := s.db.WithContext(ctx).Order("price").Order("item_key").Find(&items).Error; err != nil {
		return nil, errs.Wrap(err, "list catalog")
	}
	return items, nil
}

func (s *Shop) seed(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded {
		return nil
	}

	_, err := runInTx(ctx, s.db, "seed catalog", func(tx *gorm.DB) (int, error) {
		var count int64
		if err := tx.Model(&model.ShopItem{}).Count(&count).Error; err != nil {
			return 0, err
		}
		if count > 0 || len(s.defaults) == 0 {
			return 0, nil
		}
		items := make([]model.ShopItem, 0, len(s.defaults))
		for _, it := range s.defaults {
			items = append(items, model.ShopItem{Key: it.Key, Name: it.Name, Price: it.Price, StockLimit: it.StockLimit})
		}
		return len(items), tx.Create(&items).Error
	})
	if err != nil {
		return err
	}
	s.seeded = true
	return nil
}

func (s *Shop) Item(ctx context.Context, key string) (model.ShopItem, error) {
	if err := s.seed(ctx); err != nil {
		return model.ShopItem{}, err
	}
	return findItem(s.db.WithContext(ctx), key)
}

func findItem(db *gorm.DB, key string) (model.ShopItem, error) {
	var item model.ShopItem
	err := db.Where("item_key = ?", key).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ShopItem{}, errs.Reject(errs.ErrNotFound, "item %q", key)
	}
	if err != nil {
		return model.ShopItem{}, errs.Wrapf(err, "get item %q", key)
	}
	return item, nil
}

func (s *Shop) RemainingStock(ctx context.Context, key string) (Stock, error) {
	item, err := s.Item(ctx, key)
	if err != nil {
		return Stock{}, err
	}
	return remaining(s.db.WithContext(ctx), item)
}

func remaining(db *gorm.DB, item model.ShopItem) (Stock, error) {
	if item.StockLimit == nil {
		return Stock{}, nil
	}
	var sold int64
	if err := db.Model(&model.Purchase{}).Where("item_key = ?", item.Key).Count(&sold).Error; err != nil {
		return Stock{}, errs.Wrap(err, "count sold")
	}
	left := *item.StockLimit - int(sold)
	if left < 0 {
		left = 0
	}
	return Stock{Limited: true, Remaining: left}, nil
}

// Balance = received awards - spent on purchases.
func (s *Shop) Balance(ctx context.Context, member int64) (int, error) {
	return balance(s.db.WithContext(ctx), member)
}

func balance(db *gorm.DB, member int64) (int, error) {
	var received int64
	if err := db.Model(&model.Award{}).Where("to_member_id = ?", member).Count(&received).Error; err != nil {
		return 0, errs.Wrap(err, "count received")
	}
	var spent int64
	if err := db.Model(&model.Purchase{}).Where("member_id = ?", member).
		Select("COALESCE(SUM(price), 0)").Scan(&spent).Error; err != nil {
		return 0, errs.Wrap(err, "sum spent")
	}
	return int(received - spent), nil
}

// Purchase buys one unit of key for member. Existence, stock and balance are
// checked in that order inside the same transaction as the insert.
func (s *Shop) Purchase(ctx context.Context, member int64, key string) (Receipt, error) {
	if err := s.seed(ctx); err != nil {
		return Receipt{}, err
	}
	return runInTx(ctx, s.db, "purchase", func(tx *gorm.DB) (Receipt, error) {
		item, err := findItem(tx, key)
		if err != nil {
			return Receipt{}, err
		}

		stock, err := remaining(tx, item)
		if err != nil {
			return Receipt{}, err
		}
		if stock.Limited && stock.Remaining <= 0 {
			return Receipt{}, errs.Reject(errs.ErrOutOfStock, "item %q sold out", key)
		}

		bal, err := balance(tx, member)
		if err != nil {
			return Receipt{}, err
		}
		if bal < item.Price {
			return Receipt{}, errs.Reject(errs.ErrInsufficientBalance, "need %d, have %d", item.Price, bal)
		}

		p := model.Purchase{MemberID: member, ItemKey: item.Key, ItemName: item.Name, Price: item.Price}
		if err := tx.Create(&p).Error; err != nil {
			return Receipt{}, err
		}
		return Receipt{PurchaseID: p.ID, ItemName: item.Name, Price: item.Price, NewBalance: bal - item.Price}, nil
	})
}

func (s *Shop) Purchases(ctx context.Context, member int64) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := s.db.WithContext(ctx).Where("member_id = ?", member).
		Order("created_at DESC").Order("id DESC").Find(&purchases).Error
	if err != nil {
		return nil, errs.Wrap(err, "list purchases")
	}
	return purchases, nil
}

// UpsertItem creates or replaces an item.
func (s *Shop) UpsertItem(ctx context.Context, item model.ShopItem) error {
	item.Key = strings.TrimSpace(item.Key)
	item.Name = strings.TrimSpace(item.Name)
	switch {
	case item.Key == "" || strings.Contains(item.Key, ":"):
		return errs.Reject(errs.ErrInvalidInput, "invalid item key %q", item.Key)
	case item.Name == "":
		return errs.Reject(errs.ErrInvalidInput, "empty item name")
	case item.Price <= 0:
		return errs.Reject(errs.ErrInvalidInput, "price must be positive, got %d", item.Price)
	case item.StockLimit != nil && *item.StockLimit <= 0:
		return errs.Reject(errs.ErrInvalidInput, "stock limit must be positive, got %d", *item.StockLimit)
	}

	if err := s.seed(ctx); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error; err != nil {
		return errs.Wrapf(err, "upsert item %q", item.Key)
	}
	return nil
}

// RemoveItem deletes the item; past purchases keep their snapshot.
func (s *Shop) RemoveItem(ctx context.Context, key string) (bool, error) {
	if err := s.seed(ctx); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Where("item_key = ?", key).Delete(&model.ShopItem{})
	if res.Error != nil {
		return false, errs.Wrapf(res.Error, "remove item %q", key)
	}
	return res.RowsAffected > 0, nil
}
