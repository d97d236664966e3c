package store

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"kudos-bot/errs"
	"kudos-bot/model"

	"gorm.io/gorm"
)

const minNameLen = 2

// Members is the member directory.
type Members struct {
	db *gorm.DB
}

func NewMembers(db *gorm.DB) *Members {
	return &Members{db: db}
}

// ListAll returns every member ordered by name, then id.
func (m *Members) ListAll(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := m.db.WithContext(ctx).Order("name").Order("id").Find(&members).Error; err != nil {
		return nil, errs.Wrap(err, "list members")
	}
	return members, nil
}

func (m *Members) Get(ctx context.Context, id int64) (model.Member, bool, error) {
	var member model.Member
	err := m.db.WithContext(ctx).Where("id = ?", id).Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Member{}, false, nil
	}
	if err != nil {
		return model.Member{}, false, errs.Wrapf(err, "get member %d", id)
	}
	return member, true, nil
}

func (m *Members) NameOf(ctx context.Context, id int64) (string, bool, error) {
	member, ok, err := m.Get(ctx, id)
	return member.Name, ok, err
}

// ExistsByName matches the name exactly, case included.
func (m *Members) ExistsByName(ctx context.Context, name string) (bool, error) {
	return existsByName(m.db.WithContext(ctx), name)
}

func existsByName(db *gorm.DB, name string) (bool, error) {
	var count int64
	if err := db.Model(&model.Member{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count members by name")
	}
	return count > 0, nil
}

// Register creates a member. The name is trimmed and must be at least two characters.
func (m *Members) Register(ctx context.Context, name string, isAdmin bool) (int64, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLen {
		return 0, errs.Reject(errs.ErrInvalidInput, "name %q is shorter than %d characters", name, minNameLen)
	}

	return runInTx(ctx, m.db, "register member", func(tx *gorm.DB) (int64, error) {
		exists, err := existsByName(tx, name)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, errs.Reject(errs.ErrDuplicateName, "member %q already exists", name)
		}

		member := model.Member{Name: name, IsAdmin: isAdmin}
		if err := tx.Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, errs.Reject(errs.ErrDuplicateName, "member %q already exists", name)
			}
			return 0, err
		}
		return member.ID, nil
	})
}

// IsAdmin is false for unknown ids.
func (m *Members) IsAdmin(ctx context.Context, id int64) (bool, error) {
	member, ok, err := m.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return member.IsAdmin, nil
}

func (m *Members) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res := m.db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return errs.Wrapf(res.Error, "set admin %d", id)
	}
	if res.RowsAffected == 0 {
		return errs.Reject(errs.ErrNotFound, "member %d", id)
	}
	return nil
}
