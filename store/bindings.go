package store

import (
	"context"
	"errors"

	"kudos-bot/errs"
	"kudos-bot/model"

	"gorm.io/gorm"
)

// Bindings is the identity binding registry: external identity <-> member, one to one.
type Bindings struct {
	db *gorm.DB
}

func NewBindings(db *gorm.DB) *Bindings {
	return &Bindings{db: db}
}

func (b *Bindings) Resolve(ctx context.Context, externalID string) (int64, bool, error) {
	var binding model.Binding
	err := b.db.WithContext(ctx).Where("external_id = ?", externalID).Take(&binding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.Wrapf(err, "resolve %s", externalID)
	}
	return binding.MemberID, true, nil
}

// Bind claims memberID for externalID. It never replaces an existing binding:
// a member claimed by another identity, or an identity already bound to another
// member, is a Conflict. Re-binding the exact same pair is a no-op.
func (b *Bindings) Bind(ctx context.Context, externalID string, memberID int64) error {
	_, err := runInTx(ctx, b.db, "bind", func(tx *gorm.DB) (struct{}, error) {
		var none struct{}

		var count int64
		if err := tx.Model(&model.Member{}).Where("id = ?", memberID).Count(&count).Error; err != nil {
			return none, err
		}
		if count == 0 {
			return none, errs.Reject(errs.ErrNotFound, "member %d", memberID)
		}

		var existing []model.Binding
		if err := tx.Where("external_id = ? OR member_id = ?", externalID, memberID).Find(&existing).Error; err != nil {
			return none, err
		}
		for _, e := range existing {
			if e.ExternalID == externalID && e.MemberID == memberID {
				return none, nil
			}
		}
		if len(existing) > 0 {
			return none, errs.Reject(errs.ErrConflict, "member %d or identity %s already bound", memberID, externalID)
		}

		if err := tx.Create(&model.Binding{ExternalID: externalID, MemberID: memberID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return none, errs.Reject(errs.ErrConflict, "member %d or identity %s already bound", memberID, externalID)
			}
			return none, err
		}
		return none, nil
	})
	return err
}

// Unbind removes the binding for externalID and reports whether one existed.
func (b *Bindings) Unbind(ctx context.Context, externalID string) (bool, error) {
	res := b.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&model.Binding{})
	if res.Error != nil {
		return false, errs.Wrapf(res.Error, "unbind %s", externalID)
	}
	return res.RowsAffected > 0, nil
}
