package store

import (
	"context"
	"strings"
	"time"

	"kudos-bot/errs"
	"kudos-bot/model"

	"gorm.io/gorm"
)

// MaxCommentLen is in characters; longer comments are cut, not rejected.
const MaxCommentLen = 300

type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// AwardView is an award joined with member names.
type AwardView struct {
	ID        int64
	Reason    string
	Comment   *string
	FromName  string
	ToName    string
	CreatedAt time.Time
}

// Ledger is the append-only award log.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// RecordAward appends one award. Member existence is the caller's job.
func (l *Ledger) RecordAward(ctx context.Context, from, to int64, reason string, comment *string) (int64, error) {
	if strings.TrimSpace(reason) == "" {
		return 0, errs.Reject(errs.ErrInvalidInput, "empty reason")
	}
	award := model.Award{
		FromMemberID: from,
		ToMemberID:   to,
		Reason:       reason,
		Comment:      TruncateComment(comment),
	}
	if err := l.db.WithContext(ctx).Create(&award).Error; err != nil {
		return 0, errs.Wrap(err, "record award")
	}
	return award.ID, nil
}

func (l *Ledger) AwardsReceived(ctx context.Context, member int64, order Order) ([]AwardView, error) {
	return l.list(ctx, "a.to_member_id = ?", member, order, 0)
}

func (l *Ledger) AwardsGiven(ctx context.Context, member int64, order Order) ([]AwardView, error) {
	return l.list(ctx, "a.from_member_id = ?", member, order, 0)
}

// Recent returns the latest limit awards across everyone, oldest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]AwardView, error) {
	views, err := l.list(ctx, "", nil, NewestFirst, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	return views, nil
}

func (l *Ledger) CountReceived(ctx context.Context, member int64) (int64, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&model.Award{}).Where("to_member_id = ?", member).Count(&n).Error; err != nil {
		return 0, errs.Wrap(err, "count awards")
	}
	return n, nil
}

func (l *Ledger) list(ctx context.Context, where string, arg any, order Order, limit int) ([]AwardView, error) {
	q := l.db.WithContext(ctx).
		Table("awards AS a").
		Select("a.id, a.reason, a.comment, a.created_at, f.name AS from_name, t.name AS to_name").
		Joins("LEFT JOIN members f ON f.id = a.from_member_id").
		Joins("LEFT JOIN members t ON t.id = a.to_member_id")
	if where != "" {
		q = q.Where(where, arg)
	}
	if order == OldestFirst {
		q = q.Order("a.created_at ASC").Order("a.id ASC")
	} else {
		q = q.Order("a.created_at DESC").Order("a.id DESC")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var views []AwardView
	if err := q.Scan(&views).Error; err != nil {
		return nil, errs.Wrap(err, "list awards")
	}
	return views, nil
}

// TruncateComment trims the comment, cuts it to MaxCommentLen characters and
// maps blank comments to nil.
func TruncateComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return nil
	}
	if r := []rune(c); len(r) > MaxCommentLen {
		c = string(r[:MaxCommentLen])
	}
	return &c
}
