package store

import (
	"strings"
	"testing"

	"kudos-bot/errs"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewOpts = []cmp.Option{
	cmpopts.IgnoreFields(AwardView{}, "ID", "CreatedAt"),
}

func TestLedger_AwardScenario(t *testing.T) {
	ctx := t.Context()
	db := openTestDB(t)
	m := NewMembers(db)
	l := NewLedger(db)
	shop := NewShop(db, nil)

	alice, err := m.Register(ctx, "Alice", false)
	require.NoError(t, err)
	bob, err := m.Register(ctx, "Bob", false)
	require.NoError(t, err)
	require.NoError(t, NewBindings(db).Bind(ctx, "tg:100", alice))

	_, err = l.RecordAward(ctx, alice, bob, "За совет", nil)
	require.NoError(t, err)

	got, err := l.AwardsReceived(ctx, bob, NewestFirst)
	require.NoError(t, err)
	want := []AwardView{{Reason: "За совет", FromName: "Alice", ToName: "Bob"}}
	if diff := cmp.Diff(want, got, viewOpts...); diff != "" {
		t.Errorf("AwardsReceived mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got[0].CreatedAt.IsZero())

	bal, err := shop.Balance(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, bal)
}

func TestLedger_Ordering(t *testing.T) {
	ctx := t.Context()
	db := openTestDB(t)
	m := NewMembers(db)
	l := NewLedger(db)

	alice, err := m.Register(ctx, "Alice", false)
	require.NoError(t, err)
	bob, err := m.Register(ctx, "Bob", false)
	require.NoError(t, err)

	for _, reason := range []string{"first", "second", "third"} {
		_, err := l.RecordAward(ctx, alice, bob, reason, nil)
		require.NoError(t, err)
	}
	_, err = l.RecordAward(ctx, bob, alice, "back", ptr("спасибо"))
	require.NoError(t, err)

	reasons := func(views []AwardView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Reason)
		}
		return out
	}

	newest, err := l.AwardsReceived(ctx, bob, NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, reasons(newest))

	oldest, err := l.AwardsReceived(ctx, bob, OldestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, reasons(oldest))

	given, err := l.AwardsGiven(ctx, bob, NewestFirst)
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.Equal(t, "Alice", given[0].ToName)
	require.NotNil(t, given[0].Comment)
	assert.Equal(t, "спасибо", *given[0].Comment)

	recent, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "back"}, reasons(recent))

	n, err := l.CountReceived(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLedger_Permissive(t *testing.T) {
	ctx := t.Context()
	db := openTestDB(t)
	l := NewLedger(db)

	alice, err := NewMembers(db).Register(ctx, "Alice", false)
	require.NoError(t, err)

	// self awards and repeats are accepted
	for range 2 {
		_, err := l.RecordAward(ctx, alice, alice, "За совет", nil)
		require.NoError(t, err)
	}
	n, err := l.CountReceived(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = l.RecordAward(ctx, alice, alice, "  ", nil)
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))
}

func TestTruncateComment(t *testing.T) {
	long := strings.Repeat("ж", MaxCommentLen+20)

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "blank", in: ptr("   "), want: nil},
		{name: "trimmed", in: ptr("  ok "), want: ptr("ok")},
		{name: "cut to limit", in: &long, want: ptr(strings.Repeat("ж", MaxCommentLen))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateComment(tt.in))
		})
	}
}
