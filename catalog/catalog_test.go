package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	keys := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		keys = append(keys, it.Key)
		assert.Nil(t, it.StockLimit, it.Key)
	}
	assert.Equal(t, []string{"stickerpack", "big_sticker", "mug", "pots"}, keys)
	assert.Len(t, d.Reasons, 9)

	text, ok := d.Reasons.Text("advice")
	assert.True(t, ok)
	assert.Equal(t, "За профессиональный совет", text)

	_, ok = d.Reasons.Text(OtherKey)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "stock limit", data: "items:\n  - {key: a, name: A, price: 1, stock_limit: 2}\n"},
		{name: "zero price", data: "items:\n  - {key: a, name: A, price: 0}\n", wantErr: true},
		{name: "zero stock", data: "items:\n  - {key: a, name: A, price: 1, stock_limit: 0}\n", wantErr: true},
		{name: "duplicate item", data: "items:\n  - {key: a, name: A, price: 1}\n  - {key: a, name: B, price: 2}\n", wantErr: true},
		{name: "reserved reason", data: "reasons:\n  - {key: other, text: x}\n", wantErr: true},
		{name: "broken yaml", data: "items: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
