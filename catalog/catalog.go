package catalog

import (
	_ "embed"

	"kudos-bot/errs"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// OtherKey is the reason key that asks for free text instead.
const OtherKey = "other"

// OtherPrefix marks free-text reasons in the ledger.
const OtherPrefix = "Другое: "

type Item struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	Price      int    `yaml:"price"`
	StockLimit *int   `yaml:"stock_limit,omitempty"`
}

type Reason struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

// Reasons is the ordered list of builtin award reasons.
type Reasons []Reason

type Defaults struct {
	Items   []Item  `yaml:"items"`
	Reasons Reasons `yaml:"reasons"`
}

// Load returns the embedded defaults.
func Load() (Defaults, error) {
	return Parse(defaultsYAML)
}

func MustLoad() Defaults {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}

func Parse(data []byte) (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, errs.Wrap(err, "parse defaults")
	}

	seen := make(map[string]bool)
	for _, it := range d.Items {
		if it.Key == "" || it.Name == "" || it.Price <= 0 {
			return Defaults{}, errs.Newf("invalid item %q", it.Key)
		}
		if it.StockLimit != nil && *it.StockLimit <= 0 {
			return Defaults{}, errs.Newf("item %q: stock_limit must be positive", it.Key)
		}
		if seen[it.Key] {
			return Defaults{}, errs.Newf("duplicate item %q", it.Key)
		}
		seen[it.Key] = true
	}

	seen = make(map[string]bool)
	for _, r := range d.Reasons {
		if r.Key == "" || r.Text == "" || r.Key == OtherKey {
			return Defaults{}, errs.Newf("invalid reason %q", r.Key)
		}
		if seen[r.Key] {
			return Defaults{}, errs.Newf("duplicate reason %q", r.Key)
		}
		seen[r.Key] = true
	}
	return d, nil
}

// Text looks up a builtin reason text by key.
func (rs Reasons) Text(key string) (string, bool) {
	for _, r := range rs {
		if r.Key == key {
			return r.Text, true
		}
	}
	return "", false
}
