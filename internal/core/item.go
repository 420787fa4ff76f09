package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidID is returned when an item has no usable identity.
var ErrInvalidID = errors.New("invalid item ID")

// ItemID identifies a catalog item. Catalog data uses both integer and
// string ids, so the textual form is kept along with whether it was a number.
type ItemID struct {
	text    string
	numeric bool
}

// StringID returns an ItemID that encodes as a JSON string.
func StringID(s string) ItemID {
	return ItemID{text: s}
}

// IntID returns an ItemID that encodes as a JSON number.
func IntID(n int64) ItemID {
	return ItemID{text: strconv.FormatInt(n, 10), numeric: true}
}

// ParseID interprets user input (a CLI argument, a TUI selection) as an id.
// Integer-looking input becomes a numeric id in canonical form, so "+5"
// and "05" both parse to 5.
func ParseID(s string) ItemID {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntID(n)
	}
	return ItemID{text: s}
}

// String returns the textual form of the id.
func (id ItemID) String() string { return id.text }

// IsZero reports whether the id is empty.
func (id ItemID) IsZero() bool { return id.text == "" }

// Numeric reports whether the id encodes as a JSON number.
func (id ItemID) Numeric() bool { return id.numeric }

// Equal compares ids by their textual form, so 1 and "1" are the same item.
func (id ItemID) Equal(other ItemID) bool { return id.text == other.text }

// MarshalJSON implements json.Marshaler.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.text), nil
	}
	return json.Marshal(id.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ItemID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID{text: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, data)
	}
	*id = ItemID{text: n.String(), numeric: true}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (id ItemID) MarshalYAML() (interface{}, error) {
	if id.numeric {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: id.text}, nil
	}
	return id.text, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ItemID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d", ErrInvalidID, node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		*id = ItemID{text: node.Value, numeric: true}
	case "!!null":
		*id = ItemID{}
	default:
		*id = ItemID{text: node.Value}
	}
	return nil
}

// Review is a customer rating attached to an item.
type Review struct {
	Rating  int    `json:"rating" yaml:"rating"`
	Comment string `json:"comment" yaml:"comment"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
}

// Item is an art-tool product record. The same shape is used for catalog
// entries and favorites; optional fields are empty rather than missing.
type Item struct {
	ID              ItemID   `json:"id" yaml:"id"`
	ArtName         string   `json:"artName" yaml:"artName"`
	Price           float64  `json:"price" yaml:"price"`
	Image           string   `json:"image" yaml:"image"`
	Brand           string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	LimitedTimeDeal float64  `json:"limitedTimeDeal,omitempty" yaml:"limitedTimeDeal,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	GlassSurface    bool     `json:"glassSurface,omitempty" yaml:"glassSurface,omitempty"`
	Reviews         []Review `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}

// Validate checks the item's identity.
func (it Item) Validate() error {
	if it.ID.IsZero() {
		return ErrInvalidID
	}
	return nil
}

// HasDeal reports whether the item has an active limited-time deal.
func (it Item) HasDeal() bool {
	return it.LimitedTimeDeal > 0
}

// DiscountedPrice returns the price after the limited-time deal.
func (it Item) DiscountedPrice() float64 {
	if !it.HasDeal() {
		return it.Price
	}
	return math.Max(0, it.Price*(1-it.LimitedTimeDeal))
}

// DealPercent returns the deal as a whole percentage, e.g. 0.25 -> 25.
func (it Item) DealPercent() int {
	if !it.HasDeal() {
		return 0
	}
	return int(math.Round(it.LimitedTimeDeal * 100))
}

// Clone returns a copy that shares no slices with it.
func (it Item) Clone() Item {
	if it.Reviews != nil {
		it.Reviews = append([]Review(nil), it.Reviews...)
	}
	return it
}
