package create

import (
	"github.com/alexisbeaulieu97/stagehand/internal/model"
)

// CreatorType tags a creator variant at construction time. The capability
// record is the set of populated function fields; callers check data, not
// types.
type CreatorType string

const (
	// CreatorTypeBase is a creator with no specialized behavior.
	CreatorTypeBase CreatorType = "base"
	// CreatorTypeAuto creates its instance automatically on every reset.
	CreatorTypeAuto CreatorType = "auto"
	// CreatorTypeHidden collects instances but is not offered to artists.
	CreatorTypeHidden CreatorType = "hidden"
	// CreatorTypeArtist is offered in the create dialog.
	CreatorTypeArtist CreatorType = "artist"
)

// Entity is a resolved folder or task context entity passed to product-name
// computation.
type Entity struct {
	ID   string
	Name string
	Path string
}

// Creator is a host-provided instance factory. Only Identifier, Type and
// ProductType are mandatory; each function field is an optional capability.
type Creator struct {
	Identifier      string
	Type            CreatorType
	Label           string
	ProductType     string
	Icon            string
	ShowOrder       int
	DefaultVariants []string

	// Collect returns instances that already exist in the host scene.
	Collect func(cctx *Context) ([]*model.Instance, error)
	// Create makes a new instance for the given product name.
	Create func(cctx *Context, productName string, data, options map[string]any) (*model.Instance, error)
	// ProductName computes the product name for a variant in a resolved
	// folder/task context.
	ProductName func(folder, task *Entity, variant string, instance *model.Instance) (string, error)
	// Save persists attribute changes of the creator's instances.
	Save func(cctx *Context, instances []*model.Instance) error
	// Remove deletes the creator's instances from the host scene.
	Remove func(cctx *Context, instances []*model.Instance) error
}

// DisplayLabel returns the creator label, falling back to the identifier.
func (c *Creator) DisplayLabel() string {
	if c == nil {
		return ""
	}
	if c.Label != "" {
		return c.Label
	}
	return c.Identifier
}

// CreatorItem is a serializable snapshot of one creator for UI consumption.
type CreatorItem struct {
	Identifier      string      `json:"identifier"`
	CreatorType     CreatorType `json:"creator_type"`
	ProductType     string      `json:"product_type"`
	Label           string      `json:"label"`
	Icon            string      `json:"icon"`
	ShowOrder       int         `json:"show_order"`
	DefaultVariants []string    `json:"default_variants"`
}

// NewCreatorItem snapshots a creator.
func NewCreatorItem(creator *Creator) CreatorItem {
	return CreatorItem{
		Identifier:      creator.Identifier,
		CreatorType:     creator.Type,
		ProductType:     creator.ProductType,
		Label:           creator.DisplayLabel(),
		Icon:            creator.Icon,
		ShowOrder:       creator.ShowOrder,
		DefaultVariants: append([]string(nil), creator.DefaultVariants...),
	}
}

// Convertor adapts legacy, non-native data into publish instances.
type Convertor struct {
	Identifier string
	Label      string

	// Find reports convertible legacy items present in the host scene.
	Find func(cctx *Context) ([]ConvertorItem, error)
	// Convert performs the conversion; converted items are picked up by
	// creators on the next instance reset.
	Convert func(cctx *Context) error
}

// ConvertorItem describes one convertible legacy item.
type ConvertorItem struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`
}
