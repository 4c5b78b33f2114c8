package plugin

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
)

// ActionCondition defines when a plugin action becomes invokable.
type ActionCondition string

const (
	// ActionOnAll keeps the action invokable regardless of outcome.
	ActionOnAll ActionCondition = "all"
	// ActionOnFailed activates the action after a blocking validation error.
	ActionOnFailed ActionCondition = "failed"
	// ActionOnFailedOrWarning activates the action after any validation error.
	ActionOnFailedOrWarning ActionCondition = "failedOrWarning"
)

// ActionFunc is the entry point of a user-triggerable remedial action. It
// runs against the shared publish context outside the main iteration.
type ActionFunc func(ctx context.Context, pctx *model.Context, log *logger.Logger) error

// Action is a remedial operation tied to a plugin, conditionally enabled
// based on the plugin's last exception state.
type Action struct {
	ID     string
	Name   string
	Label  string
	Icon   string
	On     ActionCondition
	Active bool
	Run    ActionFunc
}

// DisplayLabel returns the action label, falling back to the name.
func (a *Action) DisplayLabel() string {
	if a == nil {
		return ""
	}
	if a.Label != "" {
		return a.Label
	}
	return a.Name
}

// ActionItem is a serializable snapshot of one plugin action, used as a proxy
// between controller and UI so the UI never touches action objects directly.
type ActionItem struct {
	ActionID string          `json:"action_id"`
	PluginID string          `json:"plugin_id"`
	Active   bool            `json:"active"`
	OnFilter ActionCondition `json:"on_filter"`
	Label    string          `json:"label"`
	Icon     string          `json:"icon"`
}

// ToData serializes the item to a plain map.
func (i ActionItem) ToData() map[string]any {
	return map[string]any{
		"action_id": i.ActionID,
		"plugin_id": i.PluginID,
		"active":    i.Active,
		"on_filter": string(i.OnFilter),
		"label":     i.Label,
		"icon":      i.Icon,
	}
}

// ActionItemFromData recreates an item serialized with ToData.
func ActionItemFromData(data map[string]any) ActionItem {
	item := ActionItem{}
	if v, ok := data["action_id"].(string); ok {
		item.ActionID = v
	}
	if v, ok := data["plugin_id"].(string); ok {
		item.PluginID = v
	}
	if v, ok := data["active"].(bool); ok {
		item.Active = v
	}
	if v, ok := data["on_filter"].(string); ok {
		item.OnFilter = ActionCondition(v)
	}
	if v, ok := data["label"].(string); ok {
		item.Label = v
	}
	if v, ok := data["icon"].(string); ok {
		item.Icon = v
	}
	return item
}
