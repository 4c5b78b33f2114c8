package publish

import (
	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// ValidationErrorItem is an immutable snapshot of one validation failure.
// Created at failure time, serialized between controller and UI.
type ValidationErrorItem struct {
	InstanceID        string `json:"instance_id"`
	InstanceLabel     string `json:"instance_label"`
	PluginID          string `json:"plugin_id"`
	ContextValidation bool   `json:"context_validation"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Detail            string `json:"detail"`
	IsBlocking        bool   `json:"is_blocking"`
}

func newValidationErrorItem(pluginID string, verr *stagehanderrors.ValidationError, instance *model.Instance) ValidationErrorItem {
	item := ValidationErrorItem{
		PluginID:          pluginID,
		ContextValidation: instance == nil,
		Title:             verr.Title,
		Description:       verr.Description,
		Detail:            verr.Detail,
		IsBlocking:        verr.Blocking,
	}
	if instance != nil {
		item.InstanceID = instance.ID
		item.InstanceLabel = instance.DisplayLabel()
	}
	return item
}

// ValidationErrors tracks validation failures by plugin during one run.
type ValidationErrors struct {
	proxy             *plugin.Proxy
	errorItems        []ValidationErrorItem
	pluginActionItems map[string][]plugin.ActionItem
}

// NewValidationErrors creates an empty aggregator. Reset must be called with
// the run's plugin proxy before errors are added.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{pluginActionItems: map[string][]plugin.ActionItem{}}
}

// HasErrors reports whether at least one error was added since the last reset.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.errorItems) > 0
}

// Reset clears all tracked errors for a new run.
func (v *ValidationErrors) Reset(proxy *plugin.Proxy) {
	v.proxy = proxy
	v.errorItems = nil
	v.pluginActionItems = map[string][]plugin.ActionItem{}
}

// AddError appends a snapshot of a validation failure. An error without a
// title gets the plugin's label. The plugin's currently active action items
// are captured the first time its id is seen; later errors from the same
// plugin reuse that cached list.
func (v *ValidationErrors) AddError(plug *plugin.Plugin, verr *stagehanderrors.ValidationError, instance *model.Instance) {
	if verr.Title == "" {
		verr.Title = plug.DisplayLabel()
	}

	v.errorItems = append(v.errorItems, newValidationErrorItem(plug.ID, verr, instance))
	if _, cached := v.pluginActionItems[plug.ID]; cached {
		return
	}

	actionItems, err := v.proxy.GetPluginActionItems(plug.ID)
	if err != nil {
		actionItems = nil
	}
	v.pluginActionItems[plug.ID] = actionItems
}

// CreateReport snapshots the currently tracked errors.
func (v *ValidationErrors) CreateReport() *ValidationErrorsReport {
	errorItems := make([]ValidationErrorItem, len(v.errorItems))
	copy(errorItems, v.errorItems)
	actionItems := make(map[string][]plugin.ActionItem, len(v.pluginActionItems))
	for pluginID, items := range v.pluginActionItems {
		actionItems[pluginID] = append([]plugin.ActionItem(nil), items...)
	}
	return NewValidationErrorsReport(errorItems, actionItems)
}

// ValidationErrorsReport is a parseable validation error report handed to the
// UI. It can round-trip through plain data for cross-process transfer.
type ValidationErrorsReport struct {
	errorItems        []ValidationErrorItem
	pluginActionItems map[string][]plugin.ActionItem

	// HasBlockingErrors is true when at least one blocking error exists.
	HasBlockingErrors bool
	// HasNonBlockingErrors is true when at least one non-blocking error exists.
	HasNonBlockingErrors bool
}

// NewValidationErrorsReport wraps tracked errors into a report.
func NewValidationErrorsReport(errorItems []ValidationErrorItem, pluginActionItems map[string][]plugin.ActionItem) *ValidationErrorsReport {
	report := &ValidationErrorsReport{
		errorItems:        errorItems,
		pluginActionItems: pluginActionItems,
	}
	for _, item := range errorItems {
		if item.IsBlocking {
			report.HasBlockingErrors = true
		} else {
			report.HasNonBlockingErrors = true
		}
		if report.HasBlockingErrors && report.HasNonBlockingErrors {
			break
		}
	}
	return report
}

// Items returns the error items in insertion order.
func (r *ValidationErrorsReport) Items() []ValidationErrorItem {
	return append([]ValidationErrorItem(nil), r.errorItems...)
}

// GroupedErrorItem is one (plugin, title) error group ready for rendering.
type GroupedErrorItem struct {
	ID                string
	PluginID          string
	Title             string
	PluginActionItems []plugin.ActionItem
	ErrorItems        []ValidationErrorItem
}

// GroupItemsByTitle groups errors by plugin in first-seen order and within a
// plugin by distinct title in first-seen order. The same title raised by two
// different plugins stays two groups. Ordering is by first occurrence, never
// alphabetical, so artists see errors in execution order.
func (r *ValidationErrorsReport) GroupItemsByTitle() []GroupedErrorItem {
	var orderedPluginIDs []string
	errorItemsByPluginID := map[string][]ValidationErrorItem{}
	for _, errorItem := range r.errorItems {
		if _, seen := errorItemsByPluginID[errorItem.PluginID]; !seen {
			orderedPluginIDs = append(orderedPluginIDs, errorItem.PluginID)
		}
		errorItemsByPluginID[errorItem.PluginID] = append(
			errorItemsByPluginID[errorItem.PluginID], errorItem)
	}

	var grouped []GroupedErrorItem
	for _, pluginID := range orderedPluginIDs {
		var titles []string
		errorItemsByTitle := map[string][]ValidationErrorItem{}
		for _, errorItem := range errorItemsByPluginID[pluginID] {
			if _, seen := errorItemsByTitle[errorItem.Title]; !seen {
				titles = append(titles, errorItem.Title)
			}
			errorItemsByTitle[errorItem.Title] = append(
				errorItemsByTitle[errorItem.Title], errorItem)
		}

		for _, title := range titles {
			grouped = append(grouped, GroupedErrorItem{
				ID:                uuid.NewString(),
				PluginID:          pluginID,
				Title:             title,
				PluginActionItems: append([]plugin.ActionItem(nil), r.pluginActionItems[pluginID]...),
				ErrorItems:        errorItemsByTitle[title],
			})
		}
	}
	return grouped
}

// ToData serializes the report to a plain map.
func (r *ValidationErrorsReport) ToData() map[string]any {
	errorItems := make([]map[string]any, 0, len(r.errorItems))
	for _, item := range r.errorItems {
		errorItems = append(errorItems, map[string]any{
			"instance_id":        item.InstanceID,
			"instance_label":     item.InstanceLabel,
			"plugin_id":          item.PluginID,
			"context_validation": item.ContextValidation,
			"title":              item.Title,
			"description":        item.Description,
			"detail":             item.Detail,
			"is_blocking":        item.IsBlocking,
		})
	}

	pluginActionItems := make(map[string]any, len(r.pluginActionItems))
	for pluginID, actionItems := range r.pluginActionItems {
		serialized := make([]map[string]any, 0, len(actionItems))
		for _, actionItem := range actionItems {
			serialized = append(serialized, actionItem.ToData())
		}
		pluginActionItems[pluginID] = serialized
	}

	return map[string]any{
		"error_items":         errorItems,
		"plugin_action_items": pluginActionItems,
	}
}

// ValidationErrorsReportFromData recreates a report serialized with ToData.
// The data may come straight from ToData or from a JSON hop, where the item
// lists decode as []any.
func ValidationErrorsReportFromData(data map[string]any) *ValidationErrorsReport {
	var errorItems []ValidationErrorItem
	for _, itemData := range dataItemList(data["error_items"]) {
		errorItems = append(errorItems, validationErrorItemFromData(itemData))
	}

	pluginActionItems := map[string][]plugin.ActionItem{}
	if raw, ok := data["plugin_action_items"].(map[string]any); ok {
		for pluginID, value := range raw {
			itemsData := dataItemList(value)
			actionItems := make([]plugin.ActionItem, 0, len(itemsData))
			for _, itemData := range itemsData {
				actionItems = append(actionItems, plugin.ActionItemFromData(itemData))
			}
			pluginActionItems[pluginID] = actionItems
		}
	}

	return NewValidationErrorsReport(errorItems, pluginActionItems)
}

// dataItemList normalizes a serialized item list to its element maps.
func dataItemList(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		items := make([]map[string]any, 0, len(typed))
		for _, element := range typed {
			if itemData, ok := element.(map[string]any); ok {
				items = append(items, itemData)
			}
		}
		return items
	}
	return nil
}

func validationErrorItemFromData(data map[string]any) ValidationErrorItem {
	item := ValidationErrorItem{}
	if v, ok := data["instance_id"].(string); ok {
		item.InstanceID = v
	}
	if v, ok := data["instance_label"].(string); ok {
		item.InstanceLabel = v
	}
	if v, ok := data["plugin_id"].(string); ok {
		item.PluginID = v
	}
	if v, ok := data["context_validation"].(bool); ok {
		item.ContextValidation = v
	}
	if v, ok := data["title"].(string); ok {
		item.Title = v
	}
	if v, ok := data["description"].(string); ok {
		item.Description = v
	}
	if v, ok := data["detail"].(string); ok {
		item.Detail = v
	}
	if v, ok := data["is_blocking"].(bool); ok {
		item.IsBlocking = v
	}
	return item
}
