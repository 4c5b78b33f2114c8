package plugin

import (
	"errors"
	"fmt"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// LookupError signals a request for a plugin or action id that is not
// present. It indicates caller desynchronization and is the only failure the
// orchestration layer lets propagate as a hard fault.
type LookupError struct {
	Kind     string
	PluginID string
	ActionID string
}

func (e *LookupError) Error() string {
	if e == nil {
		return ""
	}
	if e.ActionID != "" {
		return fmt.Sprintf("%s lookup failed: action %q on plugin %q", e.Kind, e.ActionID, e.PluginID)
	}
	return fmt.Sprintf("%s lookup failed: plugin %q", e.Kind, e.PluginID)
}

// NewDuplicateIDError reports a plugin id registered twice within one
// discovery pass. This is a fatal configuration error.
func NewDuplicateIDError(pluginID string) error {
	return &LookupError{Kind: "duplicate", PluginID: pluginID}
}

// Proxy indexes discovered plugins and their conditional actions by stable
// identifiers and resolves which actions are currently invokable given an
// exception state. It is created in the process where publishing actually
// runs; the UI only sees serialized action items.
type Proxy struct {
	pluginsByID         map[string]*Plugin
	actionsByPluginID   map[string]map[string]*Action
	actionIDsByPluginID map[string][]string
}

// NewProxy indexes the full discovered plugin list. Re-registering an id is a
// fatal configuration error.
func NewProxy(plugins []*Plugin) (*Proxy, error) {
	proxy := &Proxy{
		pluginsByID:         make(map[string]*Plugin, len(plugins)),
		actionsByPluginID:   make(map[string]map[string]*Action, len(plugins)),
		actionIDsByPluginID: make(map[string][]string, len(plugins)),
	}
	for _, p := range plugins {
		if p == nil {
			continue
		}
		if _, exists := proxy.pluginsByID[p.ID]; exists {
			return nil, NewDuplicateIDError(p.ID)
		}
		proxy.pluginsByID[p.ID] = p
	}
	return proxy, nil
}

// GetPlugin returns the plugin registered under the id.
func (p *Proxy) GetPlugin(pluginID string) (*Plugin, error) {
	plug, ok := p.pluginsByID[pluginID]
	if !ok {
		return nil, &LookupError{Kind: "plugin", PluginID: pluginID}
	}
	return plug, nil
}

// GetAction returns one of the plugin's currently active actions.
func (p *Proxy) GetAction(pluginID, actionID string) (*Action, error) {
	actions, ok := p.actionsByPluginID[pluginID]
	if !ok {
		return nil, &LookupError{Kind: "plugin", PluginID: pluginID}
	}
	action, ok := actions[actionID]
	if !ok {
		return nil, &LookupError{Kind: "action", PluginID: pluginID, ActionID: actionID}
	}
	return action, nil
}

// SetPluginActions recomputes which of the plugin's static actions are
// currently active given the exception raised by its last execution. Must be
// called after every plugin execution, not just on failure, so the action set
// resets to the no-error baseline on success.
func (p *Proxy) SetPluginActions(pluginID string, execErr error) error {
	plug, ok := p.pluginsByID[pluginID]
	if !ok {
		return &LookupError{Kind: "plugin", PluginID: pluginID}
	}

	actionIDs := make([]string, 0, len(plug.Actions))
	actionsByID := make(map[string]*Action, len(plug.Actions))
	for i := range plug.Actions {
		action := &plug.Actions[i]
		if !actionIsActive(action, execErr) {
			continue
		}
		actionIDs = append(actionIDs, action.ID)
		actionsByID[action.ID] = action
	}

	p.actionIDsByPluginID[pluginID] = actionIDs
	p.actionsByPluginID[pluginID] = actionsByID
	return nil
}

// GetPluginActionItems returns serializable items for the plugin's currently
// active actions.
func (p *Proxy) GetPluginActionItems(pluginID string) ([]ActionItem, error) {
	if _, ok := p.pluginsByID[pluginID]; !ok {
		return nil, &LookupError{Kind: "plugin", PluginID: pluginID}
	}
	items := make([]ActionItem, 0, len(p.actionIDsByPluginID[pluginID]))
	for _, actionID := range p.actionIDsByPluginID[pluginID] {
		action, err := p.GetAction(pluginID, actionID)
		if err != nil {
			return nil, err
		}
		items = append(items, ActionItem{
			ActionID: action.ID,
			PluginID: pluginID,
			Active:   action.Active,
			OnFilter: action.On,
			Label:    action.DisplayLabel(),
			Icon:     action.Icon,
		})
	}
	return items, nil
}

// actionIsActive decides whether an action is invokable given the last
// execution error: declared active, and either always-on, or matching the
// severity of a raised validation error.
func actionIsActive(action *Action, execErr error) bool {
	if !action.Active {
		return false
	}

	var verr *stagehanderrors.ValidationError
	pluginErrored := execErr != nil && errors.As(execErr, &verr)
	errorIsBlocking := pluginErrored && verr.Blocking

	switch action.On {
	case ActionOnAll:
		return true
	case ActionOnFailedOrWarning:
		return pluginErrored
	case ActionOnFailed:
		return pluginErrored && errorIsBlocking
	default:
		return false
	}
}
