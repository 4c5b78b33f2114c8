package publish

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/stagehand/internal/create"
	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
)

// ReportVersion marks the serialized report schema so older consumers can
// detect incompatible future reports.
const ReportVersion = "1.0.1"

// LogEntry is one log line of a plugin or action execution in the report.
type LogEntry struct {
	Type       string `json:"type"`
	Msg        string `json:"msg"`
	LevelName  string `json:"levelname"`
	IsDebug    bool   `json:"is_debug"`
	IsInfo     bool   `json:"is_info"`
	IsWarning  bool   `json:"is_warning"`
	IsError    bool   `json:"is_error"`
	IsCritical bool   `json:"is_critical"`
	InstanceID string `json:"instance_id,omitempty"`
}

// InstanceLogRecord is one instance-scoped execution entry under a plugin.
type InstanceLogRecord struct {
	ID          string     `json:"id"`
	Logs        []LogEntry `json:"logs"`
	ProcessTime float64    `json:"process_time"`
}

// ActionRecord is the outcome of one manually triggered plugin action.
type ActionRecord struct {
	Success bool       `json:"success"`
	Name    string     `json:"name"`
	Label   string     `json:"label"`
	Logs    []LogEntry `json:"logs"`
}

// PluginRecord is the execution state of one plugin within a report.
type PluginRecord struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Label         string              `json:"label"`
	Order         float64             `json:"order"`
	Targets       []string            `json:"targets"`
	InstancesData []InstanceLogRecord `json:"instances_data"`
	ActionItems   []plugin.ActionItem `json:"action_items"`
	ActionsData   []ActionRecord      `json:"actions_data"`
	Skipped       bool                `json:"skipped"`
	Passed        bool                `json:"passed"`
	Errored       bool                `json:"errored"`
	IsBlocking    bool                `json:"is_blocking"`
}

// InstanceDetail is the classification snapshot of one encountered instance.
type InstanceDetail struct {
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	ProductType       string   `json:"product_type"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	Exists            bool     `json:"exists"`
	CreatorIdentifier string   `json:"creator_identifier"`
	InstanceID        string   `json:"instance_id"`
}

// ContextDetail labels the publish context in the report.
type ContextDetail struct {
	Label string `json:"label"`
}

// Report is an immutable, fully serializable snapshot of one publish run,
// suitable for cross-process transfer.
type Report struct {
	PluginsData      []PluginRecord            `json:"plugins_data"`
	Instances        map[string]InstanceDetail `json:"instances"`
	Context          ContextDetail             `json:"context"`
	CrashedFilePaths map[string]string         `json:"crashed_file_paths"`
	ID               string                    `json:"id"`
	CreatedAt        string                    `json:"created_at"`
	ReportVersion    string                    `json:"report_version"`
}

// ReportMaker accumulates per-plugin, per-instance execution logs and timing
// for a single publishing process, independent of live controller state.
type ReportMaker struct {
	pluginDataByID   map[string]*PluginRecord
	pluginOrder      []string
	currentPluginID  string
	allInstancesByID map[string]*model.Instance
	instanceOrder    []string
	currentContext   *model.Context
	crashedFilePaths map[string]string
}

// NewReportMaker creates an empty report maker.
func NewReportMaker() *ReportMaker {
	maker := &ReportMaker{}
	maker.clear()
	return maker
}

func (m *ReportMaker) clear() {
	m.pluginDataByID = map[string]*PluginRecord{}
	m.pluginOrder = nil
	m.currentPluginID = ""
	m.allInstancesByID = map[string]*model.Instance{}
	m.instanceOrder = nil
	m.currentContext = nil
	m.crashedFilePaths = map[string]string{}
}

// Reset clears per-run bookkeeping and captures discovery-phase diagnostics
// from the creation context. Plugins filtered out at discovery because of a
// target mismatch are recorded as pre-skipped.
func (m *ReportMaker) Reset(pctx *model.Context, cctx *create.Context) error {
	m.clear()
	m.currentContext = pctx
	if cctx == nil {
		return nil
	}

	for path, trace := range cctx.DiscoverCrashes() {
		m.crashedFilePaths[path] = trace
	}
	for _, plug := range cctx.PluginsMismatchTargets() {
		record, err := m.addPluginRecord(plug)
		if err != nil {
			return err
		}
		record.Skipped = true
	}
	return nil
}

// AddPluginIter opens a new current-plugin record, marking the previous one
// passed and absorbing any instances newly visible in the context. Collectors
// may attach instances mid-run.
func (m *ReportMaker) AddPluginIter(plug *plugin.Plugin, pctx *model.Context) error {
	for _, instance := range pctx.Instances() {
		if _, known := m.allInstancesByID[instance.ID]; !known {
			m.allInstancesByID[instance.ID] = instance
			m.instanceOrder = append(m.instanceOrder, instance.ID)
		}
	}

	if current, ok := m.pluginDataByID[m.currentPluginID]; ok {
		current.Passed = true
	}

	record, err := m.addPluginRecord(plug)
	if err != nil {
		return err
	}
	m.currentPluginID = record.ID
	return nil
}

// A plugin processed twice means either a controller bug or the same plugin
// registered under two ids colliding back to one. Hard fault.
func (m *ReportMaker) addPluginRecord(plug *plugin.Plugin) (*PluginRecord, error) {
	if _, exists := m.pluginDataByID[plug.ID]; exists {
		return nil, fmt.Errorf("plugin %q is already stored", plug.ID)
	}
	record := newPluginRecord(plug)
	m.pluginDataByID[plug.ID] = record
	m.pluginOrder = append(m.pluginOrder, plug.ID)
	return record, nil
}

func newPluginRecord(plug *plugin.Plugin) *PluginRecord {
	return &PluginRecord{
		ID:            plug.ID,
		Name:          plug.Name,
		Label:         plug.Label,
		Order:         plug.Order,
		Targets:       append([]string(nil), plug.Targets...),
		InstancesData: []InstanceLogRecord{},
		ActionItems:   []plugin.ActionItem{},
		ActionsData:   []ActionRecord{},
	}
}

// SetPluginSkipped flags the current plugin as skipped.
func (m *ReportMaker) SetPluginSkipped() {
	if record, ok := m.pluginDataByID[m.currentPluginID]; ok {
		record.Skipped = true
	}
}

// SetPluginActionItems stores the current plugin's active action items.
func (m *ReportMaker) SetPluginActionItems(actionItems []plugin.ActionItem) {
	if record, ok := m.pluginDataByID[m.currentPluginID]; ok {
		record.ActionItems = append([]plugin.ActionItem(nil), actionItems...)
	}
}

// AddResult appends one execution record of the current plugin and updates
// its errored/blocking flags from the result.
func (m *ReportMaker) AddResult(result *plugin.Result) {
	record, ok := m.pluginDataByID[m.currentPluginID]
	if !ok {
		return
	}

	instanceID := ""
	if result.Instance != nil {
		instanceID = result.Instance.ID
	}
	logs := extractLogEntries(result.Records, result.Err)
	for i := range logs {
		logs[i].InstanceID = instanceID
	}
	record.InstancesData = append(record.InstancesData, InstanceLogRecord{
		ID:          instanceID,
		Logs:        logs,
		ProcessTime: result.Duration.Seconds(),
	})
	record.Errored = result.IsValidationError
	record.IsBlocking = result.IsBlocking
}

// AddActionResult records a manually triggered action's outcome against the
// owning plugin, which need not be the current one.
func (m *ReportMaker) AddActionResult(action *plugin.Action, result *plugin.Result) error {
	record, ok := m.pluginDataByID[result.Plugin.ID]
	if !ok {
		added, err := m.addPluginRecord(result.Plugin)
		if err != nil {
			return err
		}
		record = added
	}

	record.ActionsData = append(record.ActionsData, ActionRecord{
		Success: result.Success,
		Name:    action.Name,
		Label:   action.DisplayLabel(),
		Logs:    extractLogEntries(result.Records, result.Err),
	})
	return nil
}

// GetReport produces a complete snapshot of the current state. Plugins that
// never ran appear as not-yet-processed; the currently open plugin is always
// surfaced as passed so a paused report never shows a dangling in-progress
// plugin.
func (m *ReportMaker) GetReport(allPlugins []*plugin.Plugin) *Report {
	pluginsData := make([]PluginRecord, 0, len(m.pluginOrder))
	seen := make(map[string]struct{}, len(m.pluginOrder))
	for _, pluginID := range m.pluginOrder {
		record := *m.pluginDataByID[pluginID]
		if pluginID == m.currentPluginID {
			record.Passed = true
		}
		pluginsData = append(pluginsData, record)
		seen[pluginID] = struct{}{}
	}
	for _, plug := range allPlugins {
		if _, ok := seen[plug.ID]; ok {
			continue
		}
		pluginsData = append(pluginsData, *newPluginRecord(plug))
	}

	contextInstances := map[string]struct{}{}
	if m.currentContext != nil {
		for _, instance := range m.currentContext.Instances() {
			contextInstances[instance.ID] = struct{}{}
		}
	}
	instances := make(map[string]InstanceDetail, len(m.instanceOrder))
	for _, instanceID := range m.instanceOrder {
		instance := m.allInstancesByID[instanceID]
		_, exists := contextInstances[instanceID]
		instances[instanceID] = InstanceDetail{
			Name:              instance.Name,
			Label:             instance.DisplayLabel(),
			ProductType:       instance.ProductType,
			Family:            instance.Family,
			Families:          append([]string(nil), instance.Families...),
			Exists:            exists,
			CreatorIdentifier: instance.CreatorIdentifier,
			InstanceID:        instance.ID,
		}
	}

	crashedFilePaths := make(map[string]string, len(m.crashedFilePaths))
	for path, trace := range m.crashedFilePaths {
		crashedFilePaths[path] = trace
	}

	contextLabel := "Context"
	if m.currentContext != nil {
		contextLabel = m.currentContext.Label()
	}

	return &Report{
		PluginsData:      pluginsData,
		Instances:        instances,
		Context:          ContextDetail{Label: contextLabel},
		CrashedFilePaths: crashedFilePaths,
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().Format(time.RFC3339),
		ReportVersion:    ReportVersion,
	}
}

// extractLogEntries converts captured log records, plus a raised error if
// any, into report log entries.
func extractLogEntries(records []logger.Record, execErr error) []LogEntry {
	entries := make([]LogEntry, 0, len(records)+1)
	for _, record := range records {
		entry := LogEntry{
			Type:      "record",
			Msg:       record.Message,
			LevelName: record.Level,
		}
		switch record.Level {
		case zerolog.LevelDebugValue, zerolog.LevelTraceValue:
			entry.IsDebug = true
		case zerolog.LevelInfoValue:
			entry.IsInfo = true
		case zerolog.LevelWarnValue:
			entry.IsWarning = true
		case zerolog.LevelErrorValue:
			entry.IsError = true
		case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
			entry.IsCritical = true
		}
		entries = append(entries, entry)
	}

	if execErr != nil {
		entries = append(entries, LogEntry{
			Type:      "error",
			Msg:       execErr.Error(),
			LevelName: zerolog.LevelErrorValue,
			IsError:   true,
		})
	}
	return entries
}
