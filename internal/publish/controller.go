package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/create"
	"github.com/alexisbeaulieu97/stagehand/internal/events"
	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
	"github.com/alexisbeaulieu97/stagehand/internal/scratch"
	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// State is the derived run state of the controller.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"
	StateCrashed  State = "crashed"
)

// CardMessageType colors a transient card message in the UI.
type CardMessageType string

const (
	CardMessageStandard CardMessageType = "standard"
	CardMessageInfo     CardMessageType = "info"
	CardMessageError    CardMessageType = "error"
)

const (
	eventSource = "publish.controller"

	requestPublish  = "publish"
	requestValidate = "validate"

	// Headline for unrecognized plugin failures. The raw detail stays in the
	// technical report, never in the user-facing message.
	genericCrashMessage = "Something went wrong. Send the report to your supervisor."
)

// Options configures a publish controller.
type Options struct {
	// Interactive switches the validation halt policy: interactive sessions
	// pause on any validation error once validation is reached, batch runs
	// pause only on blocking ones. Host detection stays with the caller.
	Interactive   bool
	Logger        *logger.Logger
	Emitter       *events.Emitter
	CreateContext *create.Context
	Scratch       *scratch.Provider
	Context       context.Context
}

type unit struct {
	plug     *plugin.Plugin
	instance *model.Instance
}

// Controller drives a sequence of ordered publish plugins over the instance
// set, tracks validation and processing state and exposes serializable
// report snapshots. All plugin execution happens on the caller's goroutine;
// suspension occurs only at unit boundaries.
type Controller struct {
	interactive bool
	log         *logger.Logger
	emitter     *events.Emitter
	cctx        *create.Context
	scratch     *scratch.Provider
	runCtx      context.Context

	report           *ReportMaker
	validationErrors *ValidationErrors
	validationOrder  float64

	pctx    *model.Context
	proxy   *plugin.Proxy
	plugins []*plugin.Plugin

	isRunning          bool
	hasStarted         bool
	hasValidated       bool
	hasCrashed         bool
	hasValidationErrs  bool
	hasBlockingErrs    bool
	hasFinished        bool
	errorMessage       string
	progress           int
	maxProgress        int
	upValidation       bool
	commentSet         bool
	ignoreNonBlocking  bool
	lastRequest        string

	pluginIndex  int
	pendingUnits []unit
}

// NewController builds a controller over a prepared creation context. Reset
// must be called before the first Publish or Validate.
func NewController(opts Options) (*Controller, error) {
	if opts.CreateContext == nil {
		return nil, errors.New("create context is required")
	}

	log := opts.Logger
	if log == nil {
		var err error
		log, err = logger.New(logger.Options{})
		if err != nil {
			return nil, err
		}
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = events.NewEmitter(log)
	}
	provider := opts.Scratch
	if provider == nil {
		provider = scratch.NewProvider("")
	}
	runCtx := opts.Context
	if runCtx == nil {
		runCtx = context.Background()
	}

	return &Controller{
		interactive:      opts.Interactive,
		log:              log,
		emitter:          emitter,
		cctx:             opts.CreateContext,
		scratch:          provider,
		runCtx:           runCtx,
		report:           NewReportMaker(),
		validationErrors: NewValidationErrors(),
		validationOrder:  plugin.ValidatorOrder + plugin.OrderOffset,
	}, nil
}

// State derives the run state from the tracked flags.
func (c *Controller) State() State {
	switch {
	case c.hasCrashed:
		return StateCrashed
	case c.isRunning:
		return StateRunning
	case c.hasFinished:
		return StateFinished
	case c.hasStarted:
		return StatePaused
	default:
		return StateIdle
	}
}

func (c *Controller) IsRunning() bool              { return c.isRunning }
func (c *Controller) HasValidated() bool           { return c.hasValidated }
func (c *Controller) HasCrashed() bool             { return c.hasCrashed }
func (c *Controller) HasValidationErrors() bool    { return c.hasValidationErrs }
func (c *Controller) HasBlockingErrors() bool      { return c.hasBlockingErrs }
func (c *Controller) HasFinished() bool            { return c.hasFinished }
func (c *Controller) ErrorMessage() string         { return c.errorMessage }
func (c *Controller) Progress() int                { return c.progress }
func (c *Controller) MaxProgress() int             { return c.maxProgress }

// Reset tears down all run state, rebuilds plugins and instances through the
// creation context bridge and returns the controller to idle.
func (c *Controller) Reset() error {
	c.StopPublish()

	c.emit(events.TopicControllerResetStarted, nil)

	c.cctx.ResetPlugins()
	c.emit(events.TopicPluginsRefreshFinished, nil)

	c.resetInstances()

	if err := c.resetPublish(); err != nil {
		return err
	}

	c.emit(events.TopicControllerResetFinished, nil)
	c.EmitCardMessage("Refreshed..", CardMessageStandard)
	return nil
}

func (c *Controller) resetInstances() {
	if err := c.cctx.ResetInstances(); err != nil {
		c.emitOperationFailed(events.TopicInstanceCollectionFailed, "Instance collection failed", err)
	}
	if err := c.cctx.ExecuteAutocreators(); err != nil {
		c.emitOperationFailed(events.TopicInstancesCreateFailed, "Failed to create instances", err)
	}
	c.emit(events.TopicInstancesRefreshFinished, nil)
}

// resetPublish rebuilds per-run state only. It deliberately leaves the
// ignore-non-blocking override alone; that is cleared when a run stops.
func (c *Controller) resetPublish() error {
	c.resetAttributes()

	c.upValidation = false
	c.commentSet = false
	c.pluginIndex = 0
	c.pendingUnits = nil

	c.pctx = model.NewContext()
	c.pctx.Data["comment"] = ""
	for _, instance := range c.cctx.Instances() {
		c.pctx.AddInstance(instance)
	}

	c.plugins = c.cctx.PublishPlugins()
	proxy, err := plugin.NewProxy(c.plugins)
	if err != nil {
		return err
	}
	c.proxy = proxy

	if err := c.report.Reset(c.pctx, c.cctx); err != nil {
		return err
	}
	c.validationErrors.Reset(proxy)

	c.setMaxProgress(len(c.plugins))

	c.emit(events.TopicPublishResetFinished, nil)
	return nil
}

func (c *Controller) resetAttributes() {
	c.setIsRunning(false)
	c.hasStarted = false
	c.setHasValidated(false)
	c.setHasCrashed(false)
	c.setHasValidationErrors(false)
	c.setHasBlockingErrors(false)
	c.setHasFinished(false)
	c.setErrorMessage("")
	c.setProgress(0)
}

// SetComment stores the artist comment on the publish context. Only the
// first write per run takes effect; later calls are ignored until reset.
func (c *Controller) SetComment(comment string) {
	if c.commentSet || c.pctx == nil {
		return
	}
	c.pctx.Data["comment"] = comment
	c.commentSet = true
}

// Publish requests an unrestricted run to completion.
func (c *Controller) Publish() error {
	c.lastRequest = requestPublish
	c.upValidation = false
	return c.startPublish()
}

// Validate requests a run that halts once the validation boundary is
// crossed. No-op when validation already passed.
func (c *Controller) Validate() error {
	c.lastRequest = requestValidate
	if c.hasValidated {
		return nil
	}
	c.upValidation = true
	return c.startPublish()
}

func (c *Controller) startPublish() error {
	if c.isRunning {
		return nil
	}
	if c.proxy == nil {
		return errors.New("controller is not reset")
	}

	c.hasStarted = true
	c.setHasFinished(false)
	c.setIsRunning(true)

	c.emit(events.TopicProcessStarted, nil)

	return c.advance()
}

// StopPublish requests a pause. Takes effect only while running; run state
// is kept so a later Publish or Validate resumes from the next unit.
func (c *Controller) StopPublish() {
	if c.isRunning {
		c.stopPublish()
	}
}

func (c *Controller) stopPublish() {
	c.setIsRunning(false)
	c.ignoreNonBlocking = false
	c.emit(events.TopicProcessStopped, nil)
}

// IgnoreNonBlockingErrors sets the session override that drops non-blocking
// validation errors from run state, fully resets the run and resumes the
// previously requested mode from the top.
func (c *Controller) IgnoreNonBlockingErrors() error {
	c.ignoreNonBlocking = true
	if err := c.resetPublish(); err != nil {
		return err
	}

	if c.isRunning {
		c.log.Info("publishing is currently running and will continue")
		return nil
	}
	switch c.lastRequest {
	case requestValidate:
		return c.Validate()
	case requestPublish:
		return c.Publish()
	}
	return nil
}

// advance drives the run one unit at a time until a stop condition trips or
// the plugin list is exhausted. Validation-error and crash halt checks run
// between every two units, never inside one.
func (c *Controller) advance() error {
	for c.isRunning {
		if c.hasValidated && c.validationPolicyTripped() {
			c.stopPublish()
			return nil
		}
		if c.hasCrashed {
			c.stopPublish()
			return nil
		}

		if len(c.pendingUnits) > 0 {
			next := c.pendingUnits[0]
			c.pendingUnits = c.pendingUnits[1:]
			if err := c.executeUnit(next); err != nil {
				return err
			}
			continue
		}

		if c.pluginIndex >= len(c.plugins) {
			c.setHasFinished(true)
			c.setProgress(c.maxProgress)
			c.stopPublish()
			return nil
		}

		plug := c.plugins[c.pluginIndex]
		if !c.hasValidated && plug.Order >= c.validationOrder {
			c.setHasValidated(true)
		}
		if c.upValidation && c.hasValidated {
			// Requested scope is complete unless errors force a plain pause;
			// extractors and later stay pending either way.
			if !c.validationPolicyTripped() {
				c.setHasFinished(true)
			}
			c.stopPublish()
			return nil
		}
		// Re-check the halt policy in case this plugin just crossed the
		// boundary while errors were already recorded.
		if c.hasValidated && c.validationPolicyTripped() {
			c.stopPublish()
			return nil
		}

		if err := c.openPlugin(plug); err != nil {
			return err
		}
		c.pluginIndex++
	}
	return nil
}

// validationPolicyTripped applies the mode-dependent halt policy once the
// validation boundary was crossed. Interactive sessions let a human resolve
// any error; batch runs halt only for conditions no automated process can
// route to a human.
func (c *Controller) validationPolicyTripped() bool {
	if c.interactive {
		return c.hasValidationErrs
	}
	return c.hasBlockingErrs
}

// openPlugin registers the plugin with the report and queues its execution
// units. Instance-scoped plugins get one unit per family-matched active
// instance; context-scoped plugins get a single unit when their family
// filters intersect the active instance set.
func (c *Controller) openPlugin(plug *plugin.Plugin) error {
	c.setProgress(c.pluginIndex)

	if err := c.report.AddPluginIter(plug, c.pctx); err != nil {
		return err
	}

	if !plug.Eligible() {
		c.report.SetPluginSkipped()
		return nil
	}

	c.emit(events.TopicPluginChanged, map[string]any{
		"plugin_label": plug.DisplayLabel(),
	})

	if plug.InstanceScoped {
		matched := 0
		for _, instance := range c.pctx.Instances() {
			if !plug.MatchesFamilies(instance.AllFamilies()) {
				continue
			}
			matched++
			if !instance.Active {
				continue
			}
			c.pendingUnits = append(c.pendingUnits, unit{plug: plug, instance: instance})
		}
		if matched == 0 {
			c.report.SetPluginSkipped()
		}
		return nil
	}

	families := model.CollectFamilies(c.pctx.Instances(), true)
	if !plug.MatchesFamilies(families) {
		c.report.SetPluginSkipped()
		return nil
	}
	c.pendingUnits = append(c.pendingUnits, unit{plug: plug})
	return nil
}

// executeUnit runs one (plugin, instance) pair. Plugin failures never
// propagate; they are classified and absorbed into run state. Only registry
// desynchronization is allowed to escape as a hard fault.
func (c *Controller) executeUnit(u unit) error {
	instanceLabel := c.pctx.Label()
	if u.instance != nil {
		instanceLabel = u.instance.DisplayLabel()
	}
	c.emit(events.TopicInstanceChanged, map[string]any{
		"instance_label": instanceLabel,
	})

	capture := &logger.Capture{}
	plog := c.log.WithCapture(capture)

	start := time.Now()
	var execErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("plugin %q panicked: %v", u.plug.ID, r)
			}
		}()
		if u.plug.Process != nil {
			execErr = u.plug.Process(c.runCtx, c.pctx, u.instance, plog)
		}
	}()
	duration := time.Since(start)

	if err := c.proxy.SetPluginActions(u.plug.ID, execErr); err != nil {
		return err
	}

	result := &plugin.Result{
		Plugin:   u.plug,
		Instance: u.instance,
		Success:  execErr == nil,
		Err:      execErr,
		Records:  capture.Records(),
		Duration: duration,
	}

	if execErr != nil {
		var verr *stagehanderrors.ValidationError
		if errors.As(execErr, &verr) && !c.hasValidated {
			result.IsValidationError = true
			result.IsBlocking = verr.Blocking
			c.addValidationError(u.plug, verr, u.instance)
		} else {
			var kerr *stagehanderrors.KnownError
			message := genericCrashMessage
			if errors.As(execErr, &kerr) {
				message = kerr.Message
			}
			c.log.Error(execErr, "plugin crashed")
			c.setErrorMessage(message)
			c.setHasCrashed(true)
		}
	}

	c.report.AddResult(result)
	actionItems, err := c.proxy.GetPluginActionItems(u.plug.ID)
	if err != nil {
		return err
	}
	c.report.SetPluginActionItems(actionItems)
	return nil
}

func (c *Controller) addValidationError(plug *plugin.Plugin, verr *stagehanderrors.ValidationError, instance *model.Instance) {
	if verr.Title == "" {
		verr.Title = plug.DisplayLabel()
	}
	if !verr.Blocking && c.ignoreNonBlocking {
		c.log.Info("ignoring non-blocking error: " + verr.Title)
		return
	}

	c.setHasValidationErrors(true)
	if verr.Blocking {
		c.setHasBlockingErrors(true)
	}
	c.validationErrors.AddError(plug, verr, instance)
}

// RunAction executes one plugin action against the shared publish context
// outside the main iteration. Action failures are surfaced as a non-fatal
// notification and recorded in the report; lookup failures propagate.
func (c *Controller) RunAction(pluginID, actionID string) error {
	plug, err := c.proxy.GetPlugin(pluginID)
	if err != nil {
		return err
	}
	action, err := c.proxy.GetAction(pluginID, actionID)
	if err != nil {
		return err
	}

	capture := &logger.Capture{}
	start := time.Now()
	var execErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("action %q panicked: %v", action.ID, r)
			}
		}()
		if action.Run != nil {
			execErr = action.Run(c.runCtx, c.pctx, c.log.WithCapture(capture))
		}
	}()

	result := &plugin.Result{
		Plugin:   plug,
		Success:  execErr == nil,
		Err:      execErr,
		Records:  capture.Records(),
		Duration: time.Since(start),
	}

	if execErr != nil {
		c.emit(events.TopicActionFailed, map[string]any{
			"title":      "Action failed",
			"message":    "Action failed.",
			"traceback":  execErr.Error(),
			"label":      action.DisplayLabel(),
			"identifier": action.ID,
		})
	}
	if err := c.report.AddActionResult(action, result); err != nil {
		return err
	}

	c.EmitCardMessage("Action finished.", CardMessageStandard)
	return nil
}

// GetPublishReport snapshots the current run, including plugins that never
// ran.
func (c *Controller) GetPublishReport() *Report {
	return c.report.GetReport(c.plugins)
}

// GetValidationErrors snapshots the tracked validation errors.
func (c *Controller) GetValidationErrors() *ValidationErrorsReport {
	return c.validationErrors.CreateReport()
}

// CreatorItems lists the creators available for the create dialog.
func (c *Controller) CreatorItems() []create.CreatorItem {
	return c.cctx.CreatorItems()
}

// CreateInstance triggers one creator and refreshes the instance set.
// Reports success; creator failures surface as a notification, not an error.
func (c *Controller) CreateInstance(creatorIdentifier, productName string, data, options map[string]any) bool {
	_, err := c.cctx.Create(creatorIdentifier, productName, data, options)
	if err != nil {
		c.emitOperationFailed(events.TopicInstancesCreateFailed, "Creation failed", err)
	}
	c.emit(events.TopicInstancesRefreshFinished, nil)
	return err == nil
}

// SaveChanges persists instance changes through the owning creators.
func (c *Controller) SaveChanges() bool {
	if err := c.cctx.SaveChanges(); err != nil {
		c.emitOperationFailed(events.TopicInstancesSaveFailed, "Instances save failed", err)
		return false
	}
	c.EmitCardMessage("Saved changes..", CardMessageStandard)
	return true
}

// RemoveInstances removes instances by id and refreshes the instance set.
func (c *Controller) RemoveInstances(instanceIDs []string) {
	if err := c.cctx.RemoveInstances(instanceIDs); err != nil {
		c.emitOperationFailed(events.TopicInstancesRemoveFailed, "Instance removal failed", err)
	}
	c.emit(events.TopicInstancesRefreshFinished, nil)
}

// FindConvertorItems refreshes the convertible legacy items.
func (c *Controller) FindConvertorItems() {
	if err := c.cctx.FindConvertorItems(); err != nil {
		c.emitOperationFailed(events.TopicConvertorsFindFailed, "Failed to find convertible items", err)
	}
}

// TriggerConvertorItems runs the selected convertors and resets the
// controller so creators can collect the converted items.
func (c *Controller) TriggerConvertorItems(convertorIdentifiers []string) error {
	err := c.cctx.RunConvertors(convertorIdentifiers)
	if err != nil {
		c.emitOperationFailed(events.TopicConvertorsConvertFailed, "Conversion failed", err)
		c.EmitCardMessage("Conversion failed", CardMessageError)
	} else {
		c.EmitCardMessage("Conversion finished", CardMessageStandard)
	}
	return c.Reset()
}

// ThumbnailTempDir creates and returns the scratch directory for staging
// instance thumbnails.
func (c *Controller) ThumbnailTempDir() (string, error) {
	return c.scratch.Ensure()
}

// ClearThumbnailTempDir removes the staged thumbnail directory.
func (c *Controller) ClearThumbnailTempDir() error {
	return c.scratch.Clear()
}

// SetThumbnailPaths stages thumbnail paths per instance id.
func (c *Controller) SetThumbnailPaths(pathsByInstanceID map[string]string) {
	for instanceID, path := range pathsByInstanceID {
		c.cctx.SetThumbnailPath(instanceID, path)
	}
	c.emit(events.TopicThumbnailChanged, map[string]any{
		"mapping": pathsByInstanceID,
	})
}

// EmitCardMessage requests a transient card message in the UI.
func (c *Controller) EmitCardMessage(message string, messageType CardMessageType) {
	c.emit(events.TopicCardMessage, map[string]any{
		"message":      message,
		"message_type": string(messageType),
	})
}

func (c *Controller) emit(topic string, data map[string]any) {
	c.emitter.Emit(topic, eventSource, data)
}

func (c *Controller) emitOperationFailed(topic, title string, err error) {
	failedInfo := []map[string]any{{"message": err.Error()}}
	var opErr *stagehanderrors.OperationFailedError
	if errors.As(err, &opErr) {
		failedInfo = opErr.FailedInfo()
	}
	c.log.Error(err, title)
	c.emit(topic, map[string]any{
		"title":       title,
		"failed_info": failedInfo,
	})
}

func (c *Controller) setIsRunning(value bool) {
	if c.isRunning == value {
		return
	}
	c.isRunning = value
	c.emit(events.TopicIsRunningChanged, map[string]any{"value": value})
}

func (c *Controller) setHasValidated(value bool) {
	if c.hasValidated == value {
		return
	}
	c.hasValidated = value
	c.emit(events.TopicHasValidatedChanged, map[string]any{"value": value})
}

func (c *Controller) setHasCrashed(value bool) {
	if c.hasCrashed == value {
		return
	}
	c.hasCrashed = value
	c.emit(events.TopicHasCrashedChanged, map[string]any{"value": value})
}

func (c *Controller) setHasValidationErrors(value bool) {
	if c.hasValidationErrs == value {
		return
	}
	c.hasValidationErrs = value
	c.emit(events.TopicHasValidationErrorsChanged, map[string]any{"value": value})
}

func (c *Controller) setHasBlockingErrors(value bool) {
	if c.hasBlockingErrs == value {
		return
	}
	c.hasBlockingErrs = value
	c.emit(events.TopicHasBlockingErrorsChanged, map[string]any{"value": value})
}

func (c *Controller) setHasFinished(value bool) {
	if c.hasFinished == value {
		return
	}
	c.hasFinished = value
	c.emit(events.TopicFinishedChanged, map[string]any{"value": value})
}

func (c *Controller) setErrorMessage(value string) {
	if c.errorMessage == value {
		return
	}
	c.errorMessage = value
	c.emit(events.TopicErrorMessageChanged, map[string]any{"value": value})
}

func (c *Controller) setProgress(value int) {
	if c.progress == value {
		return
	}
	c.progress = value
	c.emit(events.TopicProgressChanged, map[string]any{"value": value})
}

func (c *Controller) setMaxProgress(value int) {
	if c.maxProgress == value {
		return
	}
	c.maxProgress = value
	c.emit(events.TopicMaxProgressChanged, map[string]any{"value": value})
}
