package create

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// Options configures a creation context.
type Options struct {
	Logger         *logger.Logger
	Creators       []*Creator
	Convertors     []*Convertor
	PublishPlugins []*plugin.Plugin
	Targets        []string
	// DiscoverCrashes carries discovery-time plugin import failures keyed by
	// source file path with their trace text. They are retained for reports
	// rather than blocking startup.
	DiscoverCrashes map[string]string
}

// Context mediates creation, update and removal of publish instances and
// invokes host-provided creators. Bulk mutations are wrapped so a failure
// from one creator does not prevent others from running; the aggregate
// failure carries per-item detail.
type Context struct {
	log     *logger.Logger
	targets []string

	creators     map[string]*Creator
	creatorOrder []string

	convertors     map[string]*Convertor
	convertorOrder []string
	convertorItems map[string]ConvertorItem

	allPublishPlugins []*plugin.Plugin
	publishPlugins    []*plugin.Plugin
	mismatchedPlugins []*plugin.Plugin

	discoverCrashes map[string]string

	instances      []*model.Instance
	instancesByID  map[string]*model.Instance
	thumbnailPaths map[string]string

	resettingPlugins   bool
	resettingInstances bool
}

// NewContext builds a creation context from discovered collaborators.
// Duplicate creator or convertor identifiers are fatal configuration errors.
func NewContext(opts Options) (*Context, error) {
	cctx := &Context{
		log:               opts.Logger,
		targets:           append([]string(nil), opts.Targets...),
		creators:          make(map[string]*Creator, len(opts.Creators)),
		convertors:        make(map[string]*Convertor, len(opts.Convertors)),
		convertorItems:    map[string]ConvertorItem{},
		allPublishPlugins: append([]*plugin.Plugin(nil), opts.PublishPlugins...),
		discoverCrashes:   map[string]string{},
		instancesByID:     map[string]*model.Instance{},
		thumbnailPaths:    map[string]string{},
	}
	if len(cctx.targets) == 0 {
		cctx.targets = []string{"local"}
	}
	for path, trace := range opts.DiscoverCrashes {
		cctx.discoverCrashes[path] = trace
	}

	for _, creator := range opts.Creators {
		if creator == nil {
			continue
		}
		if _, exists := cctx.creators[creator.Identifier]; exists {
			return nil, fmt.Errorf("creator %q already registered", creator.Identifier)
		}
		cctx.creators[creator.Identifier] = creator
		cctx.creatorOrder = append(cctx.creatorOrder, creator.Identifier)
	}

	for _, convertor := range opts.Convertors {
		if convertor == nil {
			continue
		}
		if _, exists := cctx.convertors[convertor.Identifier]; exists {
			return nil, fmt.Errorf("convertor %q already registered", convertor.Identifier)
		}
		cctx.convertors[convertor.Identifier] = convertor
		cctx.convertorOrder = append(cctx.convertorOrder, convertor.Identifier)
	}

	cctx.ResetPlugins()
	return cctx, nil
}

// Targets returns the pipeline targets of the current session.
func (c *Context) Targets() []string {
	return append([]string(nil), c.targets...)
}

// ResetPlugins re-splits discovered publish plugins into target-matched and
// mismatched sets and sorts the matched list by declared order. Guarded
// against re-invocation from event callbacks.
func (c *Context) ResetPlugins() {
	if c.resettingPlugins {
		return
	}
	c.resettingPlugins = true
	defer func() { c.resettingPlugins = false }()

	matched := make([]*plugin.Plugin, 0, len(c.allPublishPlugins))
	mismatched := make([]*plugin.Plugin, 0)
	for _, p := range c.allPublishPlugins {
		if p == nil {
			continue
		}
		if p.MatchesTargets(c.targets) {
			matched = append(matched, p)
		} else {
			mismatched = append(mismatched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Order < matched[j].Order
	})
	c.publishPlugins = matched
	c.mismatchedPlugins = mismatched
}

// PublishPlugins returns target-matched plugins in ascending declared order.
func (c *Context) PublishPlugins() []*plugin.Plugin {
	return append([]*plugin.Plugin(nil), c.publishPlugins...)
}

// PluginsMismatchTargets returns plugins filtered out at discovery because
// their target set does not intersect the session targets.
func (c *Context) PluginsMismatchTargets() []*plugin.Plugin {
	return append([]*plugin.Plugin(nil), c.mismatchedPlugins...)
}

// DiscoverCrashes returns discovery-time failures keyed by source file path.
func (c *Context) DiscoverCrashes() map[string]string {
	out := make(map[string]string, len(c.discoverCrashes))
	for path, trace := range c.discoverCrashes {
		out[path] = trace
	}
	return out
}

// CreatorItems returns serializable creator snapshots ordered by show order,
// registration order breaking ties. Hidden creators are excluded.
func (c *Context) CreatorItems() []CreatorItem {
	items := make([]CreatorItem, 0, len(c.creatorOrder))
	for _, identifier := range c.creatorOrder {
		creator := c.creators[identifier]
		if creator.Type == CreatorTypeHidden {
			continue
		}
		items = append(items, NewCreatorItem(creator))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ShowOrder < items[j].ShowOrder
	})
	return items
}

// ResetInstances clears the instance set and asks every collecting creator
// for its existing instances. A failing creator does not stop the others;
// their failures are aggregated into one OperationFailedError. Guarded
// against re-invocation from event callbacks.
func (c *Context) ResetInstances() error {
	if c.resettingInstances {
		return nil
	}
	c.resettingInstances = true
	defer func() { c.resettingInstances = false }()

	c.instances = nil
	c.instancesByID = map[string]*model.Instance{}

	var failures []stagehanderrors.ItemFailure
	for _, identifier := range c.creatorOrder {
		creator := c.creators[identifier]
		if creator.Collect == nil {
			continue
		}
		collected, err := creator.Collect(c)
		if err != nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "instance collection failed",
				Err:        err,
			})
			continue
		}
		for _, instance := range collected {
			c.registerInstance(creator, instance)
		}
	}

	return c.operationFailed("instance collection", failures)
}

// ExecuteAutocreators runs every auto creator's Create capability. Failures
// are aggregated; successful creators still produce their instances.
func (c *Context) ExecuteAutocreators() error {
	var failures []stagehanderrors.ItemFailure
	for _, identifier := range c.creatorOrder {
		creator := c.creators[identifier]
		if creator.Type != CreatorTypeAuto || creator.Create == nil {
			continue
		}
		instance, err := creator.Create(c, creator.ProductType, nil, nil)
		if err != nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "autocreation failed",
				Err:        err,
			})
			continue
		}
		c.registerInstance(creator, instance)
	}

	return c.operationFailed("autocreation", failures)
}

// Create triggers one creator by identifier and registers the produced
// instance. Partial failure detail is carried in an OperationFailedError.
func (c *Context) Create(creatorIdentifier, productName string, data, options map[string]any) (*model.Instance, error) {
	creator, ok := c.creators[creatorIdentifier]
	if !ok || creator.Create == nil {
		return nil, c.operationFailed("creation", []stagehanderrors.ItemFailure{{
			Identifier: creatorIdentifier,
			Message:    "creator is not available",
		}})
	}

	instance, err := creator.Create(c, productName, data, options)
	if err != nil {
		return nil, c.operationFailed("creation", []stagehanderrors.ItemFailure{{
			Identifier: creatorIdentifier,
			Message:    "creation failed",
			Err:        err,
		}})
	}
	c.registerInstance(creator, instance)
	return instance, nil
}

// SaveChanges persists instance attribute changes through each owning
// creator. One failing creator does not prevent the others from saving.
func (c *Context) SaveChanges() error {
	byCreator := c.instancesByCreator()

	var failures []stagehanderrors.ItemFailure
	for _, identifier := range c.creatorOrder {
		instances, ok := byCreator[identifier]
		if !ok {
			continue
		}
		creator := c.creators[identifier]
		if creator.Save == nil {
			continue
		}
		if err := creator.Save(c, instances); err != nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "save failed",
				Err:        err,
			})
		}
	}

	return c.operationFailed("save", failures)
}

// RemoveInstances removes instances by id through their owning creators.
// Instances whose creator removal fails stay in the context.
func (c *Context) RemoveInstances(instanceIDs []string) error {
	byCreator := map[string][]*model.Instance{}
	var failures []stagehanderrors.ItemFailure
	for _, instanceID := range instanceIDs {
		instance, ok := c.instancesByID[instanceID]
		if !ok {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: instanceID,
				Message:    "instance is not available",
			})
			continue
		}
		identifier := instance.CreatorIdentifier
		byCreator[identifier] = append(byCreator[identifier], instance)
	}

	for identifier, instances := range byCreator {
		creator, ok := c.creators[identifier]
		if !ok {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "creator is not available",
			})
			continue
		}
		if creator.Remove != nil {
			if err := creator.Remove(c, instances); err != nil {
				failures = append(failures, stagehanderrors.ItemFailure{
					Identifier: identifier,
					Message:    "removal failed",
					Err:        err,
				})
				continue
			}
		}
		for _, instance := range instances {
			c.dropInstance(instance.ID)
		}
	}

	return c.operationFailed("removal", failures)
}

// FindConvertorItems asks every convertor for convertible legacy items.
func (c *Context) FindConvertorItems() error {
	c.convertorItems = map[string]ConvertorItem{}

	var failures []stagehanderrors.ItemFailure
	for _, identifier := range c.convertorOrder {
		convertor := c.convertors[identifier]
		if convertor.Find == nil {
			continue
		}
		items, err := convertor.Find(c)
		if err != nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "convertor find failed",
				Err:        err,
			})
			continue
		}
		for _, item := range items {
			c.convertorItems[item.Identifier] = item
		}
	}

	return c.operationFailed("convertor find", failures)
}

// ConvertorItems returns the convertible legacy items found by the last
// FindConvertorItems call, keyed by identifier.
func (c *Context) ConvertorItems() map[string]ConvertorItem {
	out := make(map[string]ConvertorItem, len(c.convertorItems))
	for identifier, item := range c.convertorItems {
		out[identifier] = item
	}
	return out
}

// RunConvertors triggers the selected convertors. Converted items become
// instances on the next instance reset.
func (c *Context) RunConvertors(convertorIdentifiers []string) error {
	var failures []stagehanderrors.ItemFailure
	for _, identifier := range convertorIdentifiers {
		convertor, ok := c.convertors[identifier]
		if !ok || convertor.Convert == nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "convertor is not available",
			})
			continue
		}
		if err := convertor.Convert(c); err != nil {
			failures = append(failures, stagehanderrors.ItemFailure{
				Identifier: identifier,
				Message:    "conversion failed",
				Err:        err,
			})
		}
	}

	return c.operationFailed("conversion", failures)
}

// GetProductName delegates product-name computation to the creator,
// parameterized by resolved folder/task entities. Creators without the
// capability get a composed default.
func (c *Context) GetProductName(creatorIdentifier string, folder, task *Entity, variant string, instanceID string) (string, error) {
	creator, ok := c.creators[creatorIdentifier]
	if !ok {
		return "", fmt.Errorf("creator %q is not available", creatorIdentifier)
	}

	var instance *model.Instance
	if instanceID != "" {
		instance = c.instancesByID[instanceID]
	}

	if creator.ProductName != nil {
		return creator.ProductName(folder, task, variant, instance)
	}
	return creator.ProductType + capitalize(variant), nil
}

// Instances returns the current instances in registration order.
func (c *Context) Instances() []*model.Instance {
	return append([]*model.Instance(nil), c.instances...)
}

// InstanceByID returns an instance or nil.
func (c *Context) InstanceByID(instanceID string) *model.Instance {
	return c.instancesByID[instanceID]
}

// SetThumbnailPath stages a thumbnail path for an instance. An empty path
// clears the staged thumbnail.
func (c *Context) SetThumbnailPath(instanceID, path string) {
	if path == "" {
		delete(c.thumbnailPaths, instanceID)
		return
	}
	c.thumbnailPaths[instanceID] = path
}

// ThumbnailPaths returns staged thumbnail paths for the passed instance ids.
// Instances without a staged thumbnail map to an empty string.
func (c *Context) ThumbnailPaths(instanceIDs []string) map[string]string {
	out := make(map[string]string, len(instanceIDs))
	for _, instanceID := range instanceIDs {
		out[instanceID] = c.thumbnailPaths[instanceID]
	}
	return out
}

// operationFailed logs each item failure and wraps them into one aggregate
// error, so per-item detail reaches the log even when the caller only
// surfaces the aggregate. Returns nil when nothing failed.
func (c *Context) operationFailed(operation string, failures []stagehanderrors.ItemFailure) error {
	if len(failures) == 0 {
		return nil
	}
	for _, failure := range failures {
		c.log.Error(failure.Err, fmt.Sprintf("%s failed for %q: %s",
			operation, failure.Identifier, failure.Message))
	}
	return stagehanderrors.NewOperationFailedError(operation, failures)
}

func (c *Context) registerInstance(creator *Creator, instance *model.Instance) {
	if instance == nil {
		return
	}
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if instance.CreatorIdentifier == "" {
		instance.CreatorIdentifier = creator.Identifier
	}
	if instance.ProductType == "" {
		instance.ProductType = creator.ProductType
	}
	if _, exists := c.instancesByID[instance.ID]; exists {
		return
	}
	c.instances = append(c.instances, instance)
	c.instancesByID[instance.ID] = instance
}

func (c *Context) dropInstance(instanceID string) {
	delete(c.instancesByID, instanceID)
	delete(c.thumbnailPaths, instanceID)
	for i, instance := range c.instances {
		if instance.ID == instanceID {
			c.instances = append(c.instances[:i], c.instances[i+1:]...)
			break
		}
	}
}

func (c *Context) instancesByCreator() map[string][]*model.Instance {
	out := map[string][]*model.Instance{}
	for _, instance := range c.instances {
		out[instance.CreatorIdentifier] = append(out[instance.CreatorIdentifier], instance)
	}
	return out
}

func capitalize(value string) string {
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
