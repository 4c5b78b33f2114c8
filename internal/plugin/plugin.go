package plugin

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
)

// Well-known order constants. A plugin's numeric order determines execution
// sequence and which publish phase it belongs to.
const (
	CollectorOrder  float64 = 0
	ValidatorOrder  float64 = 1
	ExtractorOrder  float64 = 2
	IntegratorOrder float64 = 3

	// OrderOffset is added to ValidatorOrder to form the validation boundary:
	// plugins at or above ValidatorOrder+OrderOffset are extractors or later.
	OrderOffset float64 = 0.5
)

// ProcessFunc is a plugin's execution entry point. The instance is nil for
// context-scoped plugins. Log output written through the supplied logger is
// captured into the publish report.
type ProcessFunc func(ctx context.Context, pctx *model.Context, instance *model.Instance, log *logger.Logger) error

// Plugin is one ordered, opaque unit of publish logic. Plugins are immutable
// during a publish run; they are discovered externally and referenced by id.
//
// EnabledByDefault and Optional are deliberately separate: the first is the
// UI default for the artist toggle, the second marks the plugin as skippable.
// An optional plugin is still eligible to run even when its default is off.
type Plugin struct {
	ID               string
	Name             string
	Label            string
	Order            float64
	Targets          []string
	Families         []string
	Optional         bool
	EnabledByDefault bool
	InstanceScoped   bool
	Actions          []Action
	Process          ProcessFunc
}

// DisplayLabel returns the label shown to artists, falling back to the name.
func (p *Plugin) DisplayLabel() string {
	if p == nil {
		return ""
	}
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Eligible reports whether the plugin should run at all during a publish.
func (p *Plugin) Eligible() bool {
	if p == nil {
		return false
	}
	return p.EnabledByDefault || p.Optional
}

// MatchesFamilies reports whether the plugin's family filters intersect the
// passed set. A plugin with no filters matches everything.
func (p *Plugin) MatchesFamilies(families []string) bool {
	if p == nil {
		return false
	}
	if len(p.Families) == 0 {
		return true
	}
	for _, want := range p.Families {
		if want == "*" {
			return true
		}
		for _, have := range families {
			if want == have {
				return true
			}
		}
	}
	return false
}

// MatchesTargets reports whether the plugin participates in any of the passed
// pipeline targets. A plugin with no targets matches everything.
func (p *Plugin) MatchesTargets(targets []string) bool {
	if p == nil {
		return false
	}
	if len(p.Targets) == 0 {
		return true
	}
	for _, want := range p.Targets {
		for _, have := range targets {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Result is the structured outcome of executing one plugin against the
// publish context and optionally one instance.
type Result struct {
	Plugin            *Plugin
	Instance          *model.Instance
	Success           bool
	Err               error
	Records           []logger.Record
	Duration          time.Duration
	IsValidationError bool
	IsBlocking        bool
}
