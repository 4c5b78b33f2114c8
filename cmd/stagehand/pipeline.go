package main

import (
	"github.com/alexisbeaulieu97/stagehand/internal/create"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
)

// Pipeline bundles the externally discovered collaborators of one publish
// session. Hosts register theirs before Execute; plugin discovery mechanics
// stay outside this binary.
type Pipeline struct {
	Creators        []*create.Creator
	Convertors      []*create.Convertor
	PublishPlugins  []*plugin.Plugin
	DiscoverCrashes map[string]string
}

var appPipeline = &Pipeline{}

// SetPipeline installs the collaborators used by the run command.
func SetPipeline(p *Pipeline) {
	if p != nil {
		appPipeline = p
	}
}
