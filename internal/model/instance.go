package model

import "sort"

// Instance is one unit of content slated for publishing. Instances are
// created by creators through the creation context bridge and read by the
// orchestrator; the Active flag is the artist-facing "publish" toggle.
type Instance struct {
	ID                string
	Name              string
	Label             string
	ProductType       string
	Family            string
	Families          []string
	Active            bool
	CreatorIdentifier string
	Variant           string
	FolderPath        string
	TaskName          string
	CreatorAttributes map[string]any
	PublishAttributes map[string]any
}

// DisplayLabel returns the label shown to artists, falling back to the name.
func (i *Instance) DisplayLabel() string {
	if i == nil {
		return ""
	}
	if i.Label != "" {
		return i.Label
	}
	return i.Name
}

// AllFamilies returns the instance's product classification set: the primary
// family plus any additional families.
func (i *Instance) AllFamilies() []string {
	if i == nil {
		return nil
	}
	out := make([]string, 0, len(i.Families)+1)
	if i.Family != "" {
		out = append(out, i.Family)
	}
	out = append(out, i.Families...)
	return out
}

// CollectFamilies gathers all distinct families across the passed instances.
// With onlyActive set, instances with the publish toggle off are skipped.
// The result is sorted for deterministic matching.
func CollectFamilies(instances []*Instance, onlyActive bool) []string {
	seen := make(map[string]struct{})
	for _, instance := range instances {
		if instance == nil {
			continue
		}
		if onlyActive && !instance.Active {
			continue
		}
		for _, family := range instance.AllFamilies() {
			seen[family] = struct{}{}
		}
	}

	families := make([]string, 0, len(seen))
	for family := range seen {
		families = append(families, family)
	}
	sort.Strings(families)
	return families
}
