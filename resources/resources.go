// Package resources bundles the scenario definitions shipped with the binary.
package resources

import "embed"

//go:embed scenarios/*.yaml
var ScenarioFiles embed.FS
