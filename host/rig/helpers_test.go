package rig

import (
	"gopkg.in/yaml.v3"

	"liftctl/config"
)

// yamlRoundTrip writes cfg out and loads it back so defaults are applied
// the way a config file would get them
func yamlRoundTrip(cfg *config.LiftConfig) (*config.LiftConfig, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return config.LoadYAML(data)
}
