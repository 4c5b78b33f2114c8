package config

// Config is the runner configuration loaded from a YAML file. It describes
// one headless publish session: halt policy, pipeline targets and the
// scratch location for staged artifacts.
type Config struct {
	Version     string   `yaml:"version" validate:"required,semver"`
	Name        string   `yaml:"name" validate:"required"`
	LogLevel    string   `yaml:"log_level" validate:"omitempty,log_level"`
	Interactive bool     `yaml:"interactive"`
	Targets     []string `yaml:"targets" validate:"omitempty,dive,target_name"`
	Comment     string   `yaml:"comment"`
	ScratchDir  string   `yaml:"scratch_dir"`
}

// EffectiveTargets returns the configured targets, defaulting to the local
// pipeline pass.
func (c *Config) EffectiveTargets() []string {
	if len(c.Targets) == 0 {
		return []string{"local"}
	}
	return append([]string(nil), c.Targets...)
}

// EffectiveLogLevel returns the configured log level, defaulting to info.
func (c *Config) EffectiveLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}
