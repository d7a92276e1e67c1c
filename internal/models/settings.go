package models

// AnalyzerConfig holds configuration for the external semantic analyzer.
type AnalyzerConfig struct {
	Command          []string `yaml:"command"`            // argv; empty = lookup "glassbox-analyzer" in PATH
	QueryTimeoutSecs int      `yaml:"query_timeout_secs"` // per-query wait bound
	IdleShutdownSecs int      `yaml:"idle_shutdown_secs"` // session reaped after this much inactivity
}

// AnalyticsConfig holds PostHog settings. An empty API key disables capture.
type AnalyticsConfig struct {
	APIKey string `yaml:"api_key"`
	Host   string `yaml:"host"`
}

// Settings represents global daemon settings.
// This corresponds to ~/.glassbox/settings.yaml.
type Settings struct {
	Version       int             `yaml:"version"`
	Listen        string          `yaml:"listen"`
	WorkspaceRoot string          `yaml:"workspace_root"`
	ProfileFile   string          `yaml:"profile_file"`
	MaxFileLines  int             `yaml:"max_file_lines"`
	Analyzer      AnalyzerConfig  `yaml:"analyzer"`
	Analytics     AnalyticsConfig `yaml:"analytics"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:      1,
		Listen:       "127.0.0.1:8790",
		ProfileFile:  "", // empty means ~/.glassbox/profile.yaml
		MaxFileLines: 500,
		Analyzer: AnalyzerConfig{
			Command:          nil, // lookup in PATH
			QueryTimeoutSecs: 10,
			IdleShutdownSecs: 300,
		},
		Analytics: AnalyticsConfig{
			Host: "https://us.i.posthog.com",
		},
	}
}
