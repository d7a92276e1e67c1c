package models

// Experience is one professional role in the profile data.
type Experience struct {
	Company    string   `yaml:"company" json:"company"`
	Role       string   `yaml:"role" json:"role"`
	Start      string   `yaml:"start" json:"start"`
	End        string   `yaml:"end" json:"end"`
	Highlights []string `yaml:"highlights" json:"highlights"`
}

// Skill is one technical skill in the profile data.
type Skill struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Level    string `yaml:"level" json:"level"`
}

// Project is one notable project in the profile data.
type Project struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Tech        []string `yaml:"tech" json:"tech"`
	Outcomes    []string `yaml:"outcomes" json:"outcomes"`
}

// Profile is the static profile record served by the profile tools.
// This corresponds to the profile data file referenced in settings.yaml.
type Profile struct {
	Version    int          `yaml:"version"`
	Summary    string       `yaml:"summary" json:"summary"`
	Experience []Experience `yaml:"experience" json:"experience"`
	Skills     []Skill      `yaml:"skills" json:"skills"`
	Projects   []Project    `yaml:"projects" json:"projects"`
}

// NewProfile creates an empty profile with the current schema version.
func NewProfile() *Profile {
	return &Profile{Version: 1}
}
