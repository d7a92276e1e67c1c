package tools

import (
	"context"
	"strings"

	"github.com/glassbox-io/glassbox/internal/models"
)

// ProfileTools serves questions about the static profile data.
type ProfileTools struct {
	Profile *models.Profile
}

// Experience returns every professional role, newest first as stored.
func (p *ProfileTools) Experience() []models.Experience {
	return p.Profile.Experience
}

// Skills returns skills, optionally filtered by category (case-insensitive).
func (p *ProfileTools) Skills(category string) []models.Skill {
	if category == "" {
		return p.Profile.Skills
	}
	out := make([]models.Skill, 0, len(p.Profile.Skills))
	for _, s := range p.Profile.Skills {
		if strings.EqualFold(s.Category, category) {
			out = append(out, s)
		}
	}
	return out
}

// Projects returns projects, optionally filtered by a name substring
// (case-insensitive).
func (p *ProfileTools) Projects(name string) []models.Project {
	if name == "" {
		return p.Profile.Projects
	}
	out := make([]models.Project, 0, len(p.Profile.Projects))
	for _, proj := range p.Profile.Projects {
		if strings.Contains(strings.ToLower(proj.Name), strings.ToLower(name)) {
			out = append(out, proj)
		}
	}
	return out
}

// RegisterProfile adds the profile tools to a registry.
func RegisterProfile(r *Registry, p *ProfileTools) error {
	specs := []Tool{
		{
			Name:        "get_experience",
			Description: "List professional experience from the profile",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				return p.Experience(), nil
			},
		},
		{
			Name:        "get_skills",
			Description: "List skills from the profile, optionally by category",
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return p.Skills(stringArg(args, "category")), nil
			},
		},
		{
			Name:        "get_projects",
			Description: "List projects from the profile, optionally by name",
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return p.Projects(stringArg(args, "name")), nil
			},
		},
	}
	for _, t := range specs {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
