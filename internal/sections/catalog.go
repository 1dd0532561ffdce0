package sections

// SectionID names one resume section in the result mapping.
type SectionID string

const (
	Skills         SectionID = "skills"
	WorkExperience SectionID = "work_experience"
	Projects       SectionID = "projects"
)

// Section binds a section id to the header keywords that open it.
type Section struct {
	ID       SectionID
	Keywords []string
}

// Catalog is an ordered list of sections. Order matters: when two keywords
// could both match a line, the one declared first wins.
type Catalog []Section

var defaultCatalog = Catalog{
	{ID: Skills, Keywords: []string{"Skills", "Technical Skills", "Technologies", "Tools", "Core Competencies"}},
	{ID: WorkExperience, Keywords: []string{"Work Experience", "Professional Experience", "Experience"}},
	{ID: Projects, Keywords: []string{"Projects", "Project Experience", "Key Projects"}},
}

// DefaultCatalog returns a copy of the built-in section catalog.
func DefaultCatalog() Catalog {
	return defaultCatalog.clone()
}

// IDs returns the section ids in declaration order.
func (c Catalog) IDs() []SectionID {
	ids := make([]SectionID, 0, len(c))
	for _, s := range c {
		ids = append(ids, s.ID)
	}
	return ids
}

func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	for i, s := range c {
		out[i] = Section{ID: s.ID, Keywords: append([]string(nil), s.Keywords...)}
	}
	return out
}
