package qualify

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Criterion is one scoring dimension fed into the qualification prompt.
type Criterion struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
}

// Rubric defines the criteria the scoring model is asked to apply.
type Rubric struct {
	Criteria []Criterion `yaml:"criteria"`
}

// DefaultRubric returns the built-in scoring criteria.
func DefaultRubric() *Rubric {
	return &Rubric{
		Criteria: []Criterion{
			{Name: "Company size and growth potential", Weight: 1},
			{Name: "Industry fit and market position", Weight: 1},
			{Name: "Role and seniority", Weight: 1},
			{Name: "Contact information quality", Weight: 1},
			{Name: "Overall potential value", Weight: 1},
		},
	}
}

// LoadRubric reads a scoring rubric from a YAML file. Criteria with no
// weight default to 1.
func LoadRubric(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "qualify: read rubric %s", path)
	}

	// The YAML has a top-level "rubric" key
	var wrapper struct {
		Rubric Rubric `yaml:"rubric"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "qualify: parse rubric")
	}

	r := &wrapper.Rubric
	if len(r.Criteria) == 0 {
		return nil, eris.New("qualify: rubric has no criteria")
	}
	for i, c := range r.Criteria {
		if c.Weight <= 0 {
			r.Criteria[i].Weight = 1
		}
	}

	return r, nil
}

// CriteriaLines renders the criteria as the numbered list the scoring prompt
// embeds. Weights other than 1 are surfaced so the model can bias accordingly.
func (r *Rubric) CriteriaLines() string {
	var b strings.Builder
	for i, c := range r.Criteria {
		if i > 0 {
			b.WriteByte('\n')
		}
		if c.Weight > 1 {
			fmt.Fprintf(&b, "%d. %s (weight %d)", i+1, c.Name, c.Weight)
		} else {
			fmt.Fprintf(&b, "%d. %s", i+1, c.Name)
		}
	}
	return b.String()
}
