package course

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Info describes the single course the assistant talks about.
type Info struct {
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Duration      string   `json:"duration" yaml:"duration"`
	Price         string   `json:"price" yaml:"price"`
	Instructor    string   `json:"instructor" yaml:"instructor"`
	Format        string   `json:"format" yaml:"format"`
	Schedule      string   `json:"schedule" yaml:"schedule"`
	Benefits      []string `json:"benefits" yaml:"benefits"`
	Prerequisites string   `json:"prerequisites" yaml:"prerequisites"`
	Support       string   `json:"support" yaml:"support"`
	SupportEmail  string   `json:"support_email" yaml:"support_email"`
}

func Default() Info {
	return Info{
		Name:        "Complete Python Development Bootcamp",
		Description: "A comprehensive Python development course covering web development, data science, and automation",
		Duration:    "12 weeks (3 months)",
		Price:       "$299",
		Instructor:  "John Smith",
		Format:      "Online with live sessions",
		Schedule:    "Monday, Wednesday, Friday - 7:00 PM to 9:00 PM EST",
		Benefits: []string{
			"Learn Python from beginner to advanced level",
			"Build real-world projects including web applications",
			"Get hands-on experience with popular Python frameworks",
			"Receive a certificate of completion",
			"Access to lifetime course materials",
			"1-on-1 mentorship sessions",
			"Job placement assistance",
		},
		Prerequisites: "No prior programming experience required",
		Support:       "24/7 support via email and Discord community",
		SupportEmail:  "support@ourcompany.com",
	}
}

// Load reads course info from a YAML file. Fields missing from the file keep
// the built-in defaults. An empty path returns the defaults.
func Load(path string) (Info, error) {
	info := Default()
	if path == "" {
		return info, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read course info: %w", err)
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("parse course info %s: %w", path, err)
	}
	if err := info.Validate(); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (i Info) Validate() error {
	var missing []string
	if strings.TrimSpace(i.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(i.Duration) == "" {
		missing = append(missing, "duration")
	}
	if strings.TrimSpace(i.Price) == "" {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return errors.New("course info is missing: " + strings.Join(missing, ", "))
	}
	return nil
}
