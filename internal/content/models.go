// models.go these are the records the portfolio API stores for us
package content

import (
	"bytes"
	"encoding/json"
)

// Present is the end date of a career entry that is still ongoing.
const Present = "Present"

// MaxHeroImages is the number of image slots on the hero banner.
const MaxHeroImages = 4

type CareerType string

const (
	Education CareerType = "Education"
	Job       CareerType = "Job"
)

type SkillLevel string

const (
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
	Expert       SkillLevel = "Expert"
)

type SkillCategory string

const (
	Backend  SkillCategory = "Backend"
	Frontend SkillCategory = "Frontend"
	Other    SkillCategory = "Other"
)

type ProjectType string

const (
	Web             ProjectType = "Web"
	Mobile          ProjectType = "Mobile"
	MachineLearning ProjectType = "Machine Learning"
)

type ContributionType string

const (
	Personal ContributionType = "Personal"
	Team     ContributionType = "Team"
)

// Enumerations in the order the dashboard offers them.
var (
	CareerTypes       = []CareerType{Education, Job}
	SkillLevels       = []SkillLevel{Beginner, Intermediate, Advanced, Expert}
	SkillCategories   = []SkillCategory{Backend, Frontend, Other}
	ProjectTypes      = []ProjectType{Web, Mobile, MachineLearning}
	ContributionTypes = []ContributionType{Personal, Team}
)

// ID identifies a collection record. The API assigns it on creation; depending on the
// backing table it is sent as a JSON number or a string, and both decode here.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// List is the envelope every collection GET returns.
type List[T any] struct {
	Data   []T `json:"data"`
	Length int `json:"length"`
}

// NewList wraps items, keeping Length in step with Data.
func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Data: items, Length: len(items)}
}

type HeroContent struct {
	Name        string   `json:"name"`
	Rank        string   `json:"rank"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	ResumeLink  string   `json:"resume_link"`
	ContactLink string   `json:"contact_link"`
	ImageURLs   []string `json:"image_urls"`
	Hobbies     []string `json:"hobbies"`
}

type AboutCard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AboutContent struct {
	Description  string      `json:"description"`
	Cards        []AboutCard `json:"cards"`
	LinkedinLink string      `json:"linkedin_link"`
	GithubLink   string      `json:"github_link"`
	Available    bool        `json:"available"`
}

type CareerEntry struct {
	ID          ID         `json:"id,omitempty"`
	StartedAt   string     `json:"started_at"`
	EndedAt     string     `json:"ended_at"`
	Title       string     `json:"title"`
	Affiliation string     `json:"affiliation"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Type        CareerType `json:"type"`

	// Ongoing is the "Present" checkbox of the edit form. It never goes over the wire.
	Ongoing bool `json:"-"`
}

type TechnicalSkill struct {
	ID           ID            `json:"id,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Specialities []string      `json:"specialities"`
	Level        SkillLevel    `json:"level"`
	Category     SkillCategory `json:"category"`
}

type ProjectPageContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ProjectItem struct {
	ID           ID               `json:"id,omitempty"`
	Name         string           `json:"name"`
	ImageURLs    []string         `json:"imageUrls"`
	Description  string           `json:"description"`
	TechStack    []string         `json:"techStack"`
	GithubLink   string           `json:"githubLink"`
	ProjectLink  string           `json:"projectLink"`
	Type         ProjectType      `json:"type"`
	Contribution ContributionType `json:"contribution"`
}

type TestimonyPageContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TestimonyItem struct {
	ID          ID     `json:"id,omitempty"`
	Name        string `json:"name"`
	ProfileURL  string `json:"profile_url"`
	Affiliation string `json:"affiliation"`
	Rating      int    `json:"rating"`
	Description string `json:"description"`
	AISummary   string `json:"ai_summary"`
	Approved    bool   `json:"approved"`
}

// ApproveRequest is the body of PATCH /admin/testimony/items/:id/approve.
type ApproveRequest struct {
	Approved bool `json:"approved"`
}

// User is what GET /auth/me answers with.
type User struct {
	ID      ID     `json:"id"`
	Subject string `json:"sub,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Display is the name shown in the dashboard header.
func (u User) Display() string {
	switch {
	case u.Email != "":
		return u.Email
	case u.Subject != "":
		return u.Subject
	default:
		return u.ID.String()
	}
}
