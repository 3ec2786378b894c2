package content

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const dateLayout = "2006-01-02"

// The checks below only guard against obvious mistakes before a round trip;
// the API stays authoritative.

func (h HeroContent) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Name, validation.Required),
		validation.Field(&h.ResumeLink, is.URL),
		validation.Field(&h.ContactLink, is.URL),
		validation.Field(&h.ImageURLs, validation.Length(0, MaxHeroImages), validation.Each(is.URL)),
	)
}

func (c AboutCard) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required),
	)
}

func (a AboutContent) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Description, validation.Required),
		validation.Field(&a.Cards),
		validation.Field(&a.LinkedinLink, is.URL),
		validation.Field(&a.GithubLink, is.URL),
	)
}

func (c CareerEntry) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.StartedAt, validation.Required, validation.Date(dateLayout)),
		validation.Field(&c.EndedAt, validation.When(!c.Ongoing, validation.Required, validation.Date(dateLayout))),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Affiliation, validation.Required),
		validation.Field(&c.Type, validation.Required, validation.In(Education, Job)),
	)
}

func (s TechnicalSkill) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Level, validation.Required, validation.In(Beginner, Intermediate, Advanced, Expert)),
		validation.Field(&s.Category, validation.Required, validation.In(Backend, Frontend, Other)),
	)
}

func (p ProjectPageContent) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
	)
}

func (p ProjectItem) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.GithubLink, is.URL),
		validation.Field(&p.ProjectLink, is.URL),
		validation.Field(&p.ImageURLs, validation.Each(is.URL)),
		validation.Field(&p.Type, validation.Required, validation.In(Web, Mobile, MachineLearning)),
		validation.Field(&p.Contribution, validation.Required, validation.In(Personal, Team)),
	)
}

func (t TestimonyPageContent) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required),
	)
}
