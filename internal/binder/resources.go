package binder

import (
	"net/http"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
)

// Messages are the toasts shown after each operation. Failure texts are fallbacks used
// when the API gives no message of its own.
type Messages struct {
	Created      string
	CreateFailed string
	Updated      string
	UpdateFailed string
	Deleted      string
	DeleteFailed string
	Uploaded     string
	UploadFailed string
}

// Action is an extra record operation sent to <record path>/<Path>.
type Action struct {
	Path      string
	Method    string
	Succeeded string
	Failed    string
}

// Resource describes one API resource and how its form behaves.
type Resource[T any] struct {
	Key       querycache.Key
	Singleton bool

	ReadPath     string
	CreatePath   string
	UpdatePath   string
	UpdateMethod string
	DeletePath   string
	UploadPath   string
	Actions      map[string]Action

	// ID extracts a collection record's id.
	ID func(T) content.ID
	// New is the blank record a create form starts from.
	New func() T
	// Seed turns a fetched record into form state; Prepare turns form state back into a
	// payload. Prepare(Seed(v)) must equal v.
	Seed    func(T) T
	Prepare func(T) T
	// BindImage writes an uploaded URL into an image slot of the buffer.
	BindImage func(v *T, slot int, url string) error

	Messages Messages
}

func identity[T any](v T) T { return v }

func (r Resource[T]) withDefaults() Resource[T] {
	if r.UpdateMethod == "" {
		r.UpdateMethod = http.MethodPatch
	}
	if r.Seed == nil {
		r.Seed = identity[T]
	}
	if r.Prepare == nil {
		r.Prepare = identity[T]
	}
	if r.New == nil {
		r.New = func() (v T) { return v }
	}
	if r.ID == nil {
		r.ID = func(T) content.ID { return "" }
	}
	return r
}

// ActionApprove sets a testimony's approved flag.
const ActionApprove = "approve"

var (
	HeroResource = Resource[content.HeroContent]{
		Key:        querycache.KeyHero,
		Singleton:  true,
		ReadPath:   "/admin/hero",
		UpdatePath: "/admin/hero",
		UploadPath: "/admin/hero/image",
		Prepare:    content.PrepareHero,
		BindImage:  content.BindHeroImage,
		Messages: Messages{
			Updated:      "Hero section updated!",
			UpdateFailed: "Failed to update hero section.",
			Uploaded:     "Image successfully uploaded!",
			UploadFailed: "Failed to upload hero section image.",
		},
	}

	AboutResource = Resource[content.AboutContent]{
		Key:        querycache.KeyAbout,
		Singleton:  true,
		ReadPath:   "/admin/about",
		UpdatePath: "/admin/about",
		Messages: Messages{
			Updated:      "About section updated successfully!",
			UpdateFailed: "Failed to update about section.",
		},
	}

	CareerResource = Resource[content.CareerEntry]{
		Key:        querycache.KeyCareer,
		ReadPath:   "/admin/about/careers",
		CreatePath: "/admin/about/careers",
		UpdatePath: "/admin/about/careers",
		DeletePath: "/admin/about/careers",
		ID:         func(c content.CareerEntry) content.ID { return c.ID },
		New:        func() content.CareerEntry { return content.CareerEntry{Type: content.Job} },
		Seed:       content.SeedCareer,
		Prepare:    content.PrepareCareer,
		Messages: Messages{
			Created:      "Career created",
			CreateFailed: "Create failed.",
			Updated:      "Career updated",
			UpdateFailed: "Update failed.",
			Deleted:      "Career deleted",
			DeleteFailed: "Delete failed.",
		},
	}

	SkillResource = Resource[content.TechnicalSkill]{
		Key:        querycache.KeySkills,
		ReadPath:   "/admin/about/skills",
		CreatePath: "/admin/about/skills",
		UpdatePath: "/admin/about/skills",
		DeletePath: "/admin/about/skills",
		ID:         func(s content.TechnicalSkill) content.ID { return s.ID },
		New: func() content.TechnicalSkill {
			return content.TechnicalSkill{Level: content.Beginner, Category: content.Backend}
		},
		Prepare: content.PrepareSkill,
		Messages: Messages{
			Created:      "Skill created!",
			CreateFailed: "Create failed.",
			Updated:      "Skill updated!",
			UpdateFailed: "Update failed.",
			Deleted:      "Skill deleted.",
			DeleteFailed: "Delete failed.",
		},
	}

	ProjectPageResource = Resource[content.ProjectPageContent]{
		Key:        querycache.KeyProject,
		Singleton:  true,
		ReadPath:   "/admin/project",
		UpdatePath: "/admin/project",
		Messages: Messages{
			Updated:      "Project page updated!",
			UpdateFailed: "Failed to update Project page.",
		},
	}

	ProjectItemResource = Resource[content.ProjectItem]{
		Key:          querycache.KeyProjectItems,
		ReadPath:     "/admin/project/items",
		CreatePath:   "/admin/project/items",
		UpdatePath:   "/admin/project/items",
		UpdateMethod: http.MethodPut,
		DeletePath:   "/admin/project/items",
		UploadPath:   "/admin/project/items/image",
		ID:           func(p content.ProjectItem) content.ID { return p.ID },
		New: func() content.ProjectItem {
			return content.ProjectItem{Type: content.Web, Contribution: content.Personal}
		},
		Prepare:   content.PrepareProject,
		BindImage: content.BindProjectImage,
		Messages: Messages{
			Created:      "Project created!",
			CreateFailed: "Failed to create project.",
			Updated:      "Project updated!",
			UpdateFailed: "Failed to update project.",
			Deleted:      "Project deleted!",
			DeleteFailed: "Failed to delete project.",
			Uploaded:     "Image uploaded!",
			UploadFailed: "Failed to upload image.",
		},
	}

	TestimonyPageResource = Resource[content.TestimonyPageContent]{
		Key:        querycache.KeyTestimony,
		Singleton:  true,
		ReadPath:   "/admin/testimony",
		UpdatePath: "/admin/testimony",
		Messages: Messages{
			Updated:      "Testimony page updated!",
			UpdateFailed: "Failed to update testimony page.",
		},
	}

	// Testimonies are written by site visitors; the dashboard only moderates them.
	TestimonyItemResource = Resource[content.TestimonyItem]{
		Key:        querycache.KeyTestimonyItems,
		ReadPath:   "/admin/testimony/items",
		DeletePath: "/admin/testimony/items",
		ID:         func(t content.TestimonyItem) content.ID { return t.ID },
		Actions: map[string]Action{
			ActionApprove: {
				Path:      "approve",
				Method:    http.MethodPatch,
				Succeeded: "Testimony approved!",
				Failed:    "Failed to approve testimony.",
			},
		},
		Messages: Messages{
			Deleted:      "Testimony deleted!",
			DeleteFailed: "Failed to delete testimony.",
		},
	}
)

// Set is every binder the dashboard uses.
type Set struct {
	Hero          *Binder[content.HeroContent]
	About         *Binder[content.AboutContent]
	Careers       *Binder[content.CareerEntry]
	Skills        *Binder[content.TechnicalSkill]
	ProjectPage   *Binder[content.ProjectPageContent]
	Projects      *Binder[content.ProjectItem]
	TestimonyPage *Binder[content.TestimonyPageContent]
	Testimonies   *Binder[content.TestimonyItem]
}

// NewSet builds every binder and registers their fetchers with deps.Store.
func NewSet(deps Deps) *Set {
	return &Set{
		Hero:          New(HeroResource, deps),
		About:         New(AboutResource, deps),
		Careers:       New(CareerResource, deps),
		Skills:        New(SkillResource, deps),
		ProjectPage:   New(ProjectPageResource, deps),
		Projects:      New(ProjectItemResource, deps),
		TestimonyPage: New(TestimonyPageResource, deps),
		Testimonies:   New(TestimonyItemResource, deps),
	}
}
