package content

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleSkills() []TechnicalSkill {
	return []TechnicalSkill{
		{ID: "1", Name: "Go", Level: Expert, Category: Backend},
		{ID: "2", Name: "React", Level: Advanced, Category: Frontend},
		{ID: "3", Name: "Postgres", Level: Advanced, Category: Backend},
		{ID: "4", Name: "Figma", Level: Beginner, Category: Other},
	}
}

func TestFilterSkills(t *testing.T) {
	skills := sampleSkills()

	tests := []struct {
		name     string
		input    []TechnicalSkill
		category string
		wantIDs  []ID
	}{
		{name: "backend subset", input: skills, category: "Backend", wantIDs: []ID{"1", "3"}},
		{name: "frontend subset", input: skills, category: "Frontend", wantIDs: []ID{"2"}},
		{name: "all returns everything", input: skills, category: All, wantIDs: []ID{"1", "2", "3", "4"}},
		{name: "empty category returns everything", input: skills, category: "", wantIDs: []ID{"1", "2", "3", "4"}},
		{name: "empty collection backend", input: nil, category: "Backend", wantIDs: []ID{}},
		{name: "empty collection all", input: []TechnicalSkill{}, category: All, wantIDs: []ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSkills(tt.input, tt.category)
			if got == nil {
				t.Fatal("Expected non-nil slice")
			}
			ids := make([]ID, 0, len(got))
			for _, s := range got {
				if tt.category != "" && tt.category != All && string(s.Category) != tt.category {
					t.Errorf("Skill %s has category %s, want %s", s.ID, s.Category, tt.category)
				}
				ids = append(ids, s.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("Expected ids %v, got %v", tt.wantIDs, ids)
			}
		})
	}
}

func TestFilterSkillsDoesNotMutateInput(t *testing.T) {
	skills := sampleSkills()
	before := sampleSkills()

	_ = FilterSkills(skills, "Backend")

	if !reflect.DeepEqual(skills, before) {
		t.Error("FilterSkills modified its input")
	}
}

func TestFilterTestimonies(t *testing.T) {
	items := []TestimonyItem{
		{ID: "a", Approved: true},
		{ID: "b", Approved: false},
		{ID: "c", Approved: true},
	}

	if got := FilterTestimonies(items, Pending); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Expected only b pending, got %+v", got)
	}
	if got := FilterTestimonies(items, Approved); len(got) != 2 {
		t.Errorf("Expected 2 approved, got %d", len(got))
	}
	if got := FilterTestimonies(items, All); len(got) != 3 {
		t.Errorf("Expected 3 items, got %d", len(got))
	}
	if got := FilterTestimonies(nil, Pending); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
}

func TestCareerPresentRoundTrip(t *testing.T) {
	for _, prior := range []string{"", "2021-06-30", Present, "garbage"} {
		t.Run("prior="+prior, func(t *testing.T) {
			draft := SeedCareer(CareerEntry{ID: "7", StartedAt: "2020-01-01", EndedAt: prior})
			draft.Ongoing = true

			submitted := PrepareCareer(draft)
			if submitted.EndedAt != Present {
				t.Fatalf("Expected ended_at %q, got %q", Present, submitted.EndedAt)
			}

			reloaded := SeedCareer(submitted)
			if !reloaded.Ongoing {
				t.Error("Expected Present toggle to be re-enabled")
			}
			if reloaded.EndedAt != "" {
				t.Errorf("Expected end date input to be cleared, got %q", reloaded.EndedAt)
			}
		})
	}
}

func TestPrepareCareerScenario(t *testing.T) {
	draft := CareerEntry{
		StartedAt:   "2020-01-01",
		EndedAt:     "",
		Title:       "Engineer",
		Affiliation: "Acme",
		Type:        Job,
		Ongoing:     true,
	}

	if err := draft.Validate(); err != nil {
		t.Fatalf("Expected ongoing entry to validate, got %v", err)
	}

	body, err := json.Marshal(PrepareCareer(draft))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if payload["ended_at"] != Present {
		t.Errorf("Expected ended_at Present, got %v", payload["ended_at"])
	}
	if _, ok := payload["Ongoing"]; ok {
		t.Error("Ongoing flag leaked into the payload")
	}
}

func TestPrepareCareerKeepsDateWhenNotOngoing(t *testing.T) {
	got := PrepareCareer(CareerEntry{EndedAt: "2022-03-01"})
	if got.EndedAt != "2022-03-01" {
		t.Errorf("Expected end date unchanged, got %q", got.EndedAt)
	}
}

func TestCareerValidate(t *testing.T) {
	valid := CareerEntry{StartedAt: "2020-01-01", EndedAt: "2021-01-01", Title: "Engineer", Affiliation: "Acme", Type: Job}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid entry, got %v", err)
	}

	missingEnd := valid
	missingEnd.EndedAt = ""
	if err := missingEnd.Validate(); err == nil {
		t.Error("Expected error for missing end date")
	}

	badType := valid
	badType.Type = "Hobby"
	if err := badType.Validate(); err == nil {
		t.Error("Expected error for unknown type")
	}
}

func TestHeroValidate(t *testing.T) {
	h := HeroContent{Name: "Darel", ImageURLs: []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg", "https://cdn.example.com/3.jpg", "https://cdn.example.com/4.jpg"}}
	if err := h.Validate(); err != nil {
		t.Errorf("Expected valid hero, got %v", err)
	}

	h.ImageURLs = append(h.ImageURLs, "https://cdn.example.com/5.jpg")
	if err := h.Validate(); err == nil {
		t.Error("Expected error for five images")
	}

	if err := (HeroContent{}).Validate(); err == nil {
		t.Error("Expected error for missing name")
	}
}

func TestSkillValidate(t *testing.T) {
	s := TechnicalSkill{Name: "Go", Level: Expert, Category: Backend}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected valid skill, got %v", err)
	}
	s.Level = "Guru"
	if err := s.Validate(); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	var entries []CareerEntry
	err := json.Unmarshal([]byte(`[{"id": 12}, {"id": "ab-3"}, {"id": null}]`), &entries)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	want := []ID{"12", "ab-3", ""}
	for i, e := range entries {
		if e.ID != want[i] {
			t.Errorf("Entry %d: expected id %q, got %q", i, want[i], e.ID)
		}
	}
}

func TestBindImageSlot(t *testing.T) {
	h := HeroContent{ImageURLs: []string{"https://cdn.example.com/1.jpg"}}

	if err := BindHeroImage(&h, 2, "https://cdn.example.com/3.jpg"); err != nil {
		t.Fatalf("Failed to bind: %v", err)
	}
	want := []string{"https://cdn.example.com/1.jpg", "", "https://cdn.example.com/3.jpg"}
	if !reflect.DeepEqual(h.ImageURLs, want) {
		t.Errorf("Expected %v, got %v", want, h.ImageURLs)
	}

	if err := BindHeroImage(&h, MaxHeroImages, "https://cdn.example.com/x.jpg"); err == nil {
		t.Error("Expected error for slot out of range")
	}

	prepared := PrepareHero(h)
	if !reflect.DeepEqual(prepared.ImageURLs, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/3.jpg"}) {
		t.Errorf("Expected blank slots dropped, got %v", prepared.ImageURLs)
	}
}

func TestImageSlotsKeepStoredURLs(t *testing.T) {
	cases := []struct {
		name string
		list []string
		n    int
		want []string
	}{
		{"pads", []string{"a.jpg"}, 3, []string{"a.jpg", "", ""}},
		{"empty", nil, 1, []string{""}},
		{"more than slots", []string{"a.jpg", "b.jpg"}, MaxProjectImages, []string{"a.jpg", "b.jpg"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ImageSlots(tc.list, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTechOptionsKeepStackOrder(t *testing.T) {
	skills := []TechnicalSkill{{Name: "Go"}, {Name: "Python"}, {Name: "React"}}

	got := TechOptions([]string{"React", "Go", "Terraform"}, skills)
	want := []TechOption{
		{Name: "React", Selected: true},
		{Name: "Go", Selected: true},
		{Name: "Terraform", Selected: true},
		{Name: "Python"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := TechOptions(nil, nil); len(got) != 0 {
		t.Errorf("Expected no options, got %v", got)
	}
}
