package content

// All selects every item in a filtered list view.
const All = "All"

// Testimony review states used by the testimonials list.
const (
	Pending  = "Pending"
	Approved = "Approved"
)

// TestimonyStatuses in the order the dashboard offers them.
var TestimonyStatuses = []string{All, Pending, Approved}

// Filter returns the items matching keep, in their original order. It never returns nil.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// FilterSkills keeps skills of the given category; All (or empty) keeps everything.
func FilterSkills(skills []TechnicalSkill, category string) []TechnicalSkill {
	if category == "" || category == All {
		return Filter(skills, func(TechnicalSkill) bool { return true })
	}
	return Filter(skills, func(s TechnicalSkill) bool {
		return string(s.Category) == category
	})
}

// FilterTestimonies keeps items by review state: Pending, Approved or All.
func FilterTestimonies(items []TestimonyItem, status string) []TestimonyItem {
	switch status {
	case Pending:
		return Filter(items, func(t TestimonyItem) bool { return !t.Approved })
	case Approved:
		return Filter(items, func(t TestimonyItem) bool { return t.Approved })
	default:
		return Filter(items, func(TestimonyItem) bool { return true })
	}
}

// TechOption is one checkbox of a project's tech stack picker.
type TechOption struct {
	Name     string
	Selected bool
}

// TechOptions lists the stack's entries first, selected and in their stored order, then
// the skill names not yet in the stack. Submitting the picker unchanged keeps the order.
func TechOptions(stack []string, skills []TechnicalSkill) []TechOption {
	out := make([]TechOption, 0, len(stack)+len(skills))
	seen := make(map[string]bool, len(stack))
	for _, name := range stack {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, TechOption{Name: name, Selected: true})
	}
	for _, s := range skills {
		if s.Name == "" || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, TechOption{Name: s.Name})
	}
	return out
}

// CompactStrings drops blank entries from a list field, e.g. unused image slots.
func CompactStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
