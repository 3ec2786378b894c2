package content

import (
	"fmt"
)

// MaxProjectImages is the number of image slots a project card offers.
const MaxProjectImages = 1

// ErrSlotOutOfRange is returned when an upload targets a slot the form does not have.
type ErrSlotOutOfRange struct {
	Slot, Max int
}

func (e ErrSlotOutOfRange) Error() string {
	return fmt.Sprintf("image slot %d out of range [0,%d)", e.Slot, e.Max)
}

// BindImageSlot stores url at slot, padding the list with blank slots as needed.
func BindImageSlot(list []string, slot, max int, url string) ([]string, error) {
	if slot < 0 || slot >= max {
		return list, ErrSlotOutOfRange{Slot: slot, Max: max}
	}
	out := make([]string, len(list), len(list)+max)
	copy(out, list)
	for len(out) <= slot {
		out = append(out, "")
	}
	out[slot] = url
	return out, nil
}

// ImageSlots pads list to n entries for rendering upload slots. Stored URLs beyond n are
// kept so an untouched form posts every one of them back.
func ImageSlots(list []string, n int) []string {
	out := make([]string, max(len(list), n))
	copy(out, list)
	return out
}

func BindHeroImage(h *HeroContent, slot int, url string) (err error) {
	h.ImageURLs, err = BindImageSlot(h.ImageURLs, slot, MaxHeroImages, url)
	return err
}

func BindProjectImage(p *ProjectItem, slot int, url string) (err error) {
	p.ImageURLs, err = BindImageSlot(p.ImageURLs, slot, MaxProjectImages, url)
	return err
}

// PrepareHero drops the blank image and hobby slots the form keeps around.
func PrepareHero(h HeroContent) HeroContent {
	h.ImageURLs = CompactStrings(h.ImageURLs)
	h.Hobbies = CompactStrings(h.Hobbies)
	return h
}

// PrepareProject drops blank image slots and empty tech stack entries.
func PrepareProject(p ProjectItem) ProjectItem {
	p.ImageURLs = CompactStrings(p.ImageURLs)
	p.TechStack = CompactStrings(p.TechStack)
	return p
}

// PrepareSkill drops empty speciality rows.
func PrepareSkill(s TechnicalSkill) TechnicalSkill {
	s.Specialities = CompactStrings(s.Specialities)
	return s
}
