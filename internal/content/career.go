package content

// SeedCareer turns a stored entry into an edit buffer. A "Present" end date becomes the
// Ongoing flag and the end date input is left empty, since "Present" is not a date.
func SeedCareer(c CareerEntry) CareerEntry {
	c.Ongoing = c.EndedAt == Present
	if c.Ongoing {
		c.EndedAt = ""
	}
	return c
}

// PrepareCareer is the inverse of SeedCareer, applied at submit time. Whatever end date
// the buffer holds is overridden while Ongoing is set.
func PrepareCareer(c CareerEntry) CareerEntry {
	if c.Ongoing {
		c.EndedAt = Present
	}
	c.Ongoing = false
	return c
}
