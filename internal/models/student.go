package models

// StudentDirectoryEntry is the subset of the student directory the portal reads.
type StudentDirectoryEntry struct {
	PID       string `db:"pid" json:"pid"`
	FirstName string `db:"fname" json:"firstName"`
	LastName  string `db:"lname" json:"lastName"`
	Email     string `db:"email" json:"email"`
}

// DisplayName renders "Last, First" as stored on requests.
func (s StudentDirectoryEntry) DisplayName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.LastName + ", " + s.FirstName
	}
}
