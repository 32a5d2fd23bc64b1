package models

import "strings"

// ProgramScope limits which requests a department may see.
type ProgramScope struct {
	All      bool
	Programs map[string]struct{}
}

// FullScope grants visibility of every request.
func FullScope() ProgramScope {
	return ProgramScope{All: true}
}

// NewProgramScope builds a limited scope from program names.
func NewProgramScope(programs []string) ProgramScope {
	set := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		if p = strings.TrimSpace(p); p != "" {
			set[p] = struct{}{}
		}
	}
	return ProgramScope{Programs: set}
}

// Allows reports whether a request with the given major and minor is visible.
// Requests without a major are visible to every department.
func (s ProgramScope) Allows(major, minor string) bool {
	if s.All || major == "" {
		return true
	}
	if _, ok := s.Programs[StripTrack(major)]; ok {
		return true
	}
	_, ok := s.Programs[StripTrack(minor)]
	return ok
}

// StripTrack drops the trailing degree-type word ("Anthropology BA" becomes
// "Anthropology"). A single word strips to the empty string.
func StripTrack(track string) string {
	track = strings.TrimSpace(track)
	idx := strings.LastIndex(track, " ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(track[:idx])
}

// ProgramName extracts the program name from a department program
// description, i.e. the text before the first '-'.
func ProgramName(description string) string {
	if idx := strings.Index(description, "-"); idx >= 0 {
		description = description[:idx]
	}
	return strings.TrimSpace(description)
}
