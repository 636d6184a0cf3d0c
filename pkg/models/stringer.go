package models

// String methods for the custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// IssueType
func (t IssueType) String() string { return string(t) }

// IssueCategory
func (c IssueCategory) String() string { return string(c) }

// Severity
func (s Severity) String() string { return string(s) }

// EffortLevel
func (e EffortLevel) String() string { return string(e) }

// FileCategory
func (c FileCategory) String() string { return string(c) }
