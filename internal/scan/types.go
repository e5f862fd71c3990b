package scan

import (
	"time"

	"mothball/internal/ledger"
)

// Candidate is a file the scanner considers eligible for archiving, together
// with the evidence behind the classification. Candidates are ephemeral:
// nothing is persisted until the coordinator archives one.
type Candidate struct {
	// Path is the absolute path of the file.
	Path string

	// RelPath is the path relative to the workspace root.
	RelPath string

	// Category assigned by the classification rules.
	Category ledger.Category

	// Reason is the human-readable rationale derived from the evidence.
	Reason string

	// LastMeaningfulChange is the newest of the file's mtime and its most
	// recent git commit inside the history depth.
	LastMeaningfulChange time.Time

	// ReferenceCount is the number of textual references to this file's
	// identifier found elsewhere in the tree.
	ReferenceCount int

	// RegistryMember reports whether the file's identifier appears in a
	// configured command registry file.
	RegistryMember bool
}

// Warning records a per-file problem the scanner recovered from. Warnings
// never abort a scan.
type Warning struct {
	Path    string
	Message string
}
