package model

// Version constants stamped on journal entries.
const (
	// JournalVersion is the journal entry format version.
	JournalVersion = "1"

	// EngineVersion is the limiter engine version.
	EngineVersion = "0.1.0"
)
