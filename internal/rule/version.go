package rule

// Version constants for the rule wire format and the calendar engine.
const (
	// WireVersion is the rule wire format version. It is stored with every
	// persisted snapshot.
	WireVersion = "1"

	// EngineVersion is the tradecal engine version.
	EngineVersion = "0.1.0"
)
