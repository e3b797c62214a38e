package models

// Stage is the ordered lifecycle position of an episode. Deactivation is an
// orthogonal terminal state: a deactivated episode keeps its flags for audit
// but reports StageDeactivated regardless of how far it got.
type Stage int

const (
	StageDeactivated Stage = iota
	StageDiscovered
	StageDownloaded
	StageProcessed
	StageScheduled
	StagePosted
)

func (s Stage) String() string {
	switch s {
	case StageDeactivated:
		return "deactivated"
	case StageDiscovered:
		return "discovered"
	case StageDownloaded:
		return "downloaded"
	case StageProcessed:
		return "processed"
	case StageScheduled:
		return "scheduled"
	case StagePosted:
		return "posted"
	}
	return "unknown"
}

// Stage derives the lifecycle position from the episode's flags.
func (e *Episode) Stage() Stage {
	switch {
	case !e.IsActive:
		return StageDeactivated
	case e.IsPosted:
		return StagePosted
	case e.IsProcessed && e.PublicationDate != nil:
		return StageScheduled
	case e.IsProcessed:
		return StageProcessed
	case e.IsDownloaded:
		return StageDownloaded
	}
	return StageDiscovered
}
