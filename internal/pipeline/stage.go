package pipeline

// Stage names a unit of work that reports started/completed events.
type Stage string

// Stages, as they appear in events.
const (
	StageTranscribe     Stage = "transcribe"
	StageDetectSilences Stage = "detect_silences"
	StageCutSilences    Stage = "cut_silences"
	StageEnhanceAudio   Stage = "enhance_audio"
	StageCopy           Stage = "copy"
)

// State is a position in the run state machine:
//
//	Transcribing -> DetectingSilences -> CuttingSilences | EnhancingOnly | CopyOnly -> Done
//
// Failed is reachable from every state.
type State int

// Run states.
const (
	StateTranscribing State = iota
	StateDetectingSilences
	StateCuttingSilences
	StateEnhancingOnly
	StateCopyOnly
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateTranscribing:
		return "transcribing"
	case StateDetectingSilences:
		return "detecting_silences"
	case StateCuttingSilences:
		return "cutting_silences"
	case StateEnhancingOnly:
		return "enhancing_only"
	case StateCopyOnly:
		return "copy_only"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stageFor maps a state to the stage that runs in it.
func stageFor(s State) Stage {
	switch s {
	case StateTranscribing:
		return StageTranscribe
	case StateDetectingSilences:
		return StageDetectSilences
	case StateCuttingSilences:
		return StageCutSilences
	case StateEnhancingOnly:
		return StageEnhanceAudio
	default:
		return StageCopy
	}
}
