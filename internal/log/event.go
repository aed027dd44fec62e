package log

// EventType enumerates all observable session events.
type EventType int

const (
	EventJoin EventType = iota
	EventGameStarted
	EventSelectCard
	EventTargetChosen
	EventEnergyFull
	EventSwapRequested
	EventSwapApplied
	EventSwapRejected
	EventChantSuccess
	EventChantMiss
	EventLevelChange
	EventCardRevealed
	EventPositionsSwapped
	EventFold
	EventAllFolded
	EventPlayerReady
	EventNewRound
	EventQuotaExhausted
	EventCancel
	EventNotice
)

func (e EventType) String() string {
	switch e {
	case EventJoin:
		return "Join"
	case EventGameStarted:
		return "GameStarted"
	case EventSelectCard:
		return "SelectCard"
	case EventTargetChosen:
		return "TargetChosen"
	case EventEnergyFull:
		return "EnergyFull"
	case EventSwapRequested:
		return "SwapRequested"
	case EventSwapApplied:
		return "SwapApplied"
	case EventSwapRejected:
		return "SwapRejected"
	case EventChantSuccess:
		return "ChantSuccess"
	case EventChantMiss:
		return "ChantMiss"
	case EventLevelChange:
		return "LevelChange"
	case EventCardRevealed:
		return "CardRevealed"
	case EventPositionsSwapped:
		return "PositionsSwapped"
	case EventFold:
		return "Fold"
	case EventAllFolded:
		return "AllFolded"
	case EventPlayerReady:
		return "PlayerReady"
	case EventNewRound:
		return "NewRound"
	case EventQuotaExhausted:
		return "QuotaExhausted"
	case EventCancel:
		return "Cancel"
	case EventNotice:
		return "Notice"
	default:
		return "Unknown"
	}
}

// Event represents a single observable event in a swap session.
type Event struct {
	Seq     int       // monotonic sequence number
	Round   int       // which round (1-based)
	Player  string    // acting player ID (if applicable)
	Type    EventType // event type
	Card    string    // card display (if applicable)
	Details string    // human-readable detail string
}
