package protocol

// Well-known rooms and paths used throughout Agora.
const (
	// RoomCoordination is the default catch-all room for unrouted messages.
	RoomCoordination = "coordination"

	// RoomEvents receives lifecycle audit messages (registrations,
	// dependency transitions, purges, detected cycles).
	RoomEvents = "events"

	// AgoraDir is the user-level state directory (e.g., ~/.agora).
	AgoraDir = ".agora"

	// DBFileName is the coordination database file inside AgoraDir.
	DBFileName = "agora.db"
)

// Event kinds recorded in MessageContext.Kind.
const (
	KindTaskComplete  = "task-complete"
	KindPhaseComplete = "phase-complete"
	KindAgentReady    = "agent-ready"
	KindAssignment    = "assignment"
	KindNotification  = "dependency-satisfied"
	KindCircularDep   = "circular-dependency"
	KindRoomRotated   = "room-rotated"
	KindConflictLost  = "conflict-wait"
)
