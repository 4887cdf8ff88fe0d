package topology

// Kind names the operation that produced a Change.
type Kind string

const (
	KindLoadPersona  Kind = "loadPersona"
	KindAddNode      Kind = "addNode"
	KindEditNode     Kind = "editNode"
	KindUpdateBuffer Kind = "updateEditBuffer"
	KindSaveEdit     Kind = "saveEdit"
	KindDeleteNode   Kind = "deleteNode"
	KindMoveNode     Kind = "moveNode"
	KindOpenDialog   Kind = "openDialog"
	KindCloseDialog  Kind = "closeDialog"
	KindReplaceEdges Kind = "replaceEdges"
	KindConnect      Kind = "connect"
	KindRevealGraph  Kind = "revealGraph"
)

// Change describes one applied mutation. State is the store as it was right
// after the mutation.
type Change struct {
	Seq    uint64 `json:"seq"`
	Kind   Kind   `json:"kind"`
	NodeID string `json:"nodeId,omitempty"`
	State  State  `json:"state"`
}

// Listener receives every Change in Seq order. OnChange runs on the goroutine
// that made the mutation and must not mutate the store itself.
type Listener interface {
	OnChange(c Change)
}

type ListenerFunc func(c Change)

func (f ListenerFunc) OnChange(c Change) { f(c) }
