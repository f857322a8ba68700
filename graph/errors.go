package graph

import "errors"

// ErrInvalidState indicates the initial state handed to Invoke violates
// the graph's state invariant (for conversations: no messages).
var ErrInvalidState = errors.New("invalid state")

// ErrMalformedGraph is matched by every CompileError via errors.Is.
var ErrMalformedGraph = errors.New("malformed graph")

// Compile error codes.
const (
	CodeNoReducer      = "MISSING_REDUCER"
	CodeEmptyGraph     = "EMPTY_GRAPH"
	CodeInvalidNode    = "INVALID_NODE"
	CodeDuplicateNode  = "DUPLICATE_NODE"
	CodeUnknownNode    = "NODE_NOT_FOUND"
	CodeInvalidEdge    = "INVALID_EDGE"
	CodeNoStart        = "NO_START_EDGE"
	CodeBranching      = "BRANCHING"
	CodeCycle          = "CYCLE"
	CodeUnreachable    = "UNREACHABLE_NODE"
	CodeNoEnd          = "NO_PATH_TO_END"
	CodeNodeExecution  = "NODE_EXECUTION"
	CodeInvalidOptions = "INVALID_OPTIONS"
)

// CompileError represents a topology or configuration problem detected
// while compiling a graph. It never occurs at invocation time.
type CompileError struct {
	Message string
	Code    string
}

func (e *CompileError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Is reports ErrMalformedGraph as a match so callers need not know the
// concrete type.
func (e *CompileError) Is(target error) bool {
	return target == ErrMalformedGraph
}
