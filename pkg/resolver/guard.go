package resolver

import "fmt"

// Guard is the visited set of one resolution walk. Enter a reference
// before following it and Exit once done; re-entering a reference still in
// flight is a cycle. A Guard must not be shared between walks.
type Guard struct {
	maxDepth int
	inflight map[string]struct{}
	stack    []string
}

// NewGuard creates a guard; maxDepth <= 0 disables the depth limit
func NewGuard(maxDepth int) *Guard {
	return &Guard{maxDepth: maxDepth, inflight: map[string]struct{}{}}
}

// Enter marks ref as in flight
func (g *Guard) Enter(ref string) error {
	if _, ok := g.inflight[ref]; ok {
		return newError(ErrCycleDetected, ref, fmt.Sprintf("via %v", g.Stack()))
	}
	if g.maxDepth > 0 && len(g.stack) >= g.maxDepth {
		return newError(ErrMaxDepthExceeded, ref, fmt.Sprintf("limit %d", g.maxDepth))
	}
	g.inflight[ref] = struct{}{}
	g.stack = append(g.stack, ref)
	return nil
}

// Exit releases ref. References are released in reverse order of entry.
func (g *Guard) Exit(ref string) {
	delete(g.inflight, ref)
	if n := len(g.stack); n > 0 && g.stack[n-1] == ref {
		g.stack = g.stack[:n-1]
	}
}

// Depth is the number of references in flight
func (g *Guard) Depth() int { return len(g.stack) }

// Stack returns a copy of the in-flight references, outermost first
func (g *Guard) Stack() []string {
	return append([]string(nil), g.stack...)
}
