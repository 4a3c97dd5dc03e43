package work

// WireAll wires every (parent, child) pair in the Cartesian product of the
// two sets, gating each child on all of its parents: a child starts only
// after every registered parent has completed successfully.
//
// Each pair sets the child's policy to PolicyAll and registers the edge.
// Because policy lives on the child rather than the edge, a later WireAny
// call naming the same child overwrites the policy for all of that child's
// parents — mixed per-parent policies are not expressible. Finish all
// wiring for a node before anything can trigger it.
func WireAll(parents, children []*Work) {
	for _, parent := range parents {
		for _, child := range children {
			child.SetPolicy(PolicyAll)
			parent.RegisterChild(child)
		}
	}
}

// WireAny wires every (parent, child) pair in the Cartesian product of the
// two sets, gating each child on any of its parents: a child starts as soon
// as the first registered parent completes successfully.
//
// See WireAll for the per-child policy limitation.
func WireAny(parents, children []*Work) {
	for _, parent := range parents {
		for _, child := range children {
			child.SetPolicy(PolicyAny)
			parent.RegisterChild(child)
		}
	}
}

// NewRoot constructs an always-succeeding root node on the package's
// default runtime. See Runtime.NewRoot.
func NewRoot() *Work {
	return defaultRuntime().NewRoot()
}
