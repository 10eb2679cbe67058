package lower

// Options control how functions are lowered.
type Options struct {
	// DebugInfo prepends initializers for statically known source
	// variables to the entry block.
	DebugInfo bool
	// PatchLoops replaces loop headers by loop region nodes.
	PatchLoops bool
	// BranchProfiles counts conditional branch outcomes.
	BranchProfiles bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{PatchLoops: true}
}
