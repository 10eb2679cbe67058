// Package trace records what the lowering pipeline is doing.
//
// Events are spans (begin/end pairs) and instant points, tagged with a
// scope that says how fine-grained they are:
//
//   - ScopeDriver: command-level operations (load, lower all, run)
//   - ScopePass: lowering steps of one function (phis, frame, liveness, ...)
//   - ScopeFunction: one function as a whole
//   - ScopeBlock: individual blocks
//
// The level picks how many scopes are emitted. A tracer travels through
// the pipeline in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFunction, "lower:@main", 0)
//	defer span.End("")
package trace
