// Package trace records what the compiler is doing: phases of a command,
// files being parsed, sessions served over RPC.
//
// A tracer travels through the call chain in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "parse", 0)
//	defer span.End("")
//
// Levels gate scopes: phase shows commands and phases, detail adds files,
// debug shows everything. The CLI exposes it as
//
//	storytell build --trace=- --trace-level=detail
package trace
