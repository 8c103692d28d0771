// Package router decomposes a structured set of command-line arguments into
// the module, task and action that should handle an invocation, plus the
// residual parameters forwarded to that action.
//
// Routing is the process of taking the already-parsed arguments of a single
// invocation and deciding who receives them:
//
//	r := router.New()
//	err := r.Handle(map[string]string{
//	    "module": "main",
//	    "task":   "videos",
//	    "action": "process",
//	    "id":     "5",
//	})
//	task, _ := r.GetTaskName() // "videos"
//	params := r.GetParams()    // {"id": "5"}
//
// The reserved keys "module", "task" and "action" are removed from the
// parameter set; everything else passes through unchanged. Missing keys leave
// the corresponding name unset. The configured defaults (SetDefaultModule and
// friends) are stored but never substituted by Handle; a dispatcher that wants
// fallback names applies its own.
//
// A Router is not safe for concurrent use. It does no I/O and never logs.
package router
