// Package operations orchestrates a run as an ordered list of steps.
//
// A Step reads what earlier steps left on the OperationState and adds its
// own artifacts: the load step puts the normalized tables there, the
// assemble step the panel, and so on. The Manager executes steps strictly
// in order. The first failure marks the remaining steps as skipped and
// aborts the run.
//
// Plans select which steps a command needs:
//
//	PlanBuild      load, assemble, export
//	PlanSummarize  PlanBuild + summarize
//	PlanFit        PlanBuild + fit
//	PlanRun        every step
package operations
