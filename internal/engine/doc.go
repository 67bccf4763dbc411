// Package engine owns the lifecycle state machine of a feature branch.
//
// A feature branch walks a fixed sequence of steps, from technical design to
// release. The engine decides which branches take part, creates new cycles,
// applies edits and advances, and turns git actions into commits and tags.
// State is persisted through a StateStore keyed by branch name; version
// control goes through a VersionControl client bound to one working copy.
package engine
