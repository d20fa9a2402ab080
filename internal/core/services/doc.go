// Package services implements the driving port interfaces.
// Services contain the core business logic (tag merging, the
// generation orchestration pass, front matter synchronisation) and
// orchestrate calls to driven ports (adapters).
package services
