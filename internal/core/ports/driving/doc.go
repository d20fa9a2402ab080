// Package driving defines the interfaces through which the outside
// world drives the core: the CLI adapter calls these.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
