// Package display models monitor geometries. Actual display enumeration
// is platform territory and stays outside the daemon; geometries arrive
// through configuration and are treated as an injected list.
package display
