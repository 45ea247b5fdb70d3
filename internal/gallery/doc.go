// Package gallery talks to the remote wallpaper gallery. The gallery
// exposes exactly one retrieval primitive: a current listing that can be
// re-randomized through a shuffle action. There is no pagination and no
// query-by-identifier, so novelty is enforced entirely client-side by
// Discover's exclusion-aware search loop.
package gallery
