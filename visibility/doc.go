// Package visibility converts viewport state into page visibility.
//
// Two separate observations are made over the same scroll container,
// because they answer different questions:
//
//   - wide-margin visibility: the SET of pages intersecting the viewport
//     expanded by a margin, used to decide what to keep rasterized
//   - narrow-band position: the SINGLE page under a thin band near the top
//     of the viewport, used to decide what page the user is reading
//
// The two are deliberately separate interfaces (WideSource, NarrowSource)
// rather than one visibility abstraction: one yields a set with fuzzy
// margins, the other a stable singleton.
package visibility
