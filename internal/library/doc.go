// Package library builds and holds the in-memory catalog graph: artists,
// albums, tracks, and playlists aggregated from the remote service's flat
// track and playlist feeds. The graph is immutable after aggregation
// except for lazily probed exact sizes; a rescan builds a fresh graph
// that callers install by swapping a reference.
package library
