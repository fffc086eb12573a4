/*
Package fuse translates the aggregated music catalog into a read-only
virtual filesystem.

The core is a single FileSystem type implementing the path-keyed
operation set consumed by the kernel bridge: GetAttr, ListDir, Open,
Read, Release. Paths are classified against a fixed grammar

	/
	/artists
	/artists/{artist}
	/artists/{artist}/{year} - {album}
	/artists/{artist}/{year} - {album}/{nnn} - {track}.mp3
	/artists/{artist}/{year} - {album}/{image}.jpg
	/playlists
	/playlists/{playlist}
	/playlists/{playlist}/{nnn} - {track}.mp3

and resolved to catalog entities; attributes and directory listings are
synthesized, and opening a track file starts a remote streaming session
whose final read window is spliced with a synthesized trailer block.

The Host type adapts FileSystem to the cgofuse callback contract and the
Manager mounts it.
*/
package fuse
