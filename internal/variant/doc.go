// Package variant serves resized renditions of images stored in a directory
// tree and caches them as sibling files next to the source.
//
// A request names a root, a path relative to it, a Kind (original,
// thumbnail or preview) and a Policy describing where, if anywhere, a
// generated variant may be stored. Cache.Get resolves the request to one
// of two results:
//
//   - FileResult: a file on disk the caller streams (the original, a cache
//     hit, or a freshly written cache entry)
//   - BytesResult: an encoded JPEG held in memory, used whenever the cache
//     cannot be written
//
// Cache entries live at parent/.thumb/name and parent/.preview/name (or the
// same layout mirrored under an alternate directory). They are written
// atomically and never invalidated; a changed source keeps its old variant
// until the cache file is removed out of band.
//
// Read failures (bad paths, missing sources, undecodable images) are
// returned as *Error values classified with ErrBadRequest, ErrNotFound and
// ErrImage. Write failures are never returned; they only change where the
// result is served from.
package variant
