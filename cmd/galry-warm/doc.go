// Package main provides galry-warm, a batch tool that fills the thumbnail
// and preview caches ahead of the first visitor.
//
// It walks the root directory, skipping dot-directories and lost+found, and
// requests every configured variant of every image through the same variant
// engine the server uses. Existing cache files are left alone, so repeated
// runs only generate what is missing.
//
// # Usage
//
//	galry-warm [flags] [ROOT_DIR]
//
//	--root-dir       directory tree to warm (env GALRY_ROOT_DIR)
//	--thumbs-dir     alternate cache directory (env GALRY_THUMBS_DIR)
//	--kinds          variants to generate, default thumb,preview
//	--workers, -j    parallel generations, default one per CPU (env GALRY_WORKERS)
//	--image-backend  imaging or vips
//	--textfile       write galry_warm_* metrics for the node_exporter textfile collector
//
// A failure on one image is logged and counted but does not stop the run.
// The exit status is 1 if any image failed, 2 on usage errors.
//
// Generation pauses while heap usage is above the memory monitor's critical
// water mark; see the memory package for MEMORY_LIMIT and MEMORY_RATIO.
package main
