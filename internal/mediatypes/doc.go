// Package mediatypes classifies gallery files by extension.
//
// It has no dependencies beyond the standard library so any package can use
// it without creating import cycles.
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.GetFileType(ext) == mediatypes.FileTypeImage {
//	    // decodable by the variant generators
//	}
//
// IsImage does the lowercasing itself:
//
//	mediatypes.IsImage("IMG_0001.JPG") // true
package mediatypes
