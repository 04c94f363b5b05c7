package blob

import (
	"fmt"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}

// CheckImage rejects uploads that are not jpeg, png or gif images or that
// exceed limit bytes. A limit of 0 disables the size check.
func CheckImage(filename, contentType string, size, limit int64) error {
	if !imageExts[strings.ToLower(filepath.Ext(filename))] {
		return fmt.Errorf("%w: only image files are allowed (jpeg, jpg, png, gif)", ErrRejected)
	}
	if _, ok := extByContentType[baseContentType(contentType)]; !ok {
		return fmt.Errorf("%w: only image files are allowed (jpeg, jpg, png, gif), got %q", ErrRejected, contentType)
	}
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: file is %d bytes, limit is %d", ErrRejected, size, limit)
	}
	return nil
}
