package transfer

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var ErrNoFileName = errors.New("url has no file name segment")

// FileName derives the destination file name from the last path segment of
// rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Opaque != "" || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return name, nil
}
