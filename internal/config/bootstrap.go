package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/tanq16/pulldown/internal/utils"
)

// BootstrapVars are read, in order, for downloads to start with the session.
var BootstrapVars = []string{"SMALL_FILE_URL", "MEDIUM_FILE_URL", "LARGE_FILE_URL"}

const URLListVar = "PULLDOWN_URLS"

// BootstrapURLs loads envFile (a missing file is not an error) without
// overriding variables already set, then collects the bootstrap URLs.
func BootstrapURLs(envFile string) ([]string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file: %w", err)
		}
	}
	var urls []string
	for _, key := range BootstrapVars {
		if value := os.Getenv(key); value != "" {
			urls = append(urls, value)
		}
	}
	urls = append(urls, utils.SplitList(os.Getenv(URLListVar))...)
	return urls, nil
}
