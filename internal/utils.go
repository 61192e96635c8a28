package utils

import (
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// QuitChan receives SIGINT/SIGTERM once main subscribes it.
var QuitChan = make(chan os.Signal, 1)

// Shutdown logs reason and exits with a non-zero status.
func Shutdown(log *zap.SugaredLogger, reason string, err error) {
	log.Errorw("🚨 "+reason, "error", err)
	_ = log.Sync()
	os.Exit(1)
}

// BaseName returns the last element of a slash or backslash separated path,
// or "" for names that would escape their folder.
func BaseName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}
