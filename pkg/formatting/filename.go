package formatting

import (
	"path"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// BaseName returns name without directory components or extension.
func BaseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// SafeName reduces name to letters, digits, dot, dash and underscore.
// Runs of other characters collapse to a single underscore.
func SafeName(name string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "_")
}

// OutputName derives a download name from an input file name:
// OutputName("report.pdf", "signed", ".pdf") is "report_signed.pdf".
// An input with no usable base name yields suffix+ext.
func OutputName(input, suffix, ext string) string {
	base := SafeName(BaseName(input))
	if base == "" {
		return suffix + ext
	}
	return base + "_" + suffix + ext
}

// StampedName returns prefix_YYYYMMDDhhmmss.ext for t in UTC.
func StampedName(prefix string, t time.Time, ext string) string {
	return prefix + "_" + t.UTC().Format("20060102150405") + ext
}
