package filemgr

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// NamingStrategy maps (version, filename, position) to the stored file name.
// Strategies are tried in priority order for both read resolution and delete
// so legacy files never become orphans.
type NamingStrategy interface {
	FileName(version Version, filename string, position int) string
	// Version reports which version a stored file name belongs to, or "" if
	// the name does not match this strategy.
	Version(stored string) Version
}

// currentNaming: "{version}_{name}[_{position}].{ext}"
type currentNaming struct{}

func (currentNaming) FileName(version Version, filename string, position int) string {
	base, ext := splitExt(filename)
	if position > 0 {
		return fmt.Sprintf("%s_%s_%d%s", version, base, position, ext)
	}
	return fmt.Sprintf("%s_%s%s", version, base, ext)
}

func (currentNaming) Version(stored string) Version {
	switch {
	case strings.HasPrefix(stored, string(VersionThumb)+"_"):
		return VersionThumb
	case strings.HasPrefix(stored, string(VersionOriginal)+"_"):
		return VersionOriginal
	}
	return ""
}

// legacyNaming: historical files carried an "original_" prefix baked into the
// name itself, so thumbs were stored as "thumb_original_{name}".
type legacyNaming struct{}

func (legacyNaming) FileName(version Version, filename string, position int) string {
	base, ext := splitExt(filename)
	baked := "original_" + base
	if version == VersionOriginal {
		if position > 0 {
			return fmt.Sprintf("%s_%d%s", baked, position, ext)
		}
		return baked + ext
	}
	if position > 0 {
		return fmt.Sprintf("%s_%s_%d%s", version, baked, position, ext)
	}
	return fmt.Sprintf("%s_%s%s", version, baked, ext)
}

func (legacyNaming) Version(stored string) Version {
	if strings.HasPrefix(stored, string(VersionThumb)+"_original_") {
		return VersionThumb
	}
	if strings.HasPrefix(stored, "original_") {
		return VersionOriginal
	}
	return ""
}

// Strategies in priority order: current first, legacy as fallback.
var namingStrategies = []NamingStrategy{currentNaming{}, legacyNaming{}}

// OwnerDir is the directory one owner's assets live under.
func OwnerDir(kind EntityType, slug string) string {
	return path.Join(UploadsPrefix, string(kind), slug)
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// SafeFilename lowercases and strips anything outside [a-z0-9_-] from the
// base name, keeping the extension.
func SafeFilename(name string) string {
	base, ext := splitExt(path.Base(name))
	base = strings.ToLower(base)
	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeNameRe.ReplaceAllString(base, "")
	if base == "" {
		base = "image"
	}
	return base + strings.ToLower(ext)
}

func splitExt(name string) (base, ext string) {
	ext = path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// storedVersion classifies a stored file name using every strategy.
func storedVersion(name string) Version {
	for _, ns := range namingStrategies {
		if v := ns.Version(name); v != "" {
			return v
		}
	}
	return ""
}
