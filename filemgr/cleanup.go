package filemgr

import (
	"errors"
	"log"
	"path"
	"sort"

	"micmap/models"
)

// CleanupDuplicates walks every owner directory under uploads/, groups files
// by version, keeps only the newest of each version, and deletes the rest.
// It works identically over local files and remote-object listings because it
// only uses the backend's List and Delete. With dryRun the report carries the
// same counts but nothing is removed.
func (s *Store) CleanupDuplicates(dryRun bool) (models.CleanupReport, error) {
	report := models.CleanupReport{DryRun: dryRun}

	objects, err := s.backend.List(UploadsPrefix)
	if err != nil {
		return report, err
	}

	byDir := make(map[string][]Object)
	for _, obj := range objects {
		byDir[path.Dir(obj.Path)] = append(byDir[path.Dir(obj.Path)], obj)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		report.DirectoriesChecked++

		byVersion := make(map[Version][]Object)
		for _, obj := range byDir[dir] {
			v := storedVersion(path.Base(obj.Path))
			if v == "" {
				continue // not ours; leave unrecognized files alone
			}
			byVersion[v] = append(byVersion[v], obj)
		}

		dirHadDuplicates := false
		for _, group := range byVersion {
			if len(group) < 2 {
				continue
			}
			dirHadDuplicates = true
			// newest first; everything after index 0 goes
			sort.Slice(group, func(i, j int) bool {
				return group[i].ModTime.After(group[j].ModTime)
			})
			for _, obj := range group[1:] {
				report.FilesRemoved++
				report.Removed = append(report.Removed, obj.Path)
				if dryRun {
					continue
				}
				if err := s.backend.Delete(obj.Path); err != nil && !errors.Is(err, ErrNotFound) {
					log.Printf("[Cleanup] delete %s: %v", obj.Path, err)
				}
			}
		}
		if dirHadDuplicates {
			report.DirectoriesWithDuplicates++
		}
	}

	return report, nil
}
