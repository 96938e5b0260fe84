package sync

import (
	"bufio"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

var defaultIgnoreLines = []string{
	// vcs
	".git",
	".hg",
	".svn",
	// editors
	"*.swp",
	"*~",
	"*.tmp",
	".idea",
	// OS-specific
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

// SyncIgnoreList decides which paths are left out of the snapshot. Reserved mynk files
// are always ignored; on top of that come the defaults and the root's .mynkignore.
type SyncIgnoreList struct {
	fs      afero.Fs
	baseDir string
	ignore  *gitignore.GitIgnore
	// the watcher filters events while a round reloads the rules
	mu sync.RWMutex
}

func NewSyncIgnoreList(fs afero.Fs, baseDir string) *SyncIgnoreList {
	return &SyncIgnoreList{
		fs:      fs,
		baseDir: baseDir,
		ignore:  gitignore.CompileIgnoreLines(defaultIgnoreLines...),
	}
}

// Load (re)reads the ignore file. A missing or unreadable file leaves only the defaults.
func (s *SyncIgnoreList) Load() {
	ignorePath := filepath.Join(s.baseDir, workspace.IgnoreFile)
	ignoreLines := append([]string(nil), defaultIgnoreLines...)

	file, err := s.fs.Open(ignorePath)
	if err != nil {
		s.setRules(ignoreLines)
		return
	}
	defer file.Close()

	rules := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ignoreLines = append(ignoreLines, line)
		rules++
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("error reading ignore file", "path", ignorePath, "error", err)
	} else {
		slog.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
	}

	s.setRules(ignoreLines)
}

func (s *SyncIgnoreList) setRules(lines []string) {
	compiled := gitignore.CompileIgnoreLines(lines...)
	s.mu.Lock()
	s.ignore = compiled
	s.mu.Unlock()
}

// ShouldIgnore accepts a canonical relative path or an absolute path inside baseDir
func (s *SyncIgnoreList) ShouldIgnore(path string) bool {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
		path = utils.NormPath(rel)
	}

	if workspace.IsReserved(path) {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ignore.MatchesPath(path)
}

// untrackIgnored drops baseline entries for paths that are ignored now, so a file added
// to the ignore rules stops being tracked instead of being sent as a delete.
func untrackIgnored(baseline StateMapping, ignore *SyncIgnoreList) int {
	dropped := 0
	for path := range baseline {
		if ignore.ShouldIgnore(path) {
			delete(baseline, path)
			dropped++
		}
	}
	return dropped
}
