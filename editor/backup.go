package editor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"zte/log"
)

const backupInterval = 30 * time.Second

// BackupInfo describes a recovery copy of a buffer with unsaved edits.
type BackupInfo struct {
	OriginalPath string `json:"original_path"`
	WorkDir      string `json:"work_dir"`
	Timestamp    string `json:"timestamp"`
}

// backupEvent asks the event loop to write recovery copies.
type backupEvent struct {
	tcell.EventTime
}

func backupDir(dataDir string) string {
	return filepath.Join(dataDir, "backups")
}

func backupPathForFile(dataDir, originalPath string) string {
	h := sha256.Sum256([]byte(originalPath))
	return filepath.Join(backupDir(dataDir), fmt.Sprintf("%x.bak", h[:8]))
}

func backupMetaPath(backupPath string) string {
	return backupPath + ".json"
}

// startBackups posts a backupEvent every backupInterval until stop is
// called. The copies themselves are written on the event loop.
func startBackups(post func(tcell.Event) error) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(backupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ev := &backupEvent{}
				ev.SetEventNow()
				_ = post(ev)
			}
		}
	}()
	return func() { close(done) }
}

// saveBackups writes a recovery copy of every dirty file-backed buffer.
func (e *Editor) saveBackups() {
	if e.dataDir == "" {
		return
	}
	if err := os.MkdirAll(backupDir(e.dataDir), 0755); err != nil {
		log.ErrorErr(log.CatBuffer, "cannot create backup dir", err)
		return
	}
	wd, _ := os.Getwd()

	for _, id := range e.reg.Buffers() {
		buf, ok := e.reg.Buffer(id)
		if !ok || !buf.Dirty() || buf.Path() == "" {
			continue
		}
		bpath := backupPathForFile(e.dataDir, buf.Path())
		if err := os.WriteFile(bpath, []byte(buf.String()), 0644); err != nil {
			log.ErrorErr(log.CatBuffer, "backup failed", err, "path", buf.Path())
			continue
		}
		meta, err := json.Marshal(BackupInfo{
			OriginalPath: buf.Path(),
			WorkDir:      wd,
			Timestamp:    time.Now().Format(time.RFC3339),
		})
		if err != nil {
			continue
		}
		if err := os.WriteFile(backupMetaPath(bpath), meta, 0644); err != nil {
			log.ErrorErr(log.CatBuffer, "backup metadata failed", err, "path", buf.Path())
		}
	}
}

func (e *Editor) cleanBackup(path string) {
	if path == "" || e.dataDir == "" {
		return
	}
	bpath := backupPathForFile(e.dataDir, path)
	_ = os.Remove(bpath)
	_ = os.Remove(backupMetaPath(bpath))
}

func (e *Editor) cleanAllBackups() {
	for _, id := range e.reg.Buffers() {
		if buf, ok := e.reg.Buffer(id); ok {
			e.cleanBackup(buf.Path())
		}
	}
}

// ListBackups returns the recovery copies left behind in workDir.
func ListBackups(dataDir, workDir string) []BackupInfo {
	dir := backupDir(dataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var found []BackupInfo
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		metaPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var info BackupInfo
		if json.Unmarshal(data, &info) != nil || info.WorkDir != workDir {
			continue
		}
		if _, err := os.Stat(strings.TrimSuffix(metaPath, ".json")); err == nil {
			found = append(found, info)
		}
	}
	return found
}

// RecoverBackup writes a recovery copy over its original file and removes
// the copy.
func RecoverBackup(dataDir string, info BackupInfo) error {
	bpath := backupPathForFile(dataDir, info.OriginalPath)
	data, err := os.ReadFile(bpath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if err := os.WriteFile(info.OriginalPath, data, 0644); err != nil {
		return fmt.Errorf("restore %s: %w", info.OriginalPath, err)
	}
	_ = os.Remove(bpath)
	_ = os.Remove(backupMetaPath(bpath))
	return nil
}
