package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const serverIDFile = ".server_id"

// GetPersistentServerID returns a stable id for this host, used as the owner
// of the shared schedule lock. Order: override, <storagePath>/.server_id,
// hostname, then a generated id that is saved for the next start.
func GetPersistentServerID(fs afero.Fs, override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, serverIDFile)
	if data, err := afero.ReadFile(fs, idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "localhost" {
		cleanHost := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return -1
		}, hostname)
		if cleanHost != "" {
			return "azwabot-" + cleanHost
		}
	}

	newID := "azwabot-" + uuid.NewString()[:8]
	if err := fs.MkdirAll(storagePath, 0755); err == nil {
		if err := afero.WriteFile(fs, idFile, []byte(newID), 0644); err != nil {
			logrus.WithError(err).Warnf("[SERVER] Could not persist server id to %s", idFile)
		}
	}
	return newID
}
