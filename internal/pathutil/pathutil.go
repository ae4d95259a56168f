// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// EnvVar selects an isolated set of files, e.g. STEADFAST_ENV=dev.
const EnvVar = "STEADFAST_ENV"

// Paths holds all application path configurations.
type Paths struct {
	configDir      string
	configFileName string
	dbFileName     string
	sqliteFileName string
	logFileName    string

	// Computed absolute paths
	configFilePath string
	dbFilePath     string
	sqliteFilePath string
	logFilePath    string
}

var (
	paths *Paths
	once  sync.Once
)

// Initialize must be called once at program startup.
func Initialize() error {
	var initErr error

	once.Do(func() {
		paths = &Paths{
			configDir:      "steadfast",
			configFileName: "config.yml",
			dbFileName:     "steadfast.db",
			sqliteFileName: "steadfast.sqlite",
			logFileName:    "steadfast.log",
		}

		paths.applyEnvironmentOverrides(os.Getenv(EnvVar))
		initErr = paths.computePaths()
	})

	return initErr
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func Dir() string {
	return Must().configDir
}

func ConfigFilePath() string {
	return Must().configFilePath
}

// DBFilePath returns the default database location for the given backend.
func DBFilePath(backend string) string {
	if backend == "sqlite" {
		return Must().sqliteFilePath
	}

	return Must().dbFilePath
}

func LogFilePath() string {
	return Must().logFilePath
}

func (p *Paths) applyEnvironmentOverrides(env string) {
	env = strings.TrimSpace(env)
	if env == "" {
		return
	}

	p.configFileName = fmt.Sprintf("config_%s.yml", env)
	p.dbFileName = fmt.Sprintf("steadfast_%s.db", env)
	p.sqliteFileName = fmt.Sprintf("steadfast_%s.sqlite", env)
	p.logFileName = fmt.Sprintf("steadfast_%s.log", env)
}

func (p *Paths) computePaths() error {
	var err error

	relPath := filepath.Join(p.configDir, p.configFileName)

	p.configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return err
	}

	dataDir, err := xdg.DataFile(p.configDir)
	if err != nil {
		return err
	}

	p.dbFilePath = filepath.Join(dataDir, p.dbFileName)
	p.sqliteFilePath = filepath.Join(dataDir, p.sqliteFileName)
	p.logFilePath = filepath.Join(dataDir, "log", p.logFileName)

	return nil
}
