// Package settings хранит пользовательские предпочтения витрины в TOML-файле.
// Файл играет роль локального хранилища браузера: настройки переживают
// перезапуск процесса, но не являются общими для пользователей.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// DefaultTheme применяется, пока пользователь не выбрал свою тему.
const DefaultTheme = "wada-theme-dusty-sage"

// ErrUnknownTheme возвращается при попытке сохранить тему не из списка.
var ErrUnknownTheme = errors.New("unknown color theme")

// knownThemes — темы, которые умеет отрисовывать витрина.
var knownThemes = []string{
	"wada-theme-dusty-sage",
	"wada-theme-terracotta-teal",
	"wada-theme-mustard-navy",
	"wada-theme-coral-forest",
	"wada-theme-mauve-olive",
}

// Preferences — сериализуемый снимок настроек.
type Preferences struct {
	Theme string `toml:"theme"`
}

// Store читает и пишет настройки с защитой от конкурентного доступа.
type Store struct {
	path   string
	logger *log.Entry

	mu    sync.Mutex
	prefs Preferences
}

// NewStore загружает настройки из path; отсутствующий или нечитаемый файл
// даёт настройки по умолчанию.
func NewStore(path string, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.New().WithField("component", "settings")
	}
	s := &Store{
		path:   path,
		logger: logger,
		prefs:  Preferences{Theme: DefaultTheme},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", path).Warn("settings file unreadable, using defaults")
		}
		return s
	}

	var prefs Preferences
	if err := toml.Unmarshal(raw, &prefs); err != nil {
		logger.WithError(err).WithField("path", path).Warn("settings file malformed, using defaults")
		return s
	}
	if !IsKnownTheme(prefs.Theme) {
		logger.WithField("theme", prefs.Theme).Warn("saved theme unknown, using default")
		prefs.Theme = DefaultTheme
	}
	s.prefs = prefs
	return s
}

// IsKnownTheme сообщает, входит ли тема в список поддерживаемых.
func IsKnownTheme(theme string) bool {
	for _, known := range knownThemes {
		if known == theme {
			return true
		}
	}
	return false
}

// Themes возвращает список поддерживаемых тем.
func Themes() []string {
	return append([]string(nil), knownThemes...)
}

// Theme возвращает текущую тему.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Theme
}

// SetTheme сохраняет выбранную тему на диск.
func (s *Store) SetTheme(theme string) error {
	if !IsKnownTheme(theme) {
		return fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = theme
	return s.persistLocked()
}

// persistLocked пишет снимок атомарно: сначала во временный файл, затем rename.
func (s *Store) persistLocked() error {
	raw, err := toml.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	s.logger.WithField("theme", s.prefs.Theme).Debug("settings persisted")
	return nil
}
