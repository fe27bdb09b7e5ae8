package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExternalDependenciesSuite loads provider credentials from a settings file before any
// integration test runs. Suites skip themselves when their credential is absent.
type ExternalDependenciesSuite struct {
	suite.Suite
	settingsFile string
}

func (s *ExternalDependenciesSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}

	s.settingsFile = settingsFile

	_, err := os.Stat(settingsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && settingsFromEnv == "" {
			// If defaulting to $HOME/.env and it doesn't exist, continue.
			return
		}
		require.NoError(s.T(), err)
		return
	}

	err = godotenv.Overload(settingsFile)
	require.NoError(s.T(), err)
}

func (s *ExternalDependenciesSuite) SettingsFile() string {
	return s.settingsFile
}

// RequireEnv returns the first non-empty variable among names, skipping the suite when none is set.
func (s *ExternalDependenciesSuite) RequireEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	s.T().Skipf("%s is not set; skipping external dependency integration test", strings.Join(names, " or "))
	return ""
}

// AssertExtracted checks what every validated transaction satisfies regardless of provider.
func (s *ExternalDependenciesSuite) AssertExtracted(tx model.TransactionData, language model.Language) {
	s.Equal(language, tx.Language)
	s.Equal(language.Currency(), tx.Currency)
	s.NotEmpty(tx.Items)
	s.InDelta(tx.ItemsTotal(), tx.Total, 0.01)
	for _, item := range tx.Items {
		s.NotEmpty(strings.TrimSpace(item.Name))
		s.Greater(item.Quantity, 0.0)
	}
}
