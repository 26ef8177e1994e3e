// Package prompt asks the operator for settings that configuration did not supply.
package prompt

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"

	"github.com/imedwei/wings-backup-purger/internal/config"
)

// Asker asks single questions.
type Asker interface {
	Input(message, defaultValue string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyAsker asks on the terminal.
type SurveyAsker struct{}

// Input implements Asker.
func (SurveyAsker) Input(message, defaultValue string) (string, error) {
	var answer string
	prompt := &survey.Input{Message: message, Default: defaultValue}
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", fmt.Errorf("survey failed: %w", err)
	}
	return answer, nil
}

// Password implements Asker.
func (SurveyAsker) Password(message string) (string, error) {
	var answer string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", fmt.Errorf("survey failed: %w", err)
	}
	return answer, nil
}

// Confirm implements Asker.
func (SurveyAsker) Confirm(message string, defaultValue bool) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: message, Default: defaultValue}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, fmt.Errorf("survey failed: %w", err)
	}
	return answer, nil
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Complete fills in missing database parameters and the hash verification
// choice. With NonInteractive set nothing is asked and missing database
// parameters are an error.
func Complete(cfg *config.Config, asker Asker) error {
	db := &cfg.Database

	if cfg.NonInteractive {
		if db.Missing() {
			return fmt.Errorf("%w: database parameters are incomplete and prompting is disabled", config.ErrInvalidConfig)
		}
		return nil
	}

	questions := []struct {
		value    *string
		message  string
		fallback string
	}{
		{&db.Host, "Database host:", "127.0.0.1"},
		{&db.Port, "Database port:", "3306"},
		{&db.Name, "Database name:", "panel"},
		{&db.Username, "Database username:", "pterodactyl"},
	}
	for _, q := range questions {
		if *q.value != "" {
			continue
		}
		answer, err := asker.Input(q.message, q.fallback)
		if err != nil {
			return err
		}
		*q.value = answer
	}

	if db.Password == "" {
		answer, err := asker.Password("Database password:")
		if err != nil {
			return err
		}
		db.Password = answer
	}

	if !cfg.VerifyHashSet {
		answer, err := asker.Confirm("Check backup hash?", false)
		if err != nil {
			return err
		}
		cfg.VerifyHash = answer
		cfg.VerifyHashSet = true
	}

	return nil
}
