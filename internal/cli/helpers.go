package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/daemon"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// openServices loads the config and opens the local database with a
// progress service over it. Callers must Close the returned DB.
func openServices() (daemon.Config, *sqlite.DB, *progress.Service, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return cfg, nil, nil, err
	}

	db, err := sqlite.Open(daemon.WhyleeHome())
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("open database: %w", err)
	}

	return cfg, db, progress.NewService(db), nil
}

// confirm prompts on stdout and reads a y/N answer from r.
func confirm(r io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
