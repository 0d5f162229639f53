package cryptoutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// PassphraseSource lazily resolves the searcher's keystore passphrase from
// an environment variable or, failing that, an interactive terminal
// prompt. The resolved value is cached so repeated calls reuse it.
type PassphraseSource struct {
	envVar string

	once  sync.Once
	value string
	err   error
}

// NewPassphraseSource constructs a source that checks envVar before
// prompting on stderr.
func NewPassphraseSource(envVar string) *PassphraseSource {
	return &PassphraseSource{envVar: strings.TrimSpace(envVar)}
}

// Get returns the cached passphrase or resolves it on first call.
func (s *PassphraseSource) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			if s.envVar != "" {
				s.err = fmt.Errorf("searcher keystore passphrase required; set %s or run interactively", s.envVar)
			} else {
				s.err = errors.New("searcher keystore passphrase required and no terminal available")
			}
			return
		}

		fmt.Fprint(os.Stderr, "Enter searcher keystore passphrase: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			s.err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}

		passphrase := string(raw)
		if strings.TrimSpace(passphrase) == "" {
			s.err = errors.New("searcher keystore passphrase cannot be empty")
			return
		}
		s.value = passphrase
	})

	return s.value, s.err
}
