package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/hvr-ops/hvr-manager/internal/config"
	"github.com/hvr-ops/hvr-manager/internal/fivetran"
	"github.com/hvr-ops/hvr-manager/internal/logging"
	"github.com/hvr-ops/hvr-manager/internal/manager"
	"github.com/hvr-ops/hvr-manager/internal/secrets"
)

// commandContext is the per-invocation context, canceled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildService loads config, resolves the credential, and wires the domain
// service. allowPrompt enables the interactive secret prompt for terminal
// sessions; serve-style commands pass false.
func buildService(ctx context.Context, commandPath string, allowPrompt bool) (*manager.Service, config.Config, error) {
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: commandPath, Writer: os.Stderr}); err != nil {
		return nil, config.Config{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}

	cred, err := resolveCredential(ctx, cfg, allowPrompt)
	if err != nil {
		return nil, config.Config{}, err
	}

	api, err := fivetran.NewWithOptions(cred, fivetran.Options{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	if err != nil {
		return nil, config.Config{}, err
	}
	svc, err := manager.NewService(api)
	if err != nil {
		return nil, config.Config{}, err
	}
	return svc, cfg, nil
}

// resolveCredential picks the credential source: environment pair first,
// then Vault, then an interactive prompt when permitted.
func resolveCredential(ctx context.Context, cfg config.Config, allowPrompt bool) (fivetran.Credential, error) {
	if cfg.HasCredential() {
		return cfg.Credential, nil
	}
	if cfg.VaultConfigured() {
		return secrets.FetchCredential(ctx, cfg.Vault)
	}
	if allowPrompt && term.IsTerminal(int(os.Stdin.Fd())) {
		return promptCredential()
	}
	return fivetran.Credential{}, errors.New("no Fivetran credential: set FIVETRAN_API_KEY/FIVETRAN_API_SECRET or configure Vault")
}

func promptCredential() (fivetran.Credential, error) {
	fmt.Fprint(os.Stderr, "Fivetran API key: ")
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fivetran.Credential{}, fmt.Errorf("read api key: %w", err)
	}

	fmt.Fprint(os.Stderr, "Fivetran API secret: ")
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fivetran.Credential{}, fmt.Errorf("read api secret: %w", err)
	}

	cred := fivetran.NewCredential(strings.TrimSpace(key), string(secretBytes))
	if cred.IsZero() {
		return fivetran.Credential{}, errors.New("both api key and api secret are required")
	}
	return cred, nil
}

// operationExit turns a wrapped operation result into the command exit path:
// the message is printed either way, and a failed result exits non-zero
// without a duplicate error line.
func operationExit(result manager.OperationResult) error {
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	if !result.Success {
		return &exitError{code: 1, err: errors.New(result.Message), silent: result.Message != ""}
	}
	return nil
}
