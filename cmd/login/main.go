package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/securedash/authflow/pkg/authapi"
	"github.com/securedash/authflow/pkg/config"
	"github.com/securedash/authflow/pkg/flow"
	"github.com/securedash/authflow/pkg/session"
	"github.com/securedash/authflow/pkg/storage"
	"github.com/securedash/authflow/pkg/throttle"
)

// terminalPresenter renders flow callbacks as plain terminal output.
type terminalPresenter struct {
	flow.NopPresenter
}

func (terminalPresenter) ShowError(message string)   { fmt.Println("error:", message) }
func (terminalPresenter) ShowSuccess(message string) { fmt.Println(message) }
func (terminalPresenter) ShowFieldError(fieldID, message string) {
	fmt.Printf("  %s: %s\n", fieldID, message)
}
func (terminalPresenter) RedirectByRole(role session.Role) {
	fmt.Printf("Signed in. Dashboard: /%s\n", strings.ToLower(string(role)))
}
func (terminalPresenter) RedirectToLogin() { fmt.Println("Signed out.") }

func main() {
	logout := flag.Bool("logout", false, "sign out and clear the stored session")
	whoami := flag.Bool("whoami", false, "show the stored session")
	recaptcha := flag.String("recaptcha", "cli-challenge", "anti-automation challenge token to submit")
	flag.Parse()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(-1)
	}

	repo, err := storage.NewFileRepository(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to open state directory", "dir", cfg.DataDir, "err", err)
		os.Exit(-1)
	}

	sessions := session.NewService(repo)
	attempts := throttle.NewService(repo, cfg.ThrottleConfig(),
		throttle.WithOnUnlock(func() { fmt.Println("Account unlocked. You may try again.") }))
	defer attempts.Close()

	client := authapi.NewClient(cfg.BaseURL)
	ctrl := flow.NewController(client, sessions, attempts, flow.WithPresenter(terminalPresenter{}))
	ctx := context.Background()

	switch {
	case *whoami:
		runWhoami(ctx, client, sessions)
	case *logout:
		if err := ctrl.Logout(ctx); err != nil {
			slog.Error("Failed to clear session", "err", err)
			os.Exit(-1)
		}
	default:
		runLogin(ctx, ctrl, sessions, *recaptcha)
	}
}

func runWhoami(ctx context.Context, client *authapi.Client, sessions *session.Service) {
	tokens, ok := sessions.Current()
	if !ok {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("Signed in as %s (%s)\n", tokens.Email, tokens.Role)

	if claims, err := session.PeekClaims(tokens.AccessToken); err == nil {
		fmt.Printf("Access token expires at %s\n", claims.ExpiresAt)
	}

	profile, err := client.GetProfile(ctx, tokens.AccessToken)
	if err != nil {
		fmt.Println("Could not fetch profile:", err)
		return
	}
	fmt.Printf("Name: %s\n", profile.Name)
	if profile.PhoneNumber != "" {
		fmt.Printf("Phone: %s\n", profile.PhoneNumber)
	}
}

func runLogin(ctx context.Context, ctrl *flow.Controller, sessions *session.Service, recaptcha string) {
	if sessions.IsAuthenticated() {
		fmt.Printf("Already signed in as %s. Run with -logout to sign out.\n", sessions.Email())
		return
	}
	if ctrl.CheckLockoutStatus() {
		return
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		email := prompt(reader, "Email: ")
		password, err := promptPassword("Password: ")
		if err != nil {
			slog.Error("Failed to read password", "err", err)
			os.Exit(-1)
		}

		if err := ctrl.SubmitCredentials(ctx, email, password, recaptcha); err != nil {
			continue
		}
		break
	}

	for ctrl.Phase() == flow.PhaseMFAChallenge {
		code := prompt(reader, "2FA code (empty to cancel): ")
		if code == "" {
			if err := ctrl.CancelMFA(); err == nil {
				fmt.Println("Cancelled. Run again to retry.")
				return
			}
			continue
		}
		_ = ctrl.SubmitMFACode(ctx, code)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
