package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pquerna/otp/totp"

	"github.com/securedash/authflow/internal/idptest"
	"github.com/securedash/authflow/pkg/session"
)

type Config struct {
	Host string `env:"IDP_HOST" env-default:"localhost"`
	Port uint16 `env:"IDP_PORT" env-default:"8081"`
}

// main runs the in-memory identity provider with demo accounts, as a
// local backend for the login client.
func main() {
	config := Config{}
	cleanenv.ReadEnv(&config)

	idp := idptest.New()
	idp.AddAccount(idptest.Account{
		Email:         "user@example.com",
		Password:      "Passw0rd!",
		Role:          session.RoleUser,
		Name:          "Demo User",
		EmailVerified: true,
	})
	idp.AddAccount(idptest.Account{
		Email:         "admin@example.com",
		Password:      "Passw0rd!",
		Role:          session.RoleAdmin,
		Name:          "Demo Admin",
		EmailVerified: true,
	})

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SecureDash",
		AccountName: "super@example.com",
	})
	if err != nil {
		slog.Error("Failed to generate demo TOTP secret", "err", err)
		os.Exit(-1)
	}
	idp.AddAccount(idptest.Account{
		Email:         "super@example.com",
		Password:      "Passw0rd!",
		Role:          session.RoleSuperadmin,
		Name:          "Demo Superadmin",
		MFASecret:     key.Secret(),
		EmailVerified: true,
	})

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	slog.Info("Demo identity provider listening", "addr", addr)
	slog.Info("Demo accounts", "user", "user@example.com", "admin", "admin@example.com", "superadmin", "super@example.com", "password", "Passw0rd!")
	slog.Info("Superadmin TOTP secret (enter codes from this)", "secret", key.Secret())

	if err := http.ListenAndServe(addr, idp.Router()); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}
