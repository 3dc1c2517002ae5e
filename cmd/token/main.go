// Command token mints an access token for local development.
//
//	go run ./cmd/token -email alice@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yigit/feedsphere/internal/bootstrap"
	"github.com/yigit/feedsphere/internal/config"
	"github.com/yigit/feedsphere/internal/pkg/auth"
	"github.com/yigit/feedsphere/internal/pkg/helpers"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

func main() {
	email := flag.String("email", "", "identity to embed in the token")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: token -email <address>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(bootstrap.ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	token, expiresIn, err := jwtService.GenerateToken(*email)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		os.Exit(1)
	}

	logger.Info().Str("email", *email).Int("expiresIn", expiresIn).Msg("Token generated")
	fmt.Println(token)
}
