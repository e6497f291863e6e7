// Command admin-token prints a bearer token for the /api/v1/admin endpoints,
// signed with the configured service.jwt_secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	infraconfig "github.com/performartech/hinis-website/infrastructure/config"
	"github.com/performartech/hinis-website/infrastructure/jwt"
	"github.com/performartech/hinis-website/internal/config"
)

const defaultTokenTTL = 24 * time.Hour

func main() {
	os.Exit(run())
}

func run() int {
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", defaultTokenTTL, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(infraconfig.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	token, err := jwt.Issue(cfg.Service.JWTSecret, *subject, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		return 1
	}

	fmt.Println(token)
	return 0
}
