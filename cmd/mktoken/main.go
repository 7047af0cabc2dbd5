// Command mktoken mints a signed bearer token for local development and
// manual API testing. It signs with the same JWT_SECRET the server loads,
// so the printed token passes the server's auth middleware as-is.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/domain"
)

func main() {
	id := flag.String("id", "dev-user", "subject claim")
	name := flag.String("name", "Dev User", "name claim")
	mail := flag.String("email", "dev@campus.edu", "email claim")
	role := flag.String("role", string(domain.RoleOrganizer), "role claim (participant, organizer, admin)")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	token, err := issuer.Issue(domain.Principal{
		ID:    *id,
		Name:  *name,
		Email: *mail,
		Role:  domain.Role(*role),
	}, *expiry)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
