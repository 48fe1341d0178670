// Command token mints a bearer token for a ledger address using the
// server's JWT_SECRET and TOKEN_TTL. Intended for development and operator
// scripts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/auth"
)

func main() {
	var (
		addr   = flag.String("address", "", "caller address (0x hex or base58)")
		secret = flag.String("secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
		ttl    = flag.Duration("ttl", 15*time.Minute, "token lifetime")
	)
	flag.Parse()

	if err := run(*addr, *secret, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, secret string, ttl time.Duration) error {
	if secret == "" {
		return fmt.Errorf("a signing secret is required (-secret or JWT_SECRET)")
	}
	caller, err := address.Parse(addr)
	if err != nil {
		return err
	}
	token, exp, err := auth.NewService(secret, ttl).Issue(caller)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", token)
	fmt.Fprintf(os.Stderr, "subject %s expires %s\n", caller, exp.UTC().Format(time.RFC3339))
	return nil
}
