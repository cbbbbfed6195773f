// Operator command line client for linkstash.
//
// Talks to the database directly, so it runs on the host that has the
// server configuration (DATABASE_URI, SECRET_KEY) available.
//
//	linkstash-cli token generate --username nk   generate non-expiring cli token
//	linkstash-cli token revoke --token-id <id>   revoke cli token by its id
//	linkstash-cli totp enable --username nk      enable second factor, prints the secret
//	linkstash-cli totp disable --username nk     disable second factor
//	linkstash-cli passwd --username nk           change password
//	linkstash-cli cleanup                        prune old login attempts
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	ctx := context.Background()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("command required: token, totp, passwd or cleanup")
	}

	app, err := newCliApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	switch args[0] {
	case "token":
		return app.runToken(ctx, args[1:])
	case "totp":
		return app.runTotp(ctx, args[1:])
	case "passwd":
		return app.runPasswd(ctx, args[1:])
	case "cleanup":
		return app.runCleanup(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
