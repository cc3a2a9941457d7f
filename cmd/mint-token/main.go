// Command mint-token issues an auth token for headless clients that cannot
// go through the GitHub login, e.g. scripts pushing parameter changes.
package main

import (
	"flag"
	"fmt"
	"os"

	"galaxy-server/internal/auth"
	"galaxy-server/internal/shared/config"
)

var (
	emailFlag    = flag.String("email", "", "operator e-mail, must be listed in ADMIN_EMAILS for the operator role")
	usernameFlag = flag.String("username", "", "display name stored in the token")
)

func main() {
	flag.Parse()

	if *emailFlag == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	username := *usernameFlag
	if username == "" {
		username = *emailFlag
	}

	role := auth.RoleFor(*emailFlag)
	token, err := auth.GenerateJWT(*emailFlag, username, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	if role != auth.RoleOperator {
		fmt.Fprintf(os.Stderr, "warning: %s is not in ADMIN_EMAILS, token grants the %s role\n", *emailFlag, role)
	}
	fmt.Println(token)
}
