// hashpass prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"framing-command-center/internal/auth"
)

func main() {
	fmt.Fprint(os.Stderr, "admin password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
