// Command adminkey prints a bcrypt hash of an admin key, suitable for ADMIN_KEY.
//
//	adminkey 's3cret'
//	echo 's3cret' | adminkey
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"subhub/internal/common/security"
)

func main() {
	key, err := readKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "adminkey:", err)
		os.Exit(1)
	}
	hash, err := security.HashAdminKey(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "adminkey:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readKey() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key from stdin: %w", err)
	}
	key := strings.TrimRight(line, "\r\n")
	if key == "" {
		return "", errors.New("empty key")
	}
	return key, nil
}
