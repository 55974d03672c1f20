// Package main は APP_PASSWORD_HASH に設定する bcrypt ハッシュを出力するツールです。
//
//	go run ./cmd/hashpw -cost 12
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/yourusername/login-api/internal/users"
)

// 端末入力の差し替え口です（テスト用）。
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, os.Stderr, *cost); err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
}

func run(in *os.File, out, prompt io.Writer, cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	password, err := readInput(in, prompt)
	if err != nil {
		return err
	}
	hash, err := users.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// readInput は端末ならエコーなしで、パイプなら1行目をパスワードとして読みます。
func readInput(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if isTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := readPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
