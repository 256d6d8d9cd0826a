package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

func main() {
	err := newApp(os.Stdin, os.Stdout).Run(os.Args)
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "hash",
		Usage:     "Hash and verify user passwords with bcrypt",
		Writer:    out,
		ErrWriter: out,
		// exit codes are handled by main
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			hashCmd(in),
			verifyCmd(in),
		},
	}
}

var errNoMatch = cli.Exit("", 1)

func hashCmd(in io.Reader) *cli.Command {
	var cost int
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the bcrypt digest of a password (read from stdin when not given)",
		ArgsUsage: "[password]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "cost",
				Usage:       "bcrypt cost",
				Value:       bcrypt.DefaultCost,
				Destination: &cost,
			},
		},
		Action: func(ctx *cli.Context) error {
			password, err := passwordArg(ctx, in)
			if err != nil {
				return err
			}
			digest, err := helpers.NewBcryptHasher(cost).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, digest)
			return nil
		},
	}
}

func verifyCmd(in io.Reader) *cli.Command {
	var digest string
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check a password against a digest",
		ArgsUsage: "[password]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "digest",
				Aliases:     []string{"d"},
				Usage:       "bcrypt digest to check against",
				Destination: &digest,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			password, err := passwordArg(ctx, in)
			if err != nil {
				return err
			}
			if !helpers.NewBcryptHasher(bcrypt.DefaultCost).Verify(password, digest) {
				fmt.Fprintln(ctx.App.Writer, "no match")
				return errNoMatch
			}
			fmt.Fprintln(ctx.App.Writer, "match")
			return nil
		},
	}
}

func passwordArg(ctx *cli.Context, in io.Reader) (string, error) {
	if ctx.Args().Len() > 0 {
		return ctx.Args().First(), nil
	}
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("missing password from stdin")
	}
	password := strings.TrimRight(sc.Text(), "\r\n")
	if password == "" {
		return "", errors.New("missing password from stdin")
	}
	return password, nil
}
