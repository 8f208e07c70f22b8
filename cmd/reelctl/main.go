// Command reelctl is a terminal client for a ShortReel server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "reelctl:", err)
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

const usageText = `usage: reelctl [global flags] <command> [flags]

commands:
  register -email E -password P
  login    -email E -password P
  logout
  upload   -title T -description D -video FILE -thumbnail FILE
  list     [-q TERM]
  show     ID
  delete   ID

global flags:
  -server URL       API base url (env SHORTREEL_API_URL, default http://localhost:8080)
  -upload-url URL   media upload endpoint (env SHORTREEL_UPLOAD_URL, default <server>/api/media/upload)
  -public-key KEY   media public key (env SHORTREEL_MEDIA_PUBLIC_KEY)
  -session FILE     where the session is stored`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	g, rest, err := parseGlobals(args, stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return usageError(usageText)
	}

	cli, err := newCLI(g, stdout, stderr)
	if err != nil {
		return err
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "register":
		return cli.register(ctx, cmdArgs)
	case "login":
		return cli.login(ctx, cmdArgs)
	case "logout":
		return cli.logout(ctx)
	case "upload":
		return cli.upload(ctx, cmdArgs)
	case "list":
		return cli.list(ctx, cmdArgs)
	case "show":
		return cli.show(ctx, cmdArgs)
	case "delete":
		return cli.delete(ctx, cmdArgs)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usageText)
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command %q\n\n%s", cmd, usageText))
	}
}
