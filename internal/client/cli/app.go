// Package cli implements the interactive command loop of the file exchange
// client. Commands talk to the server through the api client and keep the
// login state in the sqlite session store.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkruglov/fileshare/internal/client/api"
	"github.com/dkruglov/fileshare/internal/client/config"
	"github.com/dkruglov/fileshare/internal/client/session"
	"github.com/dkruglov/fileshare/internal/common"
)

// exchangeAPI is the server surface the commands use.
type exchangeAPI interface {
	Signup(ctx context.Context, name, password, email string) error
	Login(ctx context.Context, name, password string) (string, error)
	Upload(ctx context.Context, token string, paths ...string) (string, error)
	Download(ctx context.Context, link, destDir string) (string, error)
}

// sessionStore persists the login between runs.
type sessionStore interface {
	Save(ctx context.Context, username, token string) error
	Current(ctx context.Context) (username, token string, err error)
	Clear(ctx context.Context) error
}

type App struct {
	config  *config.Config
	api     exchangeAPI
	session sessionStore
	in      io.Reader
	out     io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	store, err := session.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  cfg,
		api:     api.NewClient(cfg.ServerURL),
		session: store,
		in:      os.Stdin,
		out:     os.Stdout,
	}, nil
}

// Run reads commands until EOF or "exit".
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "fileshare client (type 'help' for commands)")

	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprintf(a.out, "fileshare %s> ", a.promptLogin(ctx))
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		if quit := a.execute(ctx, parts[0], parts[1:]); quit {
			break
		}
	}
}

func (a *App) promptLogin(ctx context.Context) string {
	username, _, err := a.session.Current(ctx)
	if err != nil {
		return ""
	}
	return username
}

// execute dispatches one command. It returns true when the loop should end.
func (a *App) execute(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "help":
		a.printHelp()
	case "register":
		a.register(ctx, args)
	case "login":
		a.login(ctx, args)
	case "logout":
		a.logout(ctx)
	case "whoami":
		a.whoami(ctx)
	case "upload":
		a.upload(ctx, args)
	case "download":
		a.download(ctx, args)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(a.out, "unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `commands:
  register <name> <password> <email>   create an account
  login <name> <password>              log in and store the session
  logout                               forget the stored session
  whoami                               show the logged-in user
  upload <file> [file ...]             upload files, prints the share link
  download <link>                      fetch a share link into the download dir
  exit                                 quit
`)
}

func (a *App) register(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(a.out, "usage: register <name> <password> <email>")
		return
	}

	if err := a.api.Signup(ctx, args[0], args[1], args[2]); err != nil {
		fmt.Fprintf(a.out, "registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "registered, now log in")
}

func (a *App) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: login <name> <password>")
		return
	}

	token, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		fmt.Fprintf(a.out, "login failed: %v\n", err)
		return
	}

	if err := a.session.Save(ctx, args[0], token); err != nil {
		fmt.Fprintf(a.out, "saving session failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "logged in as %s\n", args[0])
}

func (a *App) logout(ctx context.Context) {
	if err := a.session.Clear(ctx); err != nil {
		fmt.Fprintf(a.out, "logout failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "logged out")
}

func (a *App) whoami(ctx context.Context) {
	username, _, err := a.session.Current(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		fmt.Fprintln(a.out, "not logged in")
		return
	}
	if err != nil {
		fmt.Fprintf(a.out, "session error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, username)
}

func (a *App) upload(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: upload <file> [file ...]")
		return
	}

	_, token, err := a.session.Current(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		fmt.Fprintln(a.out, "log in first")
		return
	}
	if err != nil {
		fmt.Fprintf(a.out, "session error: %v\n", err)
		return
	}

	link, err := a.api.Upload(ctx, token, args...)
	if err != nil {
		fmt.Fprintf(a.out, "upload failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "share link: %s\n", link)
}

func (a *App) download(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: download <link>")
		return
	}

	saved, err := a.api.Download(ctx, args[0], a.config.DownloadDir)
	if err != nil {
		fmt.Fprintf(a.out, "download failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "saved to %s\n", saved)
}
