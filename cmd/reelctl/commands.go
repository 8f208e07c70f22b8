package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shortreel/backend/internal/apiclient"
	"github.com/shortreel/backend/internal/feed"
	"github.com/shortreel/backend/internal/models"
	"github.com/shortreel/backend/internal/upload"
)

type globals struct {
	server      string
	uploadURL   string
	publicKey   string
	sessionFile string
}

func parseGlobals(args []string, stderr io.Writer) (globals, []string, error) {
	fs := flag.NewFlagSet("reelctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var g globals
	fs.StringVar(&g.server, "server", envOr("SHORTREEL_API_URL", "http://localhost:8080"), "API base url")
	fs.StringVar(&g.uploadURL, "upload-url", os.Getenv("SHORTREEL_UPLOAD_URL"), "media upload endpoint")
	fs.StringVar(&g.publicKey, "public-key", os.Getenv("SHORTREEL_MEDIA_PUBLIC_KEY"), "media public key")
	fs.StringVar(&g.sessionFile, "session", defaultSessionFile(), "session file")
	if err := fs.Parse(args); err != nil {
		return globals{}, nil, usageError(usageText)
	}
	return g, fs.Args(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".reelctl-session.json"
	}
	return filepath.Join(dir, "shortreel", "session.json")
}

type cli struct {
	g      globals
	api    *apiclient.Client
	stdout io.Writer
	stderr io.Writer
}

func newCLI(g globals, stdout, stderr io.Writer) (*cli, error) {
	api, err := apiclient.New(g.server)
	if err != nil {
		return nil, err
	}
	c := &cli{g: g, api: api, stdout: stdout, stderr: stderr}
	if s, err := loadSession(g.sessionFile); err == nil {
		api.SetToken(s.AccessToken)
	}
	return c, nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	email, password, err := credentialFlags("register", args, c.stderr)
	if err != nil {
		return err
	}
	identity, err := c.api.Register(ctx, email, password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.stdout, "registered %s (%s)\n", identity.Email, identity.UserID)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	email, password, err := credentialFlags("login", args, c.stderr)
	if err != nil {
		return err
	}
	tokens, err := c.api.SignIn(ctx, email, password)
	if err != nil {
		return describe(err)
	}
	if err := saveSession(c.g.sessionFile, tokens); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "signed in as %s\n", email)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	s, err := loadSession(c.g.sessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(c.stdout, "not signed in")
			return nil
		}
		return err
	}
	if err := c.api.SignOut(ctx, s.RefreshToken); err != nil {
		return describe(err)
	}
	if err := os.Remove(c.g.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Fprintln(c.stdout, "signed out")
	return nil
}

func (c *cli) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	title := fs.String("title", "", "video title")
	description := fs.String("description", "", "video description")
	videoPath := fs.String("video", "", "video file")
	thumbPath := fs.String("thumbnail", "", "thumbnail image")
	if err := fs.Parse(args); err != nil {
		return usageError(usageText)
	}
	if *videoPath == "" || *thumbPath == "" {
		return usageError("upload requires -video and -thumbnail")
	}
	if c.g.publicKey == "" {
		return errors.New("a media public key is required (-public-key or SHORTREEL_MEDIA_PUBLIC_KEY)")
	}

	uploadURL := c.g.uploadURL
	if uploadURL == "" {
		uploadURL = c.api.Endpoint("/api/media/upload")
	}

	form := upload.NewForm(upload.NewClient(c.api, uploadURL, c.g.publicKey), c.api)
	form.Title = *title
	form.Description = *description

	steps := []struct {
		label string
		path  string
		run   func(context.Context, upload.File, upload.ProgressFunc) (models.UploadResult, error)
	}{
		{"video", *videoPath, form.UploadVideo},
		{"thumbnail", *thumbPath, form.UploadThumbnail},
	}
	for _, step := range steps {
		file, err := upload.OpenFile(step.path)
		if err != nil {
			return err
		}
		result, err := step.run(ctx, file, c.progress(step.label))
		file.Close()
		fmt.Fprintln(c.stderr)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s uploaded: %s\n", step.label, result.URL)
	}

	created, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "published %s %q\n", created.ID, created.Title)
	return nil
}

func (c *cli) progress(label string) upload.ProgressFunc {
	return func(pct int) {
		fmt.Fprintf(c.stderr, "\ruploading %s... %3d%%", label, pct)
	}
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	query := fs.String("q", "", "filter by title or description")
	if err := fs.Parse(args); err != nil {
		return usageError(usageText)
	}

	var view feed.View
	if err := view.Load(ctx, c.api); err != nil {
		return describe(err)
	}
	view.Search(*query)

	visible := view.Visible()
	if len(visible) == 0 {
		if strings.TrimSpace(*query) != "" {
			fmt.Fprintf(c.stdout, "no videos match %q\n", *query)
		} else {
			fmt.Fprintln(c.stdout, "no videos yet")
		}
		return nil
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
	for _, v := range visible {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Title, v.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (c *cli) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("show requires exactly one video id")
	}
	video, err := c.api.GetVideo(ctx, args[0])
	if err != nil {
		return describe(err)
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(video)
}

func (c *cli) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete requires exactly one video id")
	}
	if err := c.api.DeleteVideo(ctx, args[0]); err != nil {
		return describe(err)
	}
	fmt.Fprintln(c.stdout, "Video deleted successfully")
	return nil
}

func credentialFlags(name string, args []string, stderr io.Writer) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("SHORTREEL_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return "", "", usageError(usageText)
	}
	if *email == "" || *password == "" {
		return "", "", usageError(name + " requires -email and -password")
	}
	return *email, *password, nil
}

// describe turns API errors into the server's message.
func describe(err error) error {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}

func loadSession(path string) (models.SessionTokens, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.SessionTokens{}, err
	}
	var tokens models.SessionTokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return models.SessionTokens{}, fmt.Errorf("read session %s: %w", path, err)
	}
	return tokens, nil
}

func saveSession(path string, tokens models.SessionTokens) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
