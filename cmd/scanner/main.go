package main

// docvault scanner CLI. Drives the client core against a running API:
//   scanner signup -email you@example.com -password secret123
//   scanner login  -email you@example.com -password secret123
//   scanner scan   -type PAN -image ./card.jpg
//   scanner vault  -type PAN -search tax
//   scanner status
//   scanner logout

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"docvault/internal/scanner/backend"
	"docvault/internal/scanner/camera"
	"docvault/internal/scanner/navigation"
	"docvault/internal/scanner/pipeline"
	"docvault/internal/scanner/session"
	"docvault/internal/scanner/vault"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	client := backend.New(apiBaseURL(), clientOptions()...)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "signup":
		err = runSignup(ctx, client, os.Args[2:])
	case "login":
		err = runLogin(ctx, client, os.Args[2:])
	case "logout":
		err = runLogout(ctx, client)
	case "status":
		err = runStatus(ctx, client)
	case "scan":
		err = runScan(ctx, client, os.Args[2:])
	case "vault":
		err = runVault(ctx, client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scanner <signup|login|logout|status|scan|vault> [flags]")
}

func apiBaseURL() string {
	if v := os.Getenv("DOCVAULT_API"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func clientOptions() []backend.Option {
	var opts []backend.Option
	if path := os.Getenv("DOCVAULT_SESSION_FILE"); path != "" {
		opts = append(opts, backend.WithCachePath(path))
	}
	return opts
}

func runSignup(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (min 8 characters)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}
	if err := client.SignUp(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Println("account created; run `scanner login` to sign in")
	return nil
}

func runLogin(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}
	sess, err := client.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", displayName(sess))
	return nil
}

func runLogout(ctx context.Context, client *backend.Client) error {
	if err := client.SignOut(ctx); err != nil {
		// Local session is gone regardless; the server call is best effort.
		fmt.Fprintln(os.Stderr, "warning: server sign-out failed:", err)
	}
	fmt.Println("signed out")
	return nil
}

func runStatus(ctx context.Context, client *backend.Client) error {
	store := session.NewStore(client)
	store.Start(ctx)
	defer store.Stop()
	<-store.Ready()

	sess, present := store.Current()
	nav := &cliNavigator{group: navigation.GroupApp}
	guard := navigation.NewGuard(store, nav)
	action := guard.Evaluate()

	if present {
		fmt.Printf("signed in as %s\n", displayName(sess))
	} else {
		fmt.Println("not signed in")
	}
	if action == navigation.ToLogin {
		fmt.Println("next: scanner login")
	}
	return nil
}

func runScan(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	docType := fs.String("type", "", "document type (Aadhar, PAN, License, Academic, Other)")
	imagePath := fs.String("image", "", "path to an image file standing in for the camera")
	captureCmd := fs.String("capture-cmd", os.Getenv("DOCVAULT_CAPTURE_CMD"), "external capture command writing a JPEG")
	quality := fs.Float64("quality", pipeline.DefaultQuality, "capture quality hint (0-1]")
	fs.Parse(args)

	store := session.NewStore(client)
	store.Start(ctx)
	defer store.Stop()
	<-store.Ready()

	if _, present := store.Current(); !present {
		return errors.New("not signed in; run `scanner login` first")
	}

	cam, err := pickCamera(*imagePath, *captureCmd)
	if err != nil {
		return err
	}

	p := pipeline.New(cam, client, client)
	p.Quality = *quality

	rec, err := p.Scan(ctx, *docType)
	if err != nil {
		var stepErr *pipeline.StepError
		if errors.As(err, &stepErr) {
			return fmt.Errorf("%s (%s)", stepErr.Message(), stepErr.Step)
		}
		return err
	}

	fmt.Printf("saved %q (%s)\n", rec.Title, rec.ID)
	fmt.Println(rec.ImageURL)
	return nil
}

func runVault(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("vault", flag.ExitOnError)
	docType := fs.String("type", vault.FilterAll, "type filter ("+strings.Join(vault.Categories, ", ")+")")
	search := fs.String("search", "", "title search text")
	limit := fs.Int("limit", 0, "max results")
	fs.Parse(args)

	store := session.NewStore(client)
	store.Start(ctx)
	defer store.Stop()
	<-store.Ready()

	if _, present := store.Current(); !present {
		return errors.New("not signed in; run `scanner login` first")
	}

	svc := vault.NewService(client)
	docs, err := svc.Browse(ctx, vault.Filter{Type: *docType, Search: *search, Limit: *limit})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no documents")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tTYPE\tTITLE\tID")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			doc.CreatedAt.Local().Format("2006-01-02 15:04"), doc.DocType, doc.Title, doc.ID)
	}
	return w.Flush()
}

func pickCamera(imagePath, captureCmd string) (camera.Camera, error) {
	switch {
	case imagePath != "":
		return camera.FileCamera{Path: imagePath}, nil
	case captureCmd != "":
		parts := strings.Fields(captureCmd)
		return camera.ExecCamera{Command: parts[0], Args: parts[1:]}, nil
	default:
		return nil, errors.New("no camera configured; pass -image or -capture-cmd")
	}
}

func displayName(sess session.Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	if sess.Email != "" {
		return sess.Email
	}
	return sess.UserID
}

type cliNavigator struct {
	group navigation.ScreenGroup
}

func (n *cliNavigator) CurrentGroup() navigation.ScreenGroup { return n.group }
func (n *cliNavigator) NavigateToApp()                       { n.group = navigation.GroupApp }
func (n *cliNavigator) NavigateToLogin()                     { n.group = navigation.GroupAuth }
