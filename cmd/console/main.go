package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/config"
	"github.com/wadjakorntonsri/golinks-console/pkg/console"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/viewstate"
)

const usage = `usage: console <command> [flags]

commands:
  login | register | logout | whoami
  links list|create|update|delete|bulk-status|bulk-delete
  users list|create|update|delete|bulk-status|bulk-delete
  stats system|redirects|peak
  export | import -file links.json`

// loginPrompt is the console's Navigator: when the API rejects the token
// there is no screen to redirect to, so the user is told to sign in again.
type loginPrompt struct{}

func (loginPrompt) ToLogin() {
	fmt.Fprintln(os.Stderr, "Session expired. Run 'console login' to sign in again.")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	app, err := console.New(ctx, cfg, console.Options{Navigator: loginPrompt{}})
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	defer app.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "login", "register":
		err = doAuth(ctx, app, cmd, args)
	default:
		if _, rerr := app.Session.Restore(ctx); rerr != nil {
			log.Printf("Could not restore session: %v", rerr)
		}
		err = dispatch(ctx, app, cmd, args)
	}
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(os.Stderr, "%s: %s\n", v.Field, v.Message)
			}
			os.Exit(1)
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", verr.Field, verr.Message)
			os.Exit(1)
		}
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func dispatch(ctx context.Context, app *console.App, cmd string, args []string) error {
	switch cmd {
	case "logout":
		return app.Session.Logout(ctx)
	case "whoami":
		return doWhoami(app)
	}

	if err := app.Session.RequireAuthenticated(); err != nil {
		return err
	}

	switch cmd {
	case "links":
		return doLinks(ctx, app, args)
	case "users":
		return doUsers(ctx, app, args)
	case "stats":
		return doStats(ctx, app, args)
	case "export":
		exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
		exportCmd.Parse(args)
		return doExport(ctx, app)
	case "import":
		importCmd := flag.NewFlagSet("import", flag.ExitOnError)
		importFile := importCmd.String("file", "", "JSON file to import")
		importCmd.Parse(args)
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		return doImport(ctx, app, *importFile)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	return nil
}

func doAuth(ctx context.Context, app *console.App, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("CONSOLE_PASSWORD"), "account password (or CONSOLE_PASSWORD)")
	fs.Parse(args)

	creds := domain.Credentials{Email: *email, Password: *password}
	var (
		session domain.Session
		err     error
	)
	if cmd == "register" {
		session, err = app.Session.Register(ctx, creds)
	} else {
		session, err = app.Session.Login(ctx, creds)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", session.Email, session.Role)
	return nil
}

func doWhoami(app *console.App) error {
	session := app.Session.Current()
	if !session.IsAuthenticated {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s (id %d, %s)\n", session.Email, session.UserID, session.Role)
	return nil
}

// listFlags are shared by the list subcommands
type listFlags struct {
	page     *int
	pageSize *int
	sortBy   *string
	dir      *string
	search   *string
	filters  map[string]*string
}

func addListFlags(fs *flag.FlagSet, filters ...string) *listFlags {
	lf := &listFlags{
		page:     fs.Int("page", 0, "page number, starting at 0"),
		pageSize: fs.Int("page-size", viewstate.DefaultPageSize, fmt.Sprintf("rows per page, one of %v", viewstate.PageSizes)),
		sortBy:   fs.String("sort", "", "sort field"),
		dir:      fs.String("dir", "", "sort direction (asc|desc)"),
		search:   fs.String("search", "", "search text"),
		filters:  make(map[string]*string),
	}
	for _, f := range filters {
		lf.filters[f] = fs.String(f, "", f+" filter")
	}
	return lf
}

// controller replays the flags through a view-state controller so invalid
// values are rejected the same way an interactive view would reject them.
func (lf *listFlags) controller(ctx context.Context) (*viewstate.Controller, error) {
	c := viewstate.New(domain.ViewState{})
	if err := c.SetPageSize(ctx, *lf.pageSize, nil); err != nil {
		return nil, err
	}
	if *lf.sortBy != "" || *lf.dir != "" {
		if err := c.SetSort(ctx, *lf.sortBy, domain.SortDirection(*lf.dir), nil); err != nil {
			return nil, err
		}
	}
	if err := c.SetSearch(ctx, *lf.search, nil); err != nil {
		return nil, err
	}
	for field, value := range lf.filters {
		if err := c.SetFilter(ctx, field, *value, nil); err != nil {
			return nil, err
		}
	}
	if err := c.SetPage(ctx, *lf.page, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func doLinks(ctx context.Context, app *console.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("expected links list|create|update|delete|bulk-status|bulk-delete")
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("links list", flag.ExitOnError)
		lf := addListFlags(fs, "status")
		fs.Parse(args[1:])
		c, err := lf.controller(ctx)
		if err != nil {
			return err
		}
		return c.Refresh(ctx, func(ctx context.Context, view domain.ViewState) error {
			page, err := app.Links.List(ctx, view)
			if err != nil {
				return err
			}
			printLinks(page, view)
			return nil
		})

	case "create":
		fs := flag.NewFlagSet("links create", flag.ExitOnError)
		alias := fs.String("alias", "", "short alias")
		dest := fs.String("url", "", "destination URL")
		expires := fs.String("expires", "", "expiry (RFC3339)")
		inactive := fs.Bool("inactive", false, "create the link disabled")
		fs.Parse(args[1:])

		input := domain.CreateLinkInput{Alias: *alias, DestinationURL: *dest}
		if *expires != "" {
			at, err := time.Parse(time.RFC3339, *expires)
			if err != nil {
				return fmt.Errorf("invalid -expires: %w", err)
			}
			input.ExpiresAt = &at
		}
		if *inactive {
			active := false
			input.IsActive = &active
		}
		link, err := app.Links.Create(ctx, input)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s -> %s (id %d)\n", link.Alias, link.DestinationURL, link.ID)
		return nil

	case "update":
		fs := flag.NewFlagSet("links update", flag.ExitOnError)
		id := fs.Int64("id", 0, "link id")
		alias := fs.String("alias", "", "new alias")
		dest := fs.String("url", "", "new destination URL")
		active := fs.String("active", "", "true or false")
		fs.Parse(args[1:])

		var patch domain.LinkPatch
		if *alias != "" {
			patch.Alias = alias
		}
		if *dest != "" {
			patch.DestinationURL = dest
		}
		if *active != "" {
			b, err := strconv.ParseBool(*active)
			if err != nil {
				return fmt.Errorf("invalid -active: %w", err)
			}
			patch.IsActive = &b
		}
		link, err := app.Links.Update(ctx, *id, patch)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s -> %s (active %t)\n", link.Alias, link.DestinationURL, link.IsActive)
		return nil

	case "delete":
		fs := flag.NewFlagSet("links delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "link id")
		fs.Parse(args[1:])
		return app.Links.Delete(ctx, *id)

	case "bulk-status":
		fs := flag.NewFlagSet("links bulk-status", flag.ExitOnError)
		ids := fs.String("ids", "", "comma separated link ids")
		active := fs.Bool("active", true, "target status")
		fs.Parse(args[1:])
		parsed, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		return reportBulk(app.Links.BulkUpdateStatus(ctx, parsed, *active))

	case "bulk-delete":
		fs := flag.NewFlagSet("links bulk-delete", flag.ExitOnError)
		ids := fs.String("ids", "", "comma separated link ids")
		fs.Parse(args[1:])
		parsed, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		return reportBulk(app.Links.BulkDelete(ctx, parsed))
	}

	fmt.Println("expected links list|create|update|delete|bulk-status|bulk-delete")
	os.Exit(1)
	return nil
}

func doUsers(ctx context.Context, app *console.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("expected users list|create|update|delete|bulk-status|bulk-delete")
		os.Exit(1)
	}

	// users delete checks the cached rows for admins, so load the page first
	warm := func(ctx context.Context) {
		if _, err := app.Users.List(ctx, domain.ViewState{PageSize: viewstate.PageSizes[len(viewstate.PageSizes)-1]}); err != nil {
			log.Printf("Could not load users: %v", err)
		}
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("users list", flag.ExitOnError)
		lf := addListFlags(fs, "role", "status")
		fs.Parse(args[1:])
		c, err := lf.controller(ctx)
		if err != nil {
			return err
		}
		return c.Refresh(ctx, func(ctx context.Context, view domain.ViewState) error {
			page, err := app.Users.List(ctx, view)
			if err != nil {
				return err
			}
			printUsers(page, view)
			return nil
		})

	case "create":
		fs := flag.NewFlagSet("users create", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("CONSOLE_PASSWORD"), "initial password (or CONSOLE_PASSWORD)")
		role := fs.String("role", string(domain.RoleUser), "admin or user")
		inactive := fs.Bool("inactive", false, "create the account disabled")
		fs.Parse(args[1:])

		input := domain.CreateUserInput{Email: *email, Password: *password, Role: domain.Role(*role)}
		if *inactive {
			active := false
			input.IsActive = &active
		}
		user, err := app.Users.Create(ctx, input)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (id %d, %s)\n", user.Email, user.ID, user.Role)
		return nil

	case "update":
		fs := flag.NewFlagSet("users update", flag.ExitOnError)
		id := fs.Int64("id", 0, "user id")
		email := fs.String("email", "", "new email")
		role := fs.String("role", "", "admin or user")
		active := fs.String("active", "", "true or false")
		fs.Parse(args[1:])

		var patch domain.UserPatch
		if *email != "" {
			patch.Email = email
		}
		if *role != "" {
			r := domain.Role(*role)
			patch.Role = &r
		}
		if *active != "" {
			b, err := strconv.ParseBool(*active)
			if err != nil {
				return fmt.Errorf("invalid -active: %w", err)
			}
			patch.IsActive = &b
		}
		user, err := app.Users.Update(ctx, *id, patch)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%s, active %t)\n", user.Email, user.Role, user.IsActive)
		return nil

	case "delete":
		fs := flag.NewFlagSet("users delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "user id")
		fs.Parse(args[1:])
		warm(ctx)
		return app.Users.Delete(ctx, *id)

	case "bulk-status":
		fs := flag.NewFlagSet("users bulk-status", flag.ExitOnError)
		ids := fs.String("ids", "", "comma separated user ids")
		active := fs.Bool("active", true, "target status")
		fs.Parse(args[1:])
		parsed, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		return reportBulk(app.Users.BulkUpdateStatus(ctx, parsed, *active))

	case "bulk-delete":
		fs := flag.NewFlagSet("users bulk-delete", flag.ExitOnError)
		ids := fs.String("ids", "", "comma separated user ids")
		fs.Parse(args[1:])
		parsed, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		warm(ctx)
		return reportBulk(app.Users.BulkDelete(ctx, parsed))
	}

	fmt.Println("expected users list|create|update|delete|bulk-status|bulk-delete")
	os.Exit(1)
	return nil
}

func doStats(ctx context.Context, app *console.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("expected stats system|redirects|peak")
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	switch args[0] {
	case "system":
		stats, err := app.Stats.System(ctx)
		if err != nil {
			return err
		}
		return encoder.Encode(stats)
	case "redirects":
		fs := flag.NewFlagSet("stats redirects", flag.ExitOnError)
		period := fs.String("period", domain.PeriodDay, "day, week or month")
		fs.Parse(args[1:])
		series, err := app.Stats.Redirects(ctx, *period)
		if err != nil {
			return err
		}
		return encoder.Encode(series)
	case "peak":
		fs := flag.NewFlagSet("stats peak", flag.ExitOnError)
		date := fs.String("date", time.Now().UTC().Format(time.DateOnly), "day to inspect (YYYY-MM-DD)")
		fs.Parse(args[1:])
		peak, err := app.Stats.PeakUsage(ctx, *date)
		if err != nil {
			return err
		}
		return encoder.Encode(peak)
	}

	fmt.Println("expected stats system|redirects|peak")
	os.Exit(1)
	return nil
}

// doExport pages through every link visible to the signed-in user
func doExport(ctx context.Context, app *console.App) error {
	view := domain.ViewState{PageSize: viewstate.PageSizes[len(viewstate.PageSizes)-1], SortBy: "created_asc"}
	var links []domain.Link
	for {
		page, err := app.Links.List(ctx, view)
		if err != nil {
			return err
		}
		links = append(links, page.Items...)
		if !page.HasMore || len(page.Items) == 0 {
			break
		}
		view.Page++
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(links)
}

func doImport(ctx context.Context, app *console.App, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var links []domain.Link
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	count := 0
	for _, l := range links {
		active := l.IsActive
		_, err := app.Links.Create(ctx, domain.CreateLinkInput{
			Alias:          l.Alias,
			DestinationURL: l.DestinationURL,
			ExpiresAt:      l.ExpiresAt,
			IsActive:       &active,
		})
		var httpErr *domain.HTTPError
		switch {
		case err == nil:
			count++
		case errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict:
			log.Printf("Skipping existing alias: %s", l.Alias)
		default:
			log.Printf("Failed to import %s: %v", l.Alias, err)
		}
	}
	log.Printf("Imported %d links", count)
	return nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func reportBulk(err error) error {
	var bulkErr *domain.BulkError
	if errors.As(err, &bulkErr) {
		fmt.Fprintf(os.Stderr, "%d succeeded, failed ids: %v\n", len(bulkErr.Succeeded), bulkErr.FailedIDs())
	}
	return err
}

func printLinks(page *domain.ListResponse[domain.Link], view domain.ViewState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tALIAS\tDESTINATION\tACTIVE\tCLICKS\tCREATED")
	for _, l := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%s\n", l.ID, l.Alias, l.DestinationURL, l.IsActive, l.Clicks, l.CreatedAt.Format(time.DateTime))
	}
	w.Flush()
	fmt.Printf("page %d, %d of %d\n", view.Page, len(page.Items), page.TotalCount)
}

func printUsers(page *domain.ListResponse[domain.User], view domain.ViewState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tACTIVE\tLINKS")
	for _, u := range page.Items {
		var links int64
		if u.Stats != nil {
			links = u.Stats.LinkCount
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\n", u.ID, u.Email, u.Role, u.IsActive, links)
	}
	w.Flush()
	fmt.Printf("page %d, %d of %d\n", view.Page, len(page.Items), page.TotalCount)
}
