package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/queue"
	"github.com/pamojavote/pamoja-go/stations"
	"github.com/pamojavote/pamoja-go/utils"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":       {"login <phone>", cmdLogin},
	"verify":      {"verify <phone> <otp>", cmdVerify},
	"logout":      {"logout", cmdLogout},
	"whoami":      {"whoami", cmdWhoami},
	"profile":     {"profile [--first-name N] [--last-name N] [--county C]", cmdProfile},
	"squads":      {"squads [--county C] [--search Q] [--public] [--page N]", cmdSquads},
	"squad":       {"squad <id>", cmdSquad},
	"join":        {"join <id>", cmdJoin},
	"leave":       {"leave <id>", cmdLeave},
	"membership":  {"membership", cmdMembership},
	"leaderboard": {"leaderboard [--county C]", cmdLeaderboard},
	"centers":     {"centers [--county C] [--search Q] [--lat X --lng Y [--radius KM]]", cmdCenters},
	"events":      {"events [--upcoming] [--squad ID]", cmdEvents},
	"rsvp":        {"rsvp <event-id> <yes|no|maybe>", cmdRSVP},
	"invite":      {"invite --squad ID|--event ID [--channel whatsapp|sms] <phone>...", cmdInvite},
	"stations":    {"stations [--county C] [--query Q] [--page N] [--size N] [--near LAT,LNG]", cmdStations},
	"watch":       {"watch [--queue NAME]", cmdWatch},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: pamoja <command> [arguments]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

var errUsage = errors.New("invalid arguments")

// parse parses flags and checks the number of positional arguments.
func parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if positional >= 0 && fs.NArg() != positional {
		return nil, fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, positional, fs.NArg())
	}
	return fs.Args(), nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("login", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	challenge, err := a.client.Auth.SendOTP(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, challenge.Message)
	if challenge.OTP != "" {
		fmt.Fprintf(a.out, "development OTP: %s\n", challenge.OTP)
	}
	fmt.Fprintf(a.out, "run `pamoja verify %s <otp>` to finish signing in\n", challenge.PhoneNumber)
	return nil
}

func cmdVerify(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("verify", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	result, err := a.client.Auth.VerifyOTP(ctx, rest[0], rest[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s\n", result.User.FullName())
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if _, err := parse(flag.NewFlagSet("logout", flag.ContinueOnError), args, 0); err != nil {
		return err
	}
	if err := a.client.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

// cmdWhoami reads the stored session only; it never calls the backend.
func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := parse(flag.NewFlagSet("whoami", flag.ContinueOnError), args, 0); err != nil {
		return err
	}
	user, err := a.client.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", user.FullName(), user.PhoneNumber)

	creds, err := a.client.Gateway().Store().Credentials(ctx)
	if err != nil {
		return err
	}
	if expiry, err := utils.TokenExpiry(creds.Access); err == nil {
		fmt.Fprintf(a.out, "access token expires %s\n", utils.FormatEventTime(expiry))
	}
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	firstName := fs.String("first-name", "", "")
	lastName := fs.String("last-name", "", "")
	county := fs.String("county", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	var update models.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first-name":
			update.FirstName = firstName
		case "last-name":
			update.LastName = lastName
		case "county":
			update.County = county
		}
	})

	var (
		user models.User
		err  error
	)
	if update == (models.ProfileUpdate{}) {
		user, err = a.client.Auth.Profile(ctx)
	} else {
		user, err = a.client.Auth.UpdateProfile(ctx, update)
	}
	if err != nil {
		return err
	}
	return printJSON(a.out, user)
}

func cmdSquads(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("squads", flag.ContinueOnError)
	county := fs.String("county", "", "")
	search := fs.String("search", "", "")
	public := fs.Bool("public", false, "")
	page := fs.Int("page", 0, "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	filter := models.SquadFilter{County: *county, Search: *search, Page: *page}
	if *public {
		filter.IsPublic = public
	}
	squads, err := a.client.Squads.List(ctx, filter)
	if err != nil {
		return err
	}
	printSquads(a.out, squads)
	return nil
}

func cmdSquad(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("squad", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	squad, err := a.client.Squads.Get(ctx, rest[0])
	if err != nil {
		return err
	}
	return printJSON(a.out, squad)
}

func cmdJoin(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("join", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	result, err := a.client.Squads.Join(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result.Message)
	return nil
}

func cmdLeave(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("leave", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	result, err := a.client.Squads.Leave(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result.Message)
	return nil
}

func cmdMembership(ctx context.Context, a *app, args []string) error {
	if _, err := parse(flag.NewFlagSet("membership", flag.ContinueOnError), args, 0); err != nil {
		return err
	}
	membership, err := a.client.Squads.MyMembership(ctx)
	if err != nil {
		return err
	}
	if membership == nil {
		fmt.Fprintln(a.out, "not a member of any squad")
		return nil
	}
	return printJSON(a.out, membership)
}

func cmdLeaderboard(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	county := fs.String("county", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	board, err := a.client.Squads.Leaderboard(ctx, *county)
	if err != nil {
		return err
	}
	printLeaderboard(a.out, board)
	return nil
}

func cmdCenters(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("centers", flag.ContinueOnError)
	county := fs.String("county", "", "")
	search := fs.String("search", "", "")
	lat := fs.Float64("lat", 0, "")
	lng := fs.Float64("lng", 0, "")
	radius := fs.Float64("radius", 0, "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	var nearby bool
	fs.Visit(func(f *flag.Flag) { nearby = nearby || f.Name == "lat" || f.Name == "lng" })

	var (
		centers models.Page[models.Center]
		err     error
	)
	if nearby {
		centers, err = a.client.Centers.Nearby(ctx, *lat, *lng, *radius)
	} else {
		centers, err = a.client.Centers.List(ctx, models.CenterFilter{County: *county, Search: *search})
	}
	if err != nil {
		return err
	}
	printCenters(a.out, centers)
	return nil
}

func cmdEvents(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	upcoming := fs.Bool("upcoming", false, "")
	squad := fs.String("squad", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	var (
		events models.Page[models.Event]
		err    error
	)
	switch {
	case *upcoming:
		events, err = a.client.Events.Upcoming(ctx)
	case *squad != "":
		events, err = a.client.Events.BySquad(ctx, *squad)
	default:
		events, err = a.client.Events.List(ctx, models.EventFilter{})
	}
	if err != nil {
		return err
	}
	printEvents(a.out, events)
	return nil
}

func cmdRSVP(ctx context.Context, a *app, args []string) error {
	rest, err := parse(flag.NewFlagSet("rsvp", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	result, err := a.client.Events.RSVP(ctx, rest[0], strings.ToLower(rest[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", result.Message, result.RSVP.Status)
	return nil
}

// cmdInvite sends WhatsApp invites with shareable links, or bulk invites for
// other channels.
func cmdInvite(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("invite", flag.ContinueOnError)
	squad := fs.String("squad", "", "")
	event := fs.String("event", "", "")
	channel := fs.String("channel", enums.InviteChannelWhatsApp, "")
	phones, err := parse(fs, args, -1)
	if err != nil {
		return err
	}
	if len(phones) == 0 {
		return fmt.Errorf("%w: at least one phone number is required", errUsage)
	}

	var batch models.InviteBatch
	if *channel == enums.InviteChannelWhatsApp {
		batch, err = a.client.Invites.WhatsApp(ctx, models.WhatsAppInvite{SquadID: *squad, EventID: *event, PhoneNumbers: phones})
	} else {
		batch, err = a.client.Invites.Bulk(ctx, models.BulkInvite{SquadID: *squad, EventID: *event, Channel: *channel, PhoneNumbers: phones})
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, batch.Message)
	for _, link := range batch.Links {
		fmt.Fprintln(a.out, link)
	}
	return nil
}

// cmdStations browses the polling-station dataset locally, without the
// backend.
func cmdStations(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stations", flag.ContinueOnError)
	county := fs.String("county", "", "")
	query := fs.String("query", "", "")
	page := fs.Int("page", 1, "")
	size := fs.Int("size", stations.DefaultPageSize, "")
	near := fs.String("near", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	centers, err := a.stations.Centers(ctx)
	if err != nil {
		return err
	}
	centers = stations.Apply(centers, stations.Filter{County: *county, Query: *query})

	if *near != "" {
		var lat, lng float64
		if _, err := fmt.Sscanf(*near, "%f,%f", &lat, &lng); err != nil {
			return fmt.Errorf("%w: --near expects LAT,LNG", errUsage)
		}
		for _, n := range stations.Nearest(centers, lat, lng, *size) {
			fmt.Fprintf(a.out, "%6.2f km  %s (%s)\n", n.DistanceKm, n.Center.Name, n.Center.Location)
		}
		return nil
	}

	printCenters(a.out, stations.Paginate(centers, *page, *size))
	return nil
}

// cmdWatch prints session events published by other pamoja processes until
// interrupted.
func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	queueName := fs.String("queue", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	queueCfg, enabled := a.cfg.PublisherConfig()
	if !enabled {
		return errors.New("session events are disabled, set PAMOJA_AMQP_URI")
	}
	conn, err := queue.NewConnection(queueCfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, err := queue.Subscribe(ctx, conn, queue.SubscribeConfig{Queue: *queueName, Consumer: serviceName})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "watching %s\n", conn.Exchange())
	for event := range events {
		fmt.Fprintf(a.out, "%s  %-16s %s\n", utils.FormatEventTime(event.OccurredAt), event.Name, event.UserID)
	}
	return nil
}
