// Command checkin runs a door-side check-in station in the terminal. A
// keyboard-wedge scanner types each decoded ticket followed by Enter.
//
// The signed-in identity and token are kept in a local session file, so the
// station survives restarts without signing in again.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/backend"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/checkin"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/config"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/guard"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/logging"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/service"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/storage"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/telemetry"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/ticket"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

var (
	errNotOrganizer   = errors.New("only organizers can run the check-in station")
	errSessionExpired = errors.New("the stored session has expired, run the station again to sign in")
)

type options struct {
	eventID    string
	showTicket bool
	signOut    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.eventID, "event", "", "id of the event to check participants into")
	flag.BoolVar(&opts.showTicket, "ticket", false, "print the signed-in participant's ticket QR code and exit")
	flag.BoolVar(&opts.signOut, "signout", false, "forget the stored session and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName+"-checkin", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if err := run(ctx, cfg, opts, os.Stdin, os.Stdout, log); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "checkin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, in io.Reader, out io.Writer, log zerolog.Logger) error {
	file, err := storage.NewFile(cfg.SessionFile)
	if err != nil {
		return err
	}
	store, err := session.Open(ctx, file)
	if err != nil {
		return err
	}
	if opts.signOut {
		if err := store.SignOut(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	}
	if !opts.showTicket && opts.eventID == "" {
		return errors.New("-event is required")
	}

	lines := readLines(ctx, in)
	api := backend.New(cfg.APIBaseURL,
		backend.WithTimeout(cfg.APITimeout),
		backend.WithLogger(logging.Component(log, "backend")),
	)
	validate := validation.New()

	if !store.IsAuthenticated() {
		if err := signIn(ctx, service.NewAccountService(api, validate), store, lines, out); err != nil {
			return err
		}
	}
	identity := store.Identity()

	if opts.showTicket {
		qr, err := ticket.Terminal(identity.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(out, qr)
		fmt.Fprintf(out, "%s · %s\n", identity.Name, checkin.Truncate(identity.ID))
		return nil
	}

	if guard.Decide(identity, guard.RequireOrganizer) != guard.Allow {
		return errNotOrganizer
	}
	events := service.NewEventService(api.WithToken(store.Token()), validate)
	event, err := events.ManagedEvent(ctx, identity, opts.eventID)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			return fmt.Errorf("event %q belongs to another organizer", opts.eventID)
		}
		if apperr.Is(err, apperr.KindAuthentication) {
			_ = store.SignOut(ctx)
			return errSessionExpired
		}
		return fmt.Errorf("load event: %s", apperr.MessageOr(err, err.Error()))
	}

	return scan(ctx, checkin.NewStation(event.ID, events, logging.Component(log, "checkin")), event, store, lines, out)
}

// scan feeds scanned lines to the station until the input ends or the
// operator quits. After each result the station waits for "n".
func scan(ctx context.Context, station *checkin.Station, event *model.Event, store *session.Store, lines <-chan string, out io.Writer) error {
	fmt.Fprintf(out, "Checking in to %q. Scan a ticket; q quits, signout forgets the session.\n", event.Title)
	station.Start()
	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q", "quit":
			return nil
		case "signout":
			if err := store.SignOut(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Signed out.")
			return nil
		case "n", "next":
			if station.State() == checkin.Done {
				station.ScanNext()
				fmt.Fprintln(out, "Ready for the next ticket.")
			}
			continue
		}

		if station.State() == checkin.Done {
			fmt.Fprintln(out, "Press n to scan the next ticket.")
			continue
		}
		result := station.Decode(ctx, line)
		if result == nil {
			continue
		}
		if apperr.Is(result.Err, apperr.KindAuthentication) {
			_ = store.SignOut(ctx)
			return errSessionExpired
		}
		if result.Granted {
			fmt.Fprintf(out, "✔ %s %s\n", result.Message, result.Detail)
		} else {
			fmt.Fprintf(out, "✘ %s\n", result.Message)
		}
	}
}

func signIn(ctx context.Context, accounts *service.AccountService, store *session.Store, lines <-chan string, out io.Writer) error {
	for attempt := 0; attempt < 3; attempt++ {
		email, ok := prompt(ctx, "Email: ", lines, out)
		if !ok {
			return errors.New("sign-in aborted")
		}
		password, ok := prompt(ctx, "Password: ", lines, out)
		if !ok {
			return errors.New("sign-in aborted")
		}

		err := accounts.SignIn(ctx, store, model.SignInRequest{Email: email, Password: password})
		switch {
		case err == nil:
			fmt.Fprintf(out, "Signed in as %s.\n", store.Identity().Name)
			return nil
		case validation.FieldsOf(err) != nil:
			for field, msg := range validation.FieldsOf(err) {
				fmt.Fprintf(out, "%s: %s\n", field, msg)
			}
		case errors.Is(err, session.ErrInvalidCredentials):
			fmt.Fprintln(out, apperr.MessageOr(err, "Invalid email or password."))
		default:
			return fmt.Errorf("sign in: %w", err)
		}
	}
	return errors.New("too many failed sign-in attempts")
}

func prompt(ctx context.Context, label string, lines <-chan string, out io.Writer) (string, bool) {
	fmt.Fprint(out, label)
	select {
	case <-ctx.Done():
		return "", false
	case l, ok := <-lines:
		return strings.TrimSpace(l), ok
	}
}

// readLines delivers input lines until EOF or ctx ends.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
