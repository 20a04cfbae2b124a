// Command call runs one call attempt against a relay: it derives the room,
// requests a credential, hands it to the media layer and leaves on Ctrl-C.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wyydra/relay/internal/adapter/driven/gateway/relay"
	"github.com/Wyydra/relay/internal/adapter/driven/media/memory"
	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	relayURL     string
	self         string
	peer         string
	room         string
	name         string
	sessionToken string
	timeout      time.Duration
	hold         time.Duration
	verbose      bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
	flagSet.StringVar(&opts.relayURL, "relay", "http://localhost:8080", "relay base URL")
	flagSet.StringVar(&opts.self, "self", "", "your identity")
	flagSet.StringVar(&opts.peer, "peer", "", "identity of the person to call")
	flagSet.StringVar(&opts.room, "room", "", "room name from an invitation (optional)")
	flagSet.StringVar(&opts.name, "name", "", "display name shown to the peer")
	flagSet.StringVar(&opts.sessionToken, "session-token", os.Getenv("RELAY_SESSION_TOKEN"), "bearer session token")
	flagSet.DurationVar(&opts.timeout, "timeout", relay.DefaultTimeout, "token request timeout")
	flagSet.DurationVar(&opts.hold, "hold", 0, "leave after this long (0 waits for Ctrl-C)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if opts.self == "" || opts.peer == "" {
		return opts, errors.New("--self and --peer are required")
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := relay.NewClient(opts.relayURL, opts.sessionToken, opts.timeout)
	media := memory.NewSession()
	n := service.NewNegotiator(domain.Identity(opts.self), opts.name, client, media, client)

	cred, err := n.Start(ctx, domain.Identity(opts.peer), domain.RoomName(opts.room))
	if err != nil {
		var f *domain.Failure
		if errors.As(err, &f) {
			return errors.New(f.Message)
		}
		return err
	}

	if err := media.Connect(ctx, cred); err != nil {
		return fmt.Errorf("media connect: %w", err)
	}
	fmt.Printf("room=%s signaling=%s expires=%s\n", n.Room(), cred.SignalingURL, cred.ExpiresAt.Format(time.RFC3339))

	if opts.hold > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(opts.hold):
		}
	} else {
		<-ctx.Done()
	}

	if err := n.Leave(); err != nil {
		return err
	}
	n.Wait()
	return nil
}
