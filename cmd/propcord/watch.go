package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/events"
	"github.com/alfredjeanlab/propcord/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream render and mapping events",
	GroupID: "render",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("PROPCORD_NATS_URL")
		}
		if natsURL == "" {
			if r, ok := activeRemote(); ok {
				natsURL = r.NATSURL
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if natsURL != "" {
			return watchNATS(ctx, cmd.OutOrStdout(), natsURL, topic)
		}
		return watchSSE(ctx, cmd.OutOrStdout(), topic)
	},
}

// watchNATS prints events read directly from the bus.
func watchNATS(ctx context.Context, w io.Writer, natsURL, topic string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			printEvent(w, msg.Topic, msg.Data)
		}
	}
}

// watchSSE prints events from the server's stream when no bus is reachable.
func watchSSE(ctx context.Context, w io.Writer, topic string) error {
	ch, err := apiClient.StreamEvents(ctx, []string{topic}, "")
	if err != nil {
		return fmt.Errorf("opening event stream: %w", err)
	}
	for evt := range ch {
		printEvent(w, evt.Topic, evt.Data)
	}
	return nil
}

func printEvent(w io.Writer, topic string, data []byte) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", topic, data)
		return
	}
	ev, err := events.Decode(topic, data)
	if err != nil {
		fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("%s: %v", topic, err)))
		return
	}
	switch ev := ev.(type) {
	case *events.PageRendered:
		if ev.Record == nil {
			return
		}
		header := fmt.Sprintf("%s rendered %s", ev.Record.CreatedAt.Local().Format("15:04:05"), ev.Record.PageID)
		if ev.Record.Actor != "" {
			header += " by " + ev.Record.Actor
		}
		fmt.Fprintln(w, ui.RenderAccent(header))
		printFields(w, ev.Record.Fields)
	case *events.MappingSet:
		if ev.Mapping == nil {
			return
		}
		fmt.Fprintf(w, "%s %s -> %s\n", ui.RenderAccent("mapped"), ev.Mapping.NotionUserID, ui.RenderMention("<@"+ev.Mapping.DiscordID+">"))
	case *events.MappingDeleted:
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("unmapped"), ev.NotionUserID)
	}
}

func init() {
	watchCmd.Flags().String("topic", events.TopicAll, "topic pattern to follow")
	watchCmd.Flags().String("nats", "", "NATS URL (defaults to PROPCORD_NATS_URL or the active remote)")
}
