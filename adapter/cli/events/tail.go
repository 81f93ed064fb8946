package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/eventbus"
)

// ErrNoBroker is returned when RABBITMQ_URL is not configured.
var ErrNoBroker = errors.New("RABBITMQ_URL is not set")

func newTailCmd() *cobra.Command {
	var (
		asJSON bool
		keys   []string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print chore events as they are published",
		Long: `Bind a temporary queue to the chore exchange and print every event.

Examples:
  taskmate events tail
  taskmate events tail --key chores.task.completed --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			if app.Config == nil || app.Config.RabbitMQURL == "" {
				return ErrNoBroker
			}

			logger := cli.Logger()
			consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
				URL:       app.Config.RabbitMQURL,
				Exchange:  eventbus.ExchangeName,
				Transient: true,
				Logger:    logger,
			}, eventbus.NewConsumerRegistry(logger))
			if err != nil {
				return fmt.Errorf("failed to connect to broker: %w", err)
			}
			defer consumer.Close()

			types := keys
			if len(types) == 0 {
				types = []string{eventbus.WildcardEventType}
			}
			printer := newPrinter(cmd.OutOrStdout(), asJSON)
			consumer.RegisterConsumer(&eventbus.ConsumerFunc{Types: types, Fn: printer.Handle})

			fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for events, Ctrl+C to stop")
			err = consumer.Start(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw event envelopes")
	cmd.Flags().StringSliceVar(&keys, "key", nil, "routing keys to follow (default all)")
	return cmd
}

type printer struct {
	mu     sync.Mutex
	out    io.Writer
	asJSON bool
}

func newPrinter(out io.Writer, asJSON bool) *printer {
	return &printer{out: out, asJSON: asJSON}
}

// Handle writes one event. It never fails so the broker does not redeliver.
func (p *printer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asJSON {
		_ = json.NewEncoder(p.out).Encode(event)
		return nil
	}

	fmt.Fprintf(p.out, "%s  %-22s  %s", event.OccurredAt.Local().Format("15:04:05"),
		strings.TrimPrefix(event.RoutingKey, "chores."), event.AggregateID)

	var payload struct {
		Title       string   `json:"title"`
		ConfirmedBy string   `json:"confirmedBy"`
		Points      *float64 `json:"points"`
		Fields      []string `json:"fields"`
	}
	if len(event.Payload) > 0 && json.Unmarshal(event.Payload, &payload) == nil {
		if payload.Title != "" {
			fmt.Fprintf(p.out, "  %q", payload.Title)
		}
		if payload.ConfirmedBy != "" && payload.Points != nil {
			fmt.Fprintf(p.out, "  +%s for %s", cli.FormatPoints(*payload.Points), payload.ConfirmedBy)
		}
		if len(payload.Fields) > 0 {
			fmt.Fprintf(p.out, "  [%s]", strings.Join(payload.Fields, ","))
		}
	}
	fmt.Fprintln(p.out)
	return nil
}
