package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawbench/law-bench/internal/bus"
	apperrors "github.com/lawbench/law-bench/internal/pkg/errors"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail benchmark run events from the bus",
		Long: `Subscribe to the run lifecycle topics and print each event as it
arrives, so a run executing elsewhere can be followed live. Requires the
kafka bus: the in-process bus types cannot observe another process.`,
		RunE: runWatch,
	}

	cmd.Flags().String("run", "", "only show events for this run name")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.ToLower(cfg.Bus.Type) != "kafka" {
		return apperrors.ValidationError("watch requires bus.type=kafka")
	}
	runFilter, _ := cmd.Flags().GetString("run")

	eventBus, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topics := []string{bus.TopicQueryEvaluated, bus.TopicQueryFailed, bus.TopicRunCompleted}
	for _, topic := range topics {
		if err := eventBus.Subscribe(ctx, topic, printEvent(runFilter)); err != nil {
			return err
		}
	}

	log.Info("watching run events", "brokers", cfg.Bus.KafkaBrokers)
	<-ctx.Done()
	return nil
}

// printEvent returns a handler that writes one line per event. An empty
// filter matches every run.
func printEvent(runFilter string) bus.Handler {
	return func(_ context.Context, event bus.Event) error {
		if runFilter != "" && event.Run != runFilter {
			return nil
		}
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			payload = []byte("{}")
		}
		fmt.Printf("%s  %-22s run=%s %s\n",
			time.Unix(event.Timestamp, 0).Format("2006-01-02 15:04:05"),
			event.Type,
			event.Run,
			payload,
		)
		return nil
	}
}
