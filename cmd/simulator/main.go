// Command simulator runs one text-mode call on the terminal. Type replies at
// the prompt; an empty line or EOF hangs up.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wolfman30/voice-booking-agent/cmd/mainconfig"
	"github.com/wolfman30/voice-booking-agent/internal/app/bootstrap"
	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	appconfig "github.com/wolfman30/voice-booking-agent/internal/config"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	provider := flag.String("provider", "", "completion provider (openai, gemini, bedrock, scripted); defaults to LLM_PROVIDER")
	flag.Parse()

	cfg := appconfig.Load()
	if *provider != "" {
		cfg.LLMProvider = strings.ToLower(*provider)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := buildClient(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("configure completion provider: %v", err)
	}

	store := booking.NewMemoryStore()
	manager := calls.NewManager(client, booking.NewDispatcher(store, logger), calls.Config{
		ClinicName: cfg.ClinicName,
		Greeting:   cfg.OpeningPrompt,
		Location:   cfg.Location(),
		LLMTimeout: cfg.LLMTimeout,
	}, logger)

	if err := run(ctx, manager, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("simulator: %v", err)
	}

	appts, _ := store.List(context.Background())
	for _, appt := range appts {
		fmt.Printf("\nBooked: %s, %s, %s\n", appt.CustomerName, appt.Service, appt.Time.Format("Monday Jan 2 at 3:04 PM"))
	}
}

func buildClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, error) {
	if cfg.LLMProvider != "bedrock" && cfg.LLMFallbackProvider != "bedrock" {
		return bootstrap.BuildLLMClient(ctx, cfg, nil, logger)
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.BuildLLMClient(ctx, cfg, &awsCfg, logger)
}

// run drives one call from in to out until the caller hangs up or the agent
// says goodbye.
func run(ctx context.Context, manager *calls.Manager, in io.Reader, out io.Writer) error {
	info, err := manager.StartCall(ctx, calls.ModeText)
	if err != nil {
		return err
	}
	defer func() { _ = manager.EndCall(context.Background(), info.ID) }()

	fmt.Fprintf(out, "Agent: %s\n", info.Greeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return nil
		}

		reply, err := manager.SendMessage(ctx, info.ID, text)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Agent: %s\n", reply.Text)
		if reply.Appointment != nil {
			fmt.Fprintf(out, "  [booked %s for %s]\n", reply.Appointment.Service, reply.Appointment.CustomerName)
		}
		if reply.State == conversation.StateIdle {
			return nil
		}
	}
}
