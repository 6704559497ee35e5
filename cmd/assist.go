package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/cryptotax/agent"
	"github.com/etnz/cryptotax/logger"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd holds the flags for the 'assist' subcommand.
type assistCmd struct {
	model string
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "chat with the AI assistant about the ledger" }
func (*assistCmd) Usage() string {
	return `ctax assist [-model <name>] [<question>...]

  Starts an interactive session with the AI assistant. The assistant reads the
  ledger, computes the summary, alerts and gains, and searches the web for tax
  questions. The optional question is asked first. Type 'bye' to exit.

  The Gemini client reads its credentials from GOOGLE_API_KEY or GEMINI_API_KEY.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.model, "model", "", "Model name. Defaults to $CTAX_ASSISTANT_MODEL")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	model := c.model
	if model == "" {
		model = cfg.AssistantModel
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	engine, err := newEngine(cfg, l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	log := logger.Get()
	books := &agent.Books{Ledger: l, Engine: engine, Threshold: cfg.Threshold}
	a := agent.New(os.Stdout, os.Stdin, model,
		agent.NewAccountant(model, books, log),
		agent.NewAdvisor(model, log),
	)
	if !*raw {
		a.Render = func(md string) string {
			out, err := glamour.Render(md, "auto")
			if err != nil {
				return md
			}
			return out
		}
	}

	if err := a.Run(ctx, client, strings.Join(f.Args(), " ")); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
