package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"text/template"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/logger"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// reportTask is a report to publish, and the data of the front matter template.
type reportTask struct {
	Year   int
	Period date.Range
	Report string
}

type publishCmd struct {
	outputDir      string
	frontMatterTpl string
	log            *zap.SugaredLogger
	html           bool
}

func (*publishCmd) Name() string { return "publish" }

func (*publishCmd) Synopsis() string { return "generates the yearly reports of the ledger" }

func (*publishCmd) Usage() string {
	return `ctax publish [-o <dir>] [-frontmatter <file>] [-html]

  Generates the log, summary, gains and alerts reports of every calendar year
  of the ledger and saves them to <dir>/<report>/<year>.md.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "o", "reports", "Root directory for the generated reports")
	f.StringVar(&c.frontMatterTpl, "frontmatter", "", "Path to a Go template file for the report front matter")
	f.BoolVar(&c.html, "html", false, "Also write an HTML version of every report")
}

func (c *publishCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.log
	if log == nil {
		log = logger.Get()
	}
	var frontMatterTpl *template.Template
	if c.frontMatterTpl != "" {
		var err error
		frontMatterTpl, err = template.ParseFiles(c.frontMatterTpl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse front matter template: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	events := l.Events()
	years := generateYears(events)
	if len(years) == 0 {
		fmt.Println("Ledger is empty, nothing to publish.")
		return subcommands.ExitSuccess
	}

	engine, err := newEngine(cfg, l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create engine: %v\n", err)
		return subcommands.ExitFailure
	}
	gains := engine.Process(ctx, events)
	for _, err := range gains.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		return subcommands.ExitFailure
	}

	var tasks []reportTask
	for _, y := range years {
		for _, report := range []string{"log", "summary", "gains", "alerts"} {
			tasks = append(tasks, reportTask{Year: y, Period: date.Year(y), Report: report})
		}
	}

	for _, task := range tasks {
		inPeriod := l.Events(cryptotax.Between(task.Period))
		var md string
		switch task.Report {
		case "log":
			md = renderer.LogMarkdown(inPeriod, l.Currency())
		case "summary":
			s := cryptotax.Summarize(slices.Values(inPeriod))
			s.Currency = l.Currency()
			md = renderer.SummaryMarkdown(s)
		case "gains":
			md = renderer.GainsMarkdown(gains.Within(task.Period))
		case "alerts":
			alerts := cryptotax.Evaluate(slices.Values(inPeriod), cfg.Threshold)
			alerts = append(alerts, cryptotax.EvaluateRealizations(gains.Within(task.Period).Realizations, cfg.Threshold)...)
			md = renderer.AlertsMarkdown(alerts, len(inPeriod), cfg.Threshold, l.Currency())
		}

		body := md
		if frontMatterTpl != nil {
			fm, err := renderFrontMatter(frontMatterTpl, task)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to render front matter for %s report %d: %v\n", task.Report, task.Year, err)
				continue
			}
			body = fm + "\n" + md
		}

		name := filepath.Join(c.outputDir, task.Report, strconv.Itoa(task.Year))
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output directory for %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(name+".md", []byte(body), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write file %s.md: %v\n", name, err)
			return subcommands.ExitFailure
		}
		if c.html {
			html, err := renderer.HTML(md)
			if err == nil {
				err = os.WriteFile(name+".html", []byte(html), 0644)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to write file %s.html: %v\n", name, err)
				return subcommands.ExitFailure
			}
		}
		log.Infow("published report", "report", task.Report, "year", task.Year, "file", name+".md")
	}

	return subcommands.ExitSuccess
}

// generateYears returns the calendar years from the oldest to the newest
// event, in order.
func generateYears(events []cryptotax.Event) []int {
	if len(events) == 0 {
		return []int{}
	}
	first, last := events[0].Date.Year(), events[0].Date.Year()
	for _, e := range events[1:] {
		first = min(first, e.Date.Year())
		last = max(last, e.Date.Year())
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

func renderFrontMatter(tpl *template.Template, task reportTask) (string, error) {
	var fmBuffer bytes.Buffer
	if err := tpl.Execute(&fmBuffer, task); err != nil {
		return "", err
	}
	return fmBuffer.String(), nil
}
