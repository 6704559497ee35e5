package agent

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/docs"
	"github.com/etnz/cryptotax/renderer"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, args map[string]any) (string, error)
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	out, err := f.Func(ctx, args)
	if err != nil {
		return errorResponse(id, f.Decl.Name, err)
	}
	return outputResponse(id, f.Decl.Name, out)
}

// Books is the ledger the accountant works on.
type Books struct {
	Ledger    *cryptotax.Ledger
	Engine    *cryptotax.Engine
	Threshold decimal.Decimal
}

var filterParams = map[string]*genai.Schema{
	"year":     {Type: genai.TypeInteger, Description: "Calendar year of the report. Overrides from and to."},
	"from":     {Type: genai.TypeString, Description: "First day of the report, YYYY-MM-DD."},
	"to":       {Type: genai.TypeString, Description: "Last day of the report, YYYY-MM-DD."},
	"category": {Type: genai.TypeString, Description: "Only report on a category.", Enum: []string{"trading", "staking", "mining", "nft", "defi"}},
	"asset":    {Type: genai.TypeString, Description: "Only report on an asset, e.g. bitcoin."},
}

func markdownResponse(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// Functions returns the tools of the accountant.
func (b *Books) Functions() []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Entries",
				Description: "Entries lists the recorded income events with their category specific fields.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: filterParams},
				Response:    markdownResponse("A markdown table of the entries."),
			},
			Func: b.entries,
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Summary",
				Description: "Summary totals the declared values and counts the entries per category.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: filterParams},
				Response:    markdownResponse("A markdown table of the declared income per category, with the grand total."),
			},
			Func: b.summary,
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Alerts",
				Description: "Alerts lists the entries whose declared value, and optionally the realized gains, exceed the reporting threshold.",
				Parameters: &genai.Schema{Type: genai.TypeObject, Properties: with(filterParams, map[string]*genai.Schema{
					"gains": {Type: genai.TypeBoolean, Description: "Also flag realized gains above the threshold."},
				})},
				Response: markdownResponse("A markdown list of the alerts."),
			},
			Func: b.alerts,
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Gains",
				Description: "Gains computes the realized capital gains, matching disposals with acquisitions first in first out, and the lots still open.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: filterParams},
				Response:    markdownResponse("A markdown report of the realized gains and open lots."),
			},
			Func: b.gains,
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Topic",
				Description: "Topic returns the ctax documentation of a topic.",
				Parameters: &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{
					"topic": {Type: genai.TypeString, Description: "The topic name, 'readme' lists them all."},
				}},
				Response: markdownResponse("The documentation in markdown."),
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				topic, _ := args["topic"].(string)
				if topic == "" {
					topic = "readme"
				}
				return docs.GetTopic(topic)
			},
		},
	}
}

func (b *Books) entries(_ context.Context, args map[string]any) (string, error) {
	filters, _, err := filtersOf(args, true)
	if err != nil {
		return "", err
	}
	return renderer.LogMarkdown(b.Ledger.Events(filters...), b.Ledger.Currency()), nil
}

func (b *Books) summary(_ context.Context, args map[string]any) (string, error) {
	filters, _, err := filtersOf(args, true)
	if err != nil {
		return "", err
	}
	s := cryptotax.Summarize(b.Ledger.List(filters...))
	s.Currency = b.Ledger.Currency()
	return renderer.SummaryMarkdown(s), nil
}

func (b *Books) alerts(ctx context.Context, args map[string]any) (string, error) {
	filters, period, err := filtersOf(args, true)
	if err != nil {
		return "", err
	}
	events := b.Ledger.Events(filters...)
	alerts := cryptotax.Evaluate(slices.Values(events), b.Threshold)
	if gains, _ := args["gains"].(bool); gains {
		gainFilters, _, _ := filtersOf(args, false)
		report := b.Engine.Process(ctx, b.Ledger.Events(gainFilters...))
		alerts = append(alerts, cryptotax.EvaluateRealizations(report.Within(period).Realizations, b.Threshold)...)
	}
	return renderer.AlertsMarkdown(alerts, len(events), b.Threshold, b.Ledger.Currency()), nil
}

func (b *Books) gains(ctx context.Context, args map[string]any) (string, error) {
	filters, period, err := filtersOf(args, false)
	if err != nil {
		return "", err
	}
	report := b.Engine.Process(ctx, b.Ledger.Events(filters...))
	return renderer.GainsMarkdown(report.Within(period)), nil
}

// filtersOf reads the ledger filters and the period from function call
// arguments. When period is false the period is not part of the filters.
func filtersOf(args map[string]any, period bool) ([]cryptotax.Filter, date.Range, error) {
	var rng date.Range
	switch y := args["year"].(type) {
	case nil:
		for _, k := range []string{"from", "to"} {
			s, _ := args[k].(string)
			if s == "" {
				continue
			}
			d, err := date.Parse(s)
			if err != nil {
				return nil, rng, fmt.Errorf("argument %q must be a YYYY-MM-DD date, got %q", k, s)
			}
			if k == "from" {
				rng.From = d
			} else {
				rng.To = d
			}
		}
	case float64:
		rng = date.Year(int(y))
	case string:
		n, err := strconv.Atoi(y)
		if err != nil {
			return nil, rng, fmt.Errorf("argument 'year' must be a year, got %q", y)
		}
		rng = date.Year(n)
	default:
		return nil, rng, fmt.Errorf("argument 'year' must be a number, got %T", y)
	}

	var filters []cryptotax.Filter
	if period {
		filters = append(filters, cryptotax.Between(rng))
	}
	if s, _ := args["category"].(string); s != "" {
		c, err := cryptotax.ParseCategory(s)
		if err != nil {
			return nil, rng, err
		}
		filters = append(filters, cryptotax.ByCategory(c))
	}
	if s, _ := args["asset"].(string); s != "" {
		filters = append(filters, cryptotax.ByAsset(s))
	}
	return filters, rng, nil
}

// with returns the union of a and b.
func with(a, b map[string]*genai.Schema) map[string]*genai.Schema {
	m := maps.Clone(a)
	maps.Copy(m, b)
	return m
}
