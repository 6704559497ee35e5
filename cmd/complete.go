package cmd

import (
	"flag"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors are the predictors of flags whose values are known.
var flagPredictors = map[string]complete.Predictor{
	"ledger-file": predict.Files("*.jsonl"),
	"prices":      predict.Or(predict.Files("*.csv"), predict.Files("*.xlsx")),
	"frontmatter": predict.Files("*"),
	"html":        predict.Files("*.html"),
	"o":           predict.Dirs("*"),
	"c":           predict.Set(categoryNames()),
	"k":           predict.Set{string(cryptotax.Acquisition), string(cryptotax.Disposal), string(cryptotax.Receipt)},
	"type":        predict.Set{string(cryptotax.Buy), string(cryptotax.Sell), string(cryptotax.Swap)},
	"proof":       predict.Set{string(cryptotax.ProofOfWork), string(cryptotax.ProofOfStake)},
}

// argPredictors are the predictors of the positional arguments.
var argPredictors = map[string]complete.Predictor{
	"import": predict.Or(predict.Files("*.csv"), predict.Files("*.xlsx")),
	"topic":  complete.PredictFunc(predictTopics),
}

// Completion returns the shell completion of the ctax command line.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(flag.CommandLine),
	}
	for _, g := range groups {
		for _, c := range g.commands {
			f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(f)
			root.Sub[c.Name()] = &complete.Command{
				Flags: predictFlags(f),
				Args:  argPredictors[c.Name()],
			}
		}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

// predictFlags returns the predictors of every flag in f.
func predictFlags(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if p, ok := flagPredictors[fl.Name]; ok {
			flags[fl.Name] = p
			return
		}
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[fl.Name] = predict.Nothing
			return
		}
		flags[fl.Name] = predict.Something
	})
	return flags
}

func predictTopics(prefix string) []string {
	topics, err := docs.GetAllTopics()
	if err != nil {
		return nil
	}
	return predict.Set(append(topics, "*")).Predict(prefix)
}

func categoryNames() []string {
	names := make([]string, len(cryptotax.Categories))
	for i, c := range cryptotax.Categories {
		names[i] = string(c)
	}
	return names
}
