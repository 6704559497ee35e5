package agent

import (
	"go.uber.org/zap"
	"google.golang.org/genai"
)

func instruction(s string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: s}}}
}

// newFacilitator creates the expert in charge of the conversation, whose
// tools are the other experts.
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and of solving the user's request.

			The user records their crypto income (trading, staking, mining, NFT and DeFi) in a ledger
			and needs to declare it. Learn about the experts' skills from the Tools and ask them
			questions. They keep the context of your previous questions.

			Devise a plan of questions to ask each expert and come up with the best response to the
			user's request. Amounts are in the ledger currency unless the user says otherwise.
			Answer in markdown.
		`),
		},
		Library: NewLibrary(experts),
	}
}

// NewAdvisor creates the tax advisor expert, grounded with Google Search.
func NewAdvisor(model string, log *zap.SugaredLogger) *Expert {
	return &Expert{
		Name: "Advisor",
		Description: `This is the tax advisor. They know the tax treatment of crypto income, the
		reporting thresholds and the latest regulations. Ask the Advisor whenever you need
		recent or grounding information about taxes or crypto markets.`,
		ModelName: model,
		Logger:    log,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are an expert in the taxation of crypto assets. You search and find anything related
			to tax authorities, reporting obligations and crypto markets. You leverage Google Search to
			ground your assertions. Never invent a figure from the user's ledger: only the Accountant
			knows it.
		`),
		},
	}
}

// NewAccountant creates the expert reading the user's ledger through the
// tools of b.
func NewAccountant(model string, b *Books, log *zap.SugaredLogger) *Expert {
	lib := b.Functions()
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. They read the user's ledger of crypto income events
		and compute the summary per category, the compliance alerts and the realized capital gains.`,
		ModelName: model,
		Logger:    log,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: instruction(`
			You are the accountant in charge of the user's ledger of crypto income.
			Use the Tools to extract the relevant figures: the entries, the income per category,
			the values above the reporting threshold and the realized capital gains.
			Other experts may ask you approximate questions, figure out what they meant.
		`),
		},
		Library: NewLibrary(lib),
	}
}
