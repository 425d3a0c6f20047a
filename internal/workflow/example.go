package workflow

// ExampleJSON is loaded by LoadExample.
const ExampleJSON = `{
  "report_title": "Monthly Office Spending",
  "currency": "USD",
  "expenses": [
    {
      "item": "High-speed Internet",
      "amount": 250
    },
    {
      "item": "Coffee & Snacks",
      "amount": 400
    },
    {
      "item": "Software Subscriptions",
      "amount": 1200
    },
    {
      "item": "Office Electricity",
      "amount": 350
    }
  ]
}`

// ExamplePrompt is loaded alongside ExampleJSON.
const ExamplePrompt = "Design a sleek analytics dashboard with a dark theme (dark blue/black background). " +
	"Display key metrics as glowing cards with gradient borders. " +
	"Create a vibrant bar chart for regional performance using different colors for each region. " +
	"Show top products in a ranked list with progress bars. " +
	"Make it look like a high-tech analytics platform."
