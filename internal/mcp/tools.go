package mcp

import "github.com/mark3labs/mcp-go/mcp"

// diagnoseTool defines the diagnose MCP tool.
var diagnoseTool = mcp.NewTool("diagnose",
	mcp.WithDescription("Run the diagnostic pipeline on a free-text symptom description. Returns the extracted symptoms, differential, risk level, and recommendation."),
	mcp.WithString("patient_input",
		mcp.Required(),
		mcp.Description("Free-text description of the patient's symptoms"),
	),
	mcp.WithString("role",
		mcp.Description("Caller role (doctor, nurse, patient, researcher); defaults to patient"),
		mcp.Enum("doctor", "nurse", "patient", "researcher"),
	),
)

// findSimilarCasesTool defines the find_similar_cases MCP tool.
var findSimilarCasesTool = mcp.NewTool("find_similar_cases",
	mcp.WithDescription("Find stored cases sharing symptoms with the query, ranked by overlap."),
	mcp.WithString("symptoms",
		mcp.Required(),
		mcp.Description("Comma-separated symptom list"),
	),
	mcp.WithString("role",
		mcp.Description("Caller role; defaults to patient"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of cases to return (default 5)"),
	),
)

// findComorbiditiesTool defines the find_comorbidities MCP tool.
var findComorbiditiesTool = mcp.NewTool("find_comorbidities",
	mcp.WithDescription("List conditions that co-occur with a diagnosis across stored cases."),
	mcp.WithString("diagnosis",
		mcp.Required(),
		mcp.Description("Diagnosis name to look up"),
	),
	mcp.WithString("role",
		mcp.Description("Caller role; defaults to patient"),
	),
)

// caseStatisticsTool defines the case_statistics MCP tool.
var caseStatisticsTool = mcp.NewTool("case_statistics",
	mcp.WithDescription("Aggregate counts over stored cases. Doctor role required."),
	mcp.WithString("role",
		mcp.Required(),
		mcp.Description("Caller role; only doctor is permitted"),
	),
)
