package errors

// template describes a registered error code.
type template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
//
// Ranges:
//
//	E100-E119  configuration
//	E200-E219  build
//	E300-E319  dev server
//	E400-E419  CLI
var registry = map[string]template{

	// Configuration errors

	"E100": {
		Category:   CategoryConfig,
		Message:    "Not a relight project",
		Detail:     "No relight.json was found in this directory or any parent.",
		Suggestion: "Run this command from a directory containing relight.json.",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "Invalid relight.json",
		Detail:     "The relight.json configuration file is malformed.",
		Suggestion: "Check that relight.json is valid JSON.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "A configured port is outside the range 1-65535.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid broadcast delay",
		Detail:   "The live-reload broadcast delay must not be negative.",
	},

	// Build errors

	"E200": {
		Category:   CategoryBuild,
		Message:    "Build failed",
		Detail:     "The application bundle could not be compiled.",
		Suggestion: "Check the output above for the failing route file.",
	},
	"E201": {
		Category: CategoryBuild,
		Message:  "Routes directory missing",
		Detail:   "The app routes directory does not exist.",
	},
	"E202": {
		Category: CategoryBuild,
		Message:  "Output directory not writable",
		Detail:   "The build output directory could not be created or written.",
	},

	// Dev server errors

	"E300": {
		Category:   CategoryServer,
		Message:    "No free port",
		Detail:     "No free port was found in the dev server port range.",
		Suggestion: "Set the PORT environment variable to an explicit free port.",
	},
	"E301": {
		Category:   CategoryServer,
		Message:    "Custom server not supported",
		Detail:     "The configuration names a custom server entry point, but the built-in dev server cannot delegate to one.",
		Suggestion: "Remove the \"server\" field from relight.json, or run your custom server directly.",
	},
	"E302": {
		Category: CategoryServer,
		Message:  "Server artifact missing",
		Detail:   "The compiled server bundle was not found at the configured path.",
	},
	"E303": {
		Category: CategoryServer,
		Message:  "Live-reload channel failed",
		Detail:   "The live-reload WebSocket channel could not bind its port.",
	},

	// CLI errors

	"E400": {
		Category:   CategoryCLI,
		Message:    "Environment file invalid",
		Detail:     "The .env file exists but could not be parsed.",
		Suggestion: "Check the .env file for malformed lines.",
	},
	"E401": {
		Category:   CategoryCLI,
		Message:    "Unknown project template",
		Suggestion: "Run 'relight create --help' to list the available templates.",
	},
	"E402": {
		Category:   CategoryCLI,
		Message:    "Invalid project name",
		Detail:     "Project names may contain letters, digits, hyphens and underscores, and must start with a letter.",
	},
	"E403": {
		Category:   CategoryCLI,
		Message:    "Directory already exists",
		Suggestion: "Pick a different project name or remove the existing directory.",
	},
}
