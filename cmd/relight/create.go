package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/internal/templates"
)

func createCmd() *cobra.Command {
	var (
		template    string
		description string
		port        int
		skipPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new relight project",
		Long: `Create a new relight project with the specified name.

Templates:
  minimal   A single route and nothing else (default)
  blog      Starter with example HTML, Markdown and JSON routes

Examples:
  relight create my-site
  relight create my-site --template=blog
  relight create my-site --description="My personal site" --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], template, description, port, skipPrompts)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "minimal", "Project template (minimal, blog)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().IntVar(&port, "port", 3000, "Preferred dev server port")
	cmd.Flags().BoolVarP(&skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runCreate(name, templateName, description string, port int, skipPrompts bool) error {
	printBanner()
	fmt.Println("  Creating a new relight project...")
	fmt.Println()

	if !isValidProjectName(name) {
		return errors.New("E402").
			WithDetail("'" + name + "' is not a valid project name")
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return errors.New("E403").
			WithDetail("Directory '" + name + "' already exists")
	}

	if !skipPrompts {
		description, err = promptForDescription(description)
		if err != nil {
			return err
		}
	}
	if description == "" {
		description = "A relight site"
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	info("Creating project from '%s' template...", templateName)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return err
	}
	cfg := templates.Config{
		ProjectName: name,
		Description: description,
		Port:        port,
	}
	if err := tmpl.Create(projectDir, cfg); err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    relight dev")
	fmt.Println()
	fmt.Printf("  Your site will be running at http://localhost:%d\n", port)
	fmt.Println()

	return nil
}

func promptForDescription(description string) (string, error) {
	if description != "" {
		return description, nil
	}
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("? Description: ")
	desc, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '-' || r == '_':
			if i == 0 {
				return false
			}
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
