package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/contentgraph/contentgraph/internal/config"
	"github.com/contentgraph/contentgraph/internal/model"
)

// InitOptions describe the collection definition to scaffold.
type InitOptions struct {
	Name       string
	Engine     string
	PrimaryKey string
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// InitCommand scaffolds a new collection definition file.
type InitCommand struct {
	filesystem FileSystem
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{filesystem: &osFileSystem{}}
}

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	cfg, dir, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var options *InitOptions
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get collection options: %w", err)
		}
	}

	collectionsDir := filepath.Join(dir, cfg.Collections)
	if err := ic.filesystem.MkdirAll(collectionsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create collections directory: %w", err)
	}

	collection := model.Collection{
		Info:       model.Info{Name: options.Name},
		PrimaryKey: options.PrimaryKey,
		Engine:     options.Engine,
		Attributes: map[string]model.Attribute{
			options.PrimaryKey: {Type: "string"},
		},
	}
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(collectionsDir, options.Name+model.SettingsSuffix)
	if _, err := ic.filesystem.Stat(path); err == nil {
		return fmt.Errorf("collection %s already exists at %s", options.Name, path)
	}
	if err := ic.filesystem.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}

	fmt.Printf("Created collection %s at %s\n", options.Name, path)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	var name string
	var engine string
	primaryKey := "id"

	form := ic.createInitForm(&name, &engine, &primaryKey)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return &InitOptions{
		Name:       strings.ToLower(name),
		Engine:     engine,
		PrimaryKey: primaryKey,
	}, nil
}

func (ic *InitCommand) createInitForm(name, engine, primaryKey *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Collection name").
				Description("Singular, lowercase model name (e.g. article)").
				Value(name).
				Validate(func(s string) error {
					if !collectionNameRe.MatchString(s) {
						return fmt.Errorf("collection name must be lowercase letters and digits, starting with a letter")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Storage engine").
				Description("Engine the collection's adapter is registered under").
				Options(
					huh.NewOption("Memory", "memory"),
				).
				Value(engine),

			huh.NewInput().
				Title("Primary key").
				Description("Name of the primary-key attribute").
				Value(primaryKey).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("primary key cannot be empty")
					}
					return nil
				}),
		),
	)
}
