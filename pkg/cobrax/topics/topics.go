// Package topics provides a pluggable, topic-based help system for
// Cobra CLI applications. Topics are loaded from an fs.FS, so they can
// ship embedded in the binary, and extend the default help command:
// `help <topic>` renders the topic, anything else falls through to the
// regular command help.
package topics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Topic represents one help topic.
type Topic struct {
	Name    string
	Ext     string
	Content string
}

// Options configures the topic manager.
type Options struct {
	// Extensions lists file extensions treated as topics.
	// Defaults to [".txt", ".md"].
	Extensions []string

	// Renderer formats topic content. Defaults to PlainRenderer.
	Renderer Renderer
}

// Manager holds the scanned topics for one root command.
type Manager struct {
	topics       map[string]*Topic
	originalHelp func(*cobra.Command, []string)
	extensions   []string
	renderer     Renderer
}

// New scans the given filesystem for topics.
func New(fsys fs.FS, opts Options) (*Manager, error) {
	m := &Manager{
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}
	if len(m.extensions) == 0 {
		m.extensions = []string{".txt", ".md"}
	}
	if m.renderer == nil {
		m.renderer = &PlainRenderer{}
	}
	if err := m.scan(fsys); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) scan(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		supported := false
		for _, validExt := range m.extensions {
			if ext == validExt {
				supported = true
				break
			}
		}
		if !supported {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(path), ext)
		m.topics[name] = &Topic{
			Name:    name,
			Ext:     ext,
			Content: string(content),
		}
		return nil
	})
}

// Get retrieves a topic by name. Flag-style names (--foo) resolve to
// the topic "foo", then "option-foo".
func (m *Manager) Get(name string) (*Topic, bool) {
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	if topic, exists := m.topics[name]; exists {
		return topic, true
	}
	topic, exists := m.topics["option-"+name]
	return topic, exists
}

// List returns all available topic names.
func (m *Manager) List() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Initialize installs the topic-aware help command on the root command.
func Initialize(rootCmd *cobra.Command, fsys fs.FS, opts Options) error {
	m, err := New(fsys, opts)
	if err != nil {
		return fmt.Errorf("failed to scan help topics: %w", err)
	}

	m.originalHelp = rootCmd.HelpFunc()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: `Help provides help for any command or topic in the application.
Simply type ` + rootCmd.Name() + ` help [path to command or topic] for full details.

To see all available help topics:
  ` + rootCmd.Name() + ` help topics`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range rootCmd.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			completions = append(completions, m.List()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				m.originalHelp(rootCmd, []string{})
				return
			}

			if args[0] == "topics" {
				m.printTopicList(cmd, rootCmd.Name())
				return
			}

			if topic, exists := m.Get(args[0]); exists {
				cmd.Print(m.renderer.Render(topic.Content, topic.Ext))
				return
			}

			m.originalHelp(rootCmd, args)
		},
	}

	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			rootCmd.RemoveCommand(cmd)
			break
		}
	}
	rootCmd.AddCommand(helpCmd)

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if topic, exists := m.Get(args[0]); exists {
				cmd.Print(m.renderer.Render(topic.Content, topic.Ext))
				return
			}
		}
		m.originalHelp(cmd, args)
	})

	return nil
}

func (m *Manager) printTopicList(cmd *cobra.Command, appName string) {
	names := m.List()
	if len(names) == 0 {
		cmd.Println("No help topics available.")
		return
	}

	var options []string
	var general []string
	for _, name := range names {
		if strings.HasPrefix(name, "option-") {
			options = append(options, strings.TrimPrefix(name, "option-"))
		} else {
			general = append(general, name)
		}
	}

	cmd.Println("Available help topics:")
	if len(general) > 0 {
		cmd.Println("\nGeneral topics:")
		for _, name := range general {
			cmd.Printf("  %s\n", name)
		}
	}
	if len(options) > 0 {
		cmd.Println("\nOption topics:")
		for _, name := range options {
			cmd.Printf("  --%s\n", name)
		}
	}
	cmd.Printf("\nUse '%s help <topic>' to read about a specific topic.\n", appName)
}
