package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against one
database connection and one authorized Sheets client.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(app.Out, cmd.Parent())
			fmt.Fprintf(app.Out, "\n%s interactive session, type 'help' for commands, 'exit' to leave\n", bold("watchtower"))
			return s.run(os.Stdin)
		},
	}
}

// session dispatches lines to the sibling commands without re-running initApp
type session struct {
	out      io.Writer
	commands map[string]*cobra.Command
}

func newSession(out io.Writer, root *cobra.Command) *session {
	s := &session{out: out, commands: make(map[string]*cobra.Command)}
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "interactive", "completion", "help":
			continue
		}
		s.commands[sub.Name()] = sub
	}
	return s
}

func (s *session) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if done := s.exec(scanner.Text()); done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// exec runs a single input line. Returns true when the session should end.
func (s *session) exec(line string) bool {
	parts, err := parseCommandLine(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(s.out, "%s Error parsing command: %v\n\n", red("✗"), err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	name, args := parts[0], parts[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		s.printHelp()
		return false
	}

	target, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(s.out, "%s Unknown command: %s (type 'help' for available commands)\n\n", red("✗"), name)
		return false
	}

	// Flags keep their values between runs unless reset
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})
	if err := target.ParseFlags(args); err != nil {
		fmt.Fprintf(s.out, "%s Error parsing flags: %v\n\n", red("✗"), err)
		return false
	}
	args = target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			fmt.Fprintf(s.out, "%s Error: %v\n\n", red("✗"), err)
			return false
		}
	}

	if target.RunE != nil {
		if err := target.RunE(target, args); err != nil {
			fmt.Fprintf(s.out, "%s Error: %v\n\n", red("✗"), err)
		}
	} else if target.Run != nil {
		target.Run(target, args)
	}
	return false
}

func (s *session) printHelp() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(s.out, "\nAvailable commands:")
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(s.out, "  %-36s %s\n", cmd.Use, cmd.Short)
	}
	fmt.Fprintf(s.out, "\n  %-36s %s\n", "help", "Show this help message")
	fmt.Fprintf(s.out, "  %-36s %s\n\n", "exit, quit", "Exit the interactive session")
}

// parseCommandLine splits a line into arguments, honouring single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", quote)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
