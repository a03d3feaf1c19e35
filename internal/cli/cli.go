package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandStart      Command = "start"
	CommandStop       Command = "stop"
	CommandToggle     Command = "toggle"
	CommandStatus     Command = "status"
	CommandTranscript Command = "transcript"
	CommandClear      Command = "clear"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandHistory    Command = "history"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandStart:      {},
	CommandStop:       {},
	CommandToggle:     {},
	CommandStatus:     {},
	CommandTranscript: {},
	CommandClear:      {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandHistory:    {},
	CommandVersion:    {},
	CommandHelp:       {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  start       Start a capture session (becomes the daemon when none is running)
  stop        Stop the active capture session and commit the transcript
  toggle      Start capture, or stop+commit when already capturing
  status      Print current state and transcript counters
  transcript  Print the running transcript
  clear       Clear the running transcript without stopping
  devices     List available camera devices
  doctor      Run configuration and environment checks
  history     Print recent capture sessions
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/segno/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
