package executor

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// stdinFD is the descriptor a piped stdin is passed on. A non-interactive
// shell points the stdin of an asynchronous list at /dev/null, so the pipe
// has to be redirected onto the subshell explicitly.
const stdinFD = 3

// wrapCommand backgrounds command in a subshell that touches successPath when
// the command exits zero, records the subshell PID in pidPath, and backgrounds
// the whole construct so the launching shell exits immediately.
//
// The command sits in a brace group closed on its own line, so a trailing
// ";" or "&", a "#" comment or several lines still parse. The group's status
// is that of its last command.
func wrapCommand(command, successPath, pidPath string, pipeStdin bool) string {
	var redirect string
	if pipeStdin {
		redirect = fmt.Sprintf(" 0<&%d %d<&-", stdinFD, stdinFD)
	}
	return fmt.Sprintf("( { %s\n} && touch %s )%s & echo $! > %s &",
		command, shellQuote(successPath), redirect, shellQuote(pidPath))
}

// shellQuote single-quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// validateCommand rejects commands that would break the wrapper, such as an
// unterminated quote or a trailing escape swallowing the closing brace.
func validateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if _, err := shlex.Split(command); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidCommand, command, err)
	}
	return nil
}
